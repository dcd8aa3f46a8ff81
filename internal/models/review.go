package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TourID     string             `bson:"tour_id" json:"tour_id"`
	ClientID   string             `bson:"client_id" json:"client_id"`
	ClientName string             `bson:"client_name,omitempty" json:"client_name,omitempty"`
	Rating     int                `bson:"rating" json:"rating" validate:"required,min=1,max=5"`
	Comment    string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

func (r *Review) Validate() error {
	if r.TourID == "" || r.ClientID == "" {
		return errors.New("missing required review fields")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	return nil
}
