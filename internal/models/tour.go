package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Tour struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	City         string             `bson:"city" json:"city"`
	Price        float64            `bson:"price" json:"price"`
	DurationDays int                `bson:"duration_days" json:"duration_days"`
	MaxGroupSize int                `bson:"max_group_size" json:"max_group_size"`
	StartDates   []time.Time        `bson:"start_dates" json:"start_dates"`
	CoverURL     string             `bson:"cover_url,omitempty" json:"cover_url,omitempty"`
	RatingCount  int                `bson:"rating_count" json:"rating_count"`
	RatingSum    int                `bson:"rating_sum" json:"rating_sum"`
	Rating       float64            `bson:"rating" json:"rating"`
	Active       bool               `bson:"active" json:"active"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

func (t *Tour) Validate() error {
	if t.Title == "" || t.City == "" || t.Price <= 0 || t.DurationDays <= 0 {
		return errors.New("missing required tour fields")
	}
	if t.MaxGroupSize <= 0 {
		return errors.New("max_group_size must be positive")
	}
	return nil
}
