package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusPaid      BookingStatus = "paid"
	StatusCancelled BookingStatus = "cancelled"
	StatusFailed    BookingStatus = "payment_failed"
)

type Booking struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID     string             `bson:"client_id" json:"client_id"`
	TourID       string             `bson:"tour_id" json:"tour_id"`
	TourDetails  *TourSummary       `bson:"tour_details,omitempty" json:"tour_details,omitempty"`
	Participants int                `bson:"participants" json:"participants"`
	Date         time.Time          `bson:"date" json:"date"`
	TotalPrice   float64            `bson:"total_price" json:"total_price"`
	Status       BookingStatus      `bson:"status" json:"status"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Comment      string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// TourSummary денормализованные данные тура на момент бронирования
type TourSummary struct {
	Title        string  `bson:"title" json:"title"`
	City         string  `bson:"city" json:"city"`
	Price        float64 `bson:"price" json:"price"`
	DurationDays int     `bson:"duration_days" json:"duration_days"`
}

func (b *Booking) Validate() error {
	if b.ClientID == "" || b.TourID == "" || b.Date.IsZero() {
		return errors.New("missing required booking fields")
	}
	if b.Participants <= 0 {
		return errors.New("participants must be positive")
	}
	return nil
}
