package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	TypeBookingCreated   NotificationType = "booking_created"
	TypeBookingConfirmed NotificationType = "booking_confirmed"
	TypeBookingCancelled NotificationType = "booking_cancelled"
	TypePaymentSuccess   NotificationType = "payment_success"
	TypePaymentFailed    NotificationType = "payment_failed"
	TypeReviewRequest    NotificationType = "review_request"
	TypeTourReminder     NotificationType = "tour_reminder"
	TypeSupportReply     NotificationType = "support_reply"
	TypeSupportClosed    NotificationType = "support_closed"
)

type DeliveryMethod string

const (
	DeliveryPush  DeliveryMethod = "push"
	DeliveryEmail DeliveryMethod = "email"
)

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Role      string             `bson:"role" json:"role"`
	Type      NotificationType   `bson:"type" json:"type"`
	Delivery  DeliveryMethod     `bson:"delivery" json:"delivery"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
