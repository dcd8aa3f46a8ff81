package services

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tour-app/internal/models"
)

// PaymentService имитация платёжного шлюза: проверяет сумму против
// бронирования и сразу сообщает результат, без реального провайдера
type PaymentService struct {
	bookings BookingService
}

func NewPaymentService(bookings BookingService) *PaymentService {
	return &PaymentService{bookings: bookings}
}

type PaymentResult struct {
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

func (s *PaymentService) Pay(ctx context.Context, bookingID, clientID string, amount float64) (*PaymentResult, error) {
	if bookingID == "" || amount <= 0 {
		return &PaymentResult{Status: "failed", Reason: "booking_id and positive amount are required"}, nil
	}

	objID, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		return &PaymentResult{Status: "failed", Reason: "invalid booking id"}, nil
	}

	booking, err := s.bookings.GetBookingByID(ctx, objID)
	if err != nil {
		return &PaymentResult{Status: "failed", Reason: "booking not found"}, nil
	}
	if booking.ClientID != clientID {
		return &PaymentResult{Status: "failed", Reason: "booking belongs to another client"}, nil
	}
	if booking.Status != models.StatusConfirmed {
		return &PaymentResult{Status: "failed", Reason: fmt.Sprintf("booking is %s, expected confirmed", booking.Status)}, nil
	}
	if booking.TotalPrice != amount {
		return &PaymentResult{Status: "failed", Reason: "amount mismatch"}, nil
	}

	if err := s.bookings.HandlePaymentStatus(ctx, bookingID, "success"); err != nil {
		log.Printf("[PAYMENT] Failed to mark booking %s as paid: %v", bookingID, err)
		return nil, err
	}

	return &PaymentResult{Status: "success", ClientSecret: "mock_client_secret_123"}, nil
}
