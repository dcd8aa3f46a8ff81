package models

import (
	"testing"
	"time"
)

func validBooking() Booking {
	return Booking{
		ClientID:     "client1",
		TourID:       "tour1",
		Participants: 2,
		Date:         time.Now().Add(48 * time.Hour),
	}
}

func TestBookingValidate(t *testing.T) {
	b := validBooking()
	if err := b.Validate(); err != nil {
		t.Errorf("valid booking rejected: %v", err)
	}

	b = validBooking()
	b.ClientID = ""
	if err := b.Validate(); err == nil {
		t.Error("booking without client accepted")
	}

	b = validBooking()
	b.Date = time.Time{}
	if err := b.Validate(); err == nil {
		t.Error("booking without date accepted")
	}

	b = validBooking()
	b.Participants = 0
	if err := b.Validate(); err == nil {
		t.Error("booking with zero participants accepted")
	}
}

func TestTourValidate(t *testing.T) {
	tour := Tour{
		Title:        "Горный поход",
		City:         "Алматы",
		Price:        150,
		DurationDays: 3,
		MaxGroupSize: 10,
	}
	if err := tour.Validate(); err != nil {
		t.Errorf("valid tour rejected: %v", err)
	}

	tour.Price = 0
	if err := tour.Validate(); err == nil {
		t.Error("tour with zero price accepted")
	}

	tour.Price = 150
	tour.MaxGroupSize = 0
	if err := tour.Validate(); err == nil {
		t.Error("tour with zero group size accepted")
	}
}

func TestUserPasswordHashing(t *testing.T) {
	user := User{Password: "correct horse"}
	if err := user.HashPassword(); err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if user.Password == "correct horse" {
		t.Fatal("password stored in plain text")
	}
	if err := user.ComparePassword("correct horse"); err != nil {
		t.Error("correct password rejected")
	}
	if err := user.ComparePassword("wrong"); err == nil {
		t.Error("wrong password accepted")
	}
}
