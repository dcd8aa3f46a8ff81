package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email         string             `bson:"email" json:"email" validate:"required,email"`
	Password      string             `bson:"password" json:"-" validate:"required,min=6"`
	Role          string             `bson:"role" json:"role" validate:"required,oneof=user manager admin"`
	Banned        bool               `bson:"banned" json:"banned"`
	FirstName     string             `bson:"first_name" json:"first_name" validate:"omitempty"`
	LastName      string             `bson:"last_name" json:"last_name" validate:"omitempty"`
	PhoneNumber   string             `bson:"phone_number,omitempty" json:"phone_number,omitempty" validate:"omitempty,e164"`
	DeviceToken   string             `bson:"device_token,omitempty" json:"-"`
	ResetRequired bool               `bson:"reset_required" json:"reset_required"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}
