package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tour-app/internal/models"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	Update(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	GetByClientID(ctx context.Context, clientID string) ([]models.Booking, error)
	GetAll(ctx context.Context) ([]models.Booking, error)
	Filter(ctx context.Context, filter bson.M) ([]models.Booking, error)
	CountByStatus(ctx context.Context, statuses ...models.BookingStatus) (int64, error)
	TotalRevenue(ctx context.Context) (float64, error)
}

type bookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) BookingRepository {
	return &bookingRepository{collection: db.Collection("bookings")}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	booking.ID = primitive.NewObjectID()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, booking)
	return err
}

func (r *bookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now()
	_, err := r.collection.UpdateByID(ctx, booking.ID, bson.M{"$set": booking})
	return err
}

func (r *bookingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	return &booking, err
}

func (r *bookingRepository) GetByClientID(ctx context.Context, clientID string) ([]models.Booking, error) {
	return r.Filter(ctx, bson.M{"client_id": clientID})
}

func (r *bookingRepository) GetAll(ctx context.Context) ([]models.Booking, error) {
	return r.Filter(ctx, bson.M{})
}

func (r *bookingRepository) Filter(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var bookings []models.Booking
	err = cursor.All(ctx, &bookings)
	return bookings, err
}

func (r *bookingRepository) CountByStatus(ctx context.Context, statuses ...models.BookingStatus) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": bson.M{"$in": statuses}})
}

// TotalRevenue сумма по оплаченным бронированиям
func (r *bookingRepository) TotalRevenue(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.StatusPaid}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$total_price"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	var result []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}
