package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tour-app/internal/models"
)

type TourRepository interface {
	Create(ctx context.Context, tour *models.Tour) error
	Update(ctx context.Context, tour *models.Tour) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Tour, error)
	GetActive(ctx context.Context) ([]models.Tour, error)
	GetAll(ctx context.Context) ([]models.Tour, error)
	Filter(ctx context.Context, filter bson.M) ([]models.Tour, error)
	AddRating(ctx context.Context, id primitive.ObjectID, rating int) error
	Count(ctx context.Context) (int64, error)
}

type tourRepository struct {
	collection *mongo.Collection
}

func NewTourRepository(db *mongo.Database) TourRepository {
	return &tourRepository{collection: db.Collection("tours")}
}

func (r *tourRepository) Create(ctx context.Context, tour *models.Tour) error {
	tour.ID = primitive.NewObjectID()
	tour.Active = true
	tour.CreatedAt = time.Now()
	tour.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, tour)
	return err
}

func (r *tourRepository) Update(ctx context.Context, tour *models.Tour) error {
	tour.UpdatedAt = time.Now()
	_, err := r.collection.UpdateByID(ctx, tour.ID, bson.M{"$set": tour})
	return err
}

func (r *tourRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"active":     active,
			"updated_at": time.Now(),
		},
	})
	return err
}

func (r *tourRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Tour, error) {
	var tour models.Tour
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tour)
	return &tour, err
}

func (r *tourRepository) GetActive(ctx context.Context) ([]models.Tour, error) {
	return r.Filter(ctx, bson.M{"active": true})
}

func (r *tourRepository) GetAll(ctx context.Context) ([]models.Tour, error) {
	return r.Filter(ctx, bson.M{})
}

func (r *tourRepository) Filter(ctx context.Context, filter bson.M) ([]models.Tour, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var tours []models.Tour
	err = cursor.All(ctx, &tours)
	return tours, err
}

func (r *tourRepository) AddRating(ctx context.Context, id primitive.ObjectID, rating int) error {
	tour, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	tour.RatingCount++
	tour.RatingSum += rating
	tour.Rating = float64(tour.RatingSum) / float64(tour.RatingCount)
	return r.Update(ctx, tour)
}

func (r *tourRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"active": true})
}
