package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tour-app/internal/models"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	GetByTourID(ctx context.Context, tourID string) ([]models.Review, error)
	ExistsForClient(ctx context.Context, tourID, clientID string) (bool, error)
}

type reviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &reviewRepository{collection: db.Collection("reviews")}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	review.ID = primitive.NewObjectID()
	review.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, review)
	return err
}

func (r *reviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *reviewRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var review models.Review
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&review)
	return &review, err
}

func (r *reviewRepository) GetByTourID(ctx context.Context, tourID string) ([]models.Review, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"tour_id": tourID})
	if err != nil {
		return nil, err
	}
	var reviews []models.Review
	err = cursor.All(ctx, &reviews)
	return reviews, err
}

func (r *reviewRepository) ExistsForClient(ctx context.Context, tourID, clientID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"tour_id": tourID, "client_id": clientID})
	return count > 0, err
}
