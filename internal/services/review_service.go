package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tour-app/internal/models"
	"tour-app/internal/repository"
)

var (
	ErrNotBookedTour   = errors.New("client has no paid booking for this tour")
	ErrAlreadyReviewed = errors.New("client already reviewed this tour")
)

type ReviewService interface {
	CreateReview(ctx context.Context, review *models.Review) error
	GetReviewsByTour(ctx context.Context, tourID string) ([]models.Review, error)
	DeleteReview(ctx context.Context, id primitive.ObjectID) error
}

type reviewService struct {
	repo        repository.ReviewRepository
	bookingRepo repository.BookingRepository
	tourRepo    repository.TourRepository
	redis       *redis.Client
}

func NewReviewService(repo repository.ReviewRepository, bookingRepo repository.BookingRepository, tourRepo repository.TourRepository, redis *redis.Client) ReviewService {
	return &reviewService{repo: repo, bookingRepo: bookingRepo, tourRepo: tourRepo, redis: redis}
}

// CreateReview отзыв может оставить только клиент с оплаченным бронированием тура
func (s *reviewService) CreateReview(ctx context.Context, review *models.Review) error {
	if err := review.Validate(); err != nil {
		return err
	}

	bookings, err := s.bookingRepo.Filter(ctx, bson.M{
		"tour_id":   review.TourID,
		"client_id": review.ClientID,
		"status":    models.StatusPaid,
	})
	if err != nil {
		return err
	}
	if len(bookings) == 0 {
		return ErrNotBookedTour
	}

	exists, err := s.repo.ExistsForClient(ctx, review.TourID, review.ClientID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyReviewed
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return err
	}

	tourID, err := primitive.ObjectIDFromHex(review.TourID)
	if err == nil {
		if err := s.tourRepo.AddRating(ctx, tourID, review.Rating); err != nil {
			log.Printf("Failed to update tour rating: %v", err)
		}
	}

	s.invalidateTourCache(ctx, review.TourID)
	return nil
}

func (s *reviewService) GetReviewsByTour(ctx context.Context, tourID string) ([]models.Review, error) {
	cacheKey := fmt.Sprintf("reviews_by_tour:%s", tourID)

	var cached []models.Review
	val, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		if jsonErr := unmarshalCached(val, &cached); jsonErr == nil {
			return cached, nil
		}
	}

	reviews, err := s.repo.GetByTourID(ctx, tourID)
	if err != nil {
		return nil, err
	}

	setCached(ctx, s.redis, cacheKey, reviews, 5*time.Minute)
	return reviews, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateTourCache(ctx, review.TourID)
	return nil
}

func (s *reviewService) invalidateTourCache(ctx context.Context, tourID string) {
	keys := []string{
		fmt.Sprintf("reviews_by_tour:%s", tourID),
		"active_tours",
	}
	for _, key := range keys {
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			log.Printf("Failed to invalidate cache %s: %v", key, err)
		}
	}
}
