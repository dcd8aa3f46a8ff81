package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tour-app/internal/models"
	"tour-app/internal/repository"
)

type TourService interface {
	CreateTour(ctx context.Context, tour *models.Tour) error
	UpdateTour(ctx context.Context, id primitive.ObjectID, updated *models.Tour) error
	DeactivateTour(ctx context.Context, id primitive.ObjectID) error
	GetTourByID(ctx context.Context, id primitive.ObjectID) (*models.Tour, error)
	GetActiveTours(ctx context.Context) ([]models.Tour, error)
	GetAllTours(ctx context.Context) ([]models.Tour, error)
	FilterTours(ctx context.Context, filter map[string]interface{}) ([]models.Tour, error)
}

type tourService struct {
	repo  repository.TourRepository
	redis *redis.Client
}

func NewTourService(repo repository.TourRepository, redis *redis.Client) TourService {
	return &tourService{repo: repo, redis: redis}
}

func (s *tourService) CreateTour(ctx context.Context, tour *models.Tour) error {
	if err := tour.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, tour); err != nil {
		return err
	}
	s.invalidateCatalogCache(ctx)
	return nil
}

func (s *tourService) UpdateTour(ctx context.Context, id primitive.ObjectID, updated *models.Tour) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	existing.Title = updated.Title
	existing.Description = updated.Description
	existing.City = updated.City
	existing.Price = updated.Price
	existing.DurationDays = updated.DurationDays
	existing.MaxGroupSize = updated.MaxGroupSize
	existing.StartDates = updated.StartDates
	existing.CoverURL = updated.CoverURL

	if err := existing.Validate(); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return err
	}
	s.invalidateCatalogCache(ctx)
	return nil
}

func (s *tourService) DeactivateTour(ctx context.Context, id primitive.ObjectID) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.invalidateCatalogCache(ctx)
	return nil
}

func (s *tourService) GetTourByID(ctx context.Context, id primitive.ObjectID) (*models.Tour, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *tourService) GetActiveTours(ctx context.Context) ([]models.Tour, error) {
	cacheKey := "active_tours"

	var cached []models.Tour
	val, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
			return cached, nil
		}
	}

	tours, err := s.repo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(tours)
	_ = s.redis.Set(ctx, cacheKey, data, 5*time.Minute).Err()

	return tours, nil
}

func (s *tourService) GetAllTours(ctx context.Context) ([]models.Tour, error) {
	return s.repo.GetAll(ctx)
}

func (s *tourService) FilterTours(ctx context.Context, filter map[string]interface{}) ([]models.Tour, error) {
	filterJSON, _ := json.Marshal(filter)
	hash := sha1.Sum(filterJSON)
	filterHash := hex.EncodeToString(hash[:])

	cacheKey := fmt.Sprintf("tours_filter:%s", filterHash)

	var cached []models.Tour
	val, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
			return cached, nil
		}
	}

	mongoFilter := bson.M{"active": true}
	for k, v := range filter {
		mongoFilter[k] = v
	}

	tours, err := s.repo.Filter(ctx, mongoFilter)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(tours)
	_ = s.redis.Set(ctx, cacheKey, data, 5*time.Minute).Err()

	return tours, nil
}

func (s *tourService) invalidateCatalogCache(ctx context.Context) {
	if err := s.redis.Del(ctx, "active_tours").Err(); err != nil {
		log.Printf("Failed to invalidate tours cache: %v", err)
	}
}
