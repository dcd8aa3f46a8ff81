package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"tour-app/internal/models"
	"tour-app/internal/repository"
)

// DashboardStats агрегаты для админской панели
type DashboardStats struct {
	ActiveBookings int64            `json:"active_bookings"`
	TotalRevenue   float64          `json:"total_revenue"`
	ActiveTours    int64            `json:"active_tours"`
	TotalUsers     int64            `json:"total_users"`
	BookingsByTour map[string]int64 `json:"bookings_by_tour"`
}

type AnalyticsService interface {
	GetActiveBookingsCount(ctx context.Context) (int64, error)
	GetTotalRevenue(ctx context.Context) (float64, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type analyticsService struct {
	bookingRepo repository.BookingRepository
	tourRepo    repository.TourRepository
	userRepo    repository.UserRepository
	redis       *redis.Client
}

func NewAnalyticsService(bookingRepo repository.BookingRepository, tourRepo repository.TourRepository, userRepo repository.UserRepository, redis *redis.Client) AnalyticsService {
	return &analyticsService{
		bookingRepo: bookingRepo,
		tourRepo:    tourRepo,
		userRepo:    userRepo,
		redis:       redis,
	}
}

func (s *analyticsService) GetActiveBookingsCount(ctx context.Context) (int64, error) {
	cacheKey := "stats:active_bookings"

	var cached int64
	val, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		if jsonErr := unmarshalCached(val, &cached); jsonErr == nil {
			return cached, nil
		}
	}

	count, err := s.bookingRepo.CountByStatus(ctx, models.StatusPending, models.StatusConfirmed, models.StatusPaid)
	if err != nil {
		return 0, err
	}

	setCached(ctx, s.redis, cacheKey, count, 5*time.Minute)
	return count, nil
}

func (s *analyticsService) GetTotalRevenue(ctx context.Context) (float64, error) {
	cacheKey := "stats:total_revenue"

	var cached float64
	val, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		if jsonErr := unmarshalCached(val, &cached); jsonErr == nil {
			return cached, nil
		}
	}

	revenue, err := s.bookingRepo.TotalRevenue(ctx)
	if err != nil {
		return 0, err
	}

	setCached(ctx, s.redis, cacheKey, revenue, 5*time.Minute)
	return revenue, nil
}

func (s *analyticsService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	cacheKey := "stats:dashboard"

	var cached DashboardStats
	val, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		if jsonErr := unmarshalCached(val, &cached); jsonErr == nil {
			return &cached, nil
		}
	}

	stats, err := s.computeDashboardStats(ctx)
	if err != nil {
		return nil, err
	}

	setCached(ctx, s.redis, cacheKey, stats, 5*time.Minute)
	return stats, nil
}

func (s *analyticsService) computeDashboardStats(ctx context.Context) (*DashboardStats, error) {
	active, err := s.bookingRepo.CountByStatus(ctx, models.StatusPending, models.StatusConfirmed, models.StatusPaid)
	if err != nil {
		return nil, err
	}
	revenue, err := s.bookingRepo.TotalRevenue(ctx)
	if err != nil {
		return nil, err
	}
	tours, err := s.tourRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	byTour := make(map[string]int64)
	for _, b := range bookings {
		if b.Status == models.StatusCancelled {
			continue
		}
		byTour[b.TourID]++
	}

	return &DashboardStats{
		ActiveBookings: active,
		TotalRevenue:   revenue,
		ActiveTours:    tours,
		TotalUsers:     users,
		BookingsByTour: byTour,
	}, nil
}
