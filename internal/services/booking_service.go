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
	"tour-app/internal/utils"
)

var (
	ErrTourNotAvailable  = errors.New("tour is not available for booking")
	ErrTooManyPeople     = errors.New("participants exceed max group size")
	ErrBookingNotPending = errors.New("booking is not pending")
)

type BookingService interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	GetBookingsByClient(ctx context.Context, clientID string) ([]models.Booking, error)
	GetAllBookings(ctx context.Context) ([]models.Booking, error)
	FilterBookings(ctx context.Context, filter map[string]interface{}) ([]models.Booking, error)
	ConfirmBooking(ctx context.Context, id primitive.ObjectID) error
	CancelBooking(ctx context.Context, id primitive.ObjectID, clientID string) error
	HandlePaymentStatus(ctx context.Context, bookingID string, status string) error
}

type bookingService struct {
	repo     repository.BookingRepository
	tourRepo repository.TourRepository
	redis    *redis.Client
}

func NewBookingService(repo repository.BookingRepository, tourRepo repository.TourRepository, redis *redis.Client) BookingService {
	return &bookingService{repo: repo, tourRepo: tourRepo, redis: redis}
}

// CreateBooking проверяет тур и считает итоговую цену на сервере,
// клиентская цена игнорируется
func (s *bookingService) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if err := booking.Validate(); err != nil {
		return err
	}

	tourID, err := primitive.ObjectIDFromHex(booking.TourID)
	if err != nil {
		return fmt.Errorf("invalid tour ID: %w", err)
	}
	tour, err := s.tourRepo.GetByID(ctx, tourID)
	if err != nil {
		return fmt.Errorf("tour not found: %w", err)
	}
	if !tour.Active {
		return ErrTourNotAvailable
	}
	if booking.Participants > tour.MaxGroupSize {
		return ErrTooManyPeople
	}

	booking.TourDetails = &models.TourSummary{
		Title:        tour.Title,
		City:         tour.City,
		Price:        tour.Price,
		DurationDays: tour.DurationDays,
	}
	booking.TotalPrice = tour.Price * float64(booking.Participants)
	booking.Status = models.StatusPending

	if err := s.repo.Create(ctx, booking); err != nil {
		return err
	}
	s.invalidateClientCache(ctx, booking.ClientID)

	utils.PublishEvent(ctx, s.redis, utils.BookingEventsChannel, utils.EventPayload{
		UserID:    booking.ClientID,
		Role:      "user",
		EventType: string(models.TypeBookingCreated),
		Title:     "Бронирование создано",
		Message:   "Ваше бронирование ожидает подтверждения.",
	})

	return nil
}

func (s *bookingService) GetBookingByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *bookingService) GetBookingsByClient(ctx context.Context, clientID string) ([]models.Booking, error) {
	cacheKey := fmt.Sprintf("bookings_by_client:%s", clientID)

	var cached []models.Booking
	val, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		if jsonErr := unmarshalCached(val, &cached); jsonErr == nil {
			return cached, nil
		}
	}

	bookings, err := s.repo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	setCached(ctx, s.redis, cacheKey, bookings, 5*time.Minute)
	return bookings, nil
}

func (s *bookingService) GetAllBookings(ctx context.Context) ([]models.Booking, error) {
	cacheKey := "all_bookings"

	var cached []models.Booking
	val, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		if jsonErr := unmarshalCached(val, &cached); jsonErr == nil {
			return cached, nil
		}
	}

	bookings, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	setCached(ctx, s.redis, cacheKey, bookings, 5*time.Minute)
	return bookings, nil
}

func (s *bookingService) FilterBookings(ctx context.Context, filter map[string]interface{}) ([]models.Booking, error) {
	mongoFilter := bson.M{}
	for k, v := range filter {
		mongoFilter[k] = v
	}
	return s.repo.Filter(ctx, mongoFilter)
}

func (s *bookingService) ConfirmBooking(ctx context.Context, id primitive.ObjectID) error {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status != models.StatusPending {
		return ErrBookingNotPending
	}
	booking.Status = models.StatusConfirmed

	if err := s.repo.Update(ctx, booking); err != nil {
		return err
	}
	s.invalidateClientCache(ctx, booking.ClientID)

	utils.PublishEvent(ctx, s.redis, utils.BookingEventsChannel, utils.EventPayload{
		UserID:    booking.ClientID,
		Role:      "user",
		EventType: string(models.TypeBookingConfirmed),
		Title:     "Бронирование подтверждено",
		Message:   "Ваше бронирование подтверждено, можно переходить к оплате.",
	})

	return nil
}

func (s *bookingService) CancelBooking(ctx context.Context, id primitive.ObjectID, clientID string) error {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if clientID != "" && booking.ClientID != clientID {
		return errors.New("booking belongs to another client")
	}
	if booking.Status == models.StatusCancelled {
		// уже отменено — ничего не делаем
		return nil
	}
	if booking.Status == models.StatusPaid {
		return errors.New("paid booking cannot be cancelled")
	}
	booking.Status = models.StatusCancelled

	if err := s.repo.Update(ctx, booking); err != nil {
		return err
	}
	s.invalidateClientCache(ctx, booking.ClientID)

	utils.PublishEvent(ctx, s.redis, utils.BookingEventsChannel, utils.EventPayload{
		UserID:    booking.ClientID,
		Role:      "user",
		EventType: string(models.TypeBookingCancelled),
		Title:     "Бронирование отменено",
		Message:   "Ваше бронирование было отменено.",
	})

	return nil
}

func (s *bookingService) HandlePaymentStatus(ctx context.Context, bookingID string, status string) error {
	objID, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		return fmt.Errorf("invalid booking ID: %w", err)
	}

	booking, err := s.repo.GetByID(ctx, objID)
	if err != nil {
		return fmt.Errorf("booking not found: %w", err)
	}

	switch status {
	case "success":
		if booking.Status == models.StatusPaid {
			// уже оплачено — ничего не делаем
			return nil
		}
		booking.Status = models.StatusPaid
	case "failed":
		booking.Status = models.StatusFailed
	default:
		return fmt.Errorf("unknown payment status: %s", status)
	}

	booking.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, booking); err != nil {
		return err
	}
	s.invalidateClientCache(ctx, booking.ClientID)

	notifType := models.TypePaymentSuccess
	title := "Оплата прошла успешно"
	message := "Ваш тур оплачен. Хорошего путешествия!"
	if status == "failed" {
		notifType = models.TypePaymentFailed
		title = "Оплата не прошла"
		message = "Не удалось провести оплату. Попробуйте ещё раз."
	}
	utils.PublishEvent(ctx, s.redis, utils.PaymentEventsChannel, utils.EventPayload{
		UserID:    booking.ClientID,
		Role:      "user",
		EventType: string(notifType),
		Title:     title,
		Message:   message,
	})

	return nil
}

func (s *bookingService) invalidateClientCache(ctx context.Context, clientID string) {
	keys := []string{
		fmt.Sprintf("bookings_by_client:%s", clientID),
		"all_bookings",
		"stats:active_bookings",
		"stats:total_revenue",
	}
	for _, key := range keys {
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			log.Printf("Failed to invalidate cache %s: %v", key, err)
		}
	}
}
