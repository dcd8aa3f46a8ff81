package services

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"

	"tour-app/internal/models"
	"tour-app/internal/repository"
	"tour-app/internal/utils"
)

type CronJobService struct {
	bookingRepo repository.BookingRepository
	redis       *redis.Client
}

func NewCronJobService(repo repository.BookingRepository, rdb *redis.Client) *CronJobService {
	return &CronJobService{
		bookingRepo: repo,
		redis:       rdb,
	}
}

func (s *CronJobService) Start(ctx context.Context) {
	go s.startReminderJob(ctx)
	go s.startReviewRequestJob(ctx)
}

func (s *CronJobService) startReminderJob(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Hour)
	for {
		select {
		case <-ticker.C:
			s.sendTourReminders(ctx)
		case <-ctx.Done():
			log.Println("[CRON] Stopping reminder job")
			ticker.Stop()
			return
		}
	}
}

func (s *CronJobService) startReviewRequestJob(ctx context.Context) {
	ticker := time.NewTicker(6 * time.Hour)
	for {
		select {
		case <-ticker.C:
			s.sendReviewRequests(ctx)
		case <-ctx.Done():
			log.Println("[CRON] Stopping review request job")
			ticker.Stop()
			return
		}
	}
}

// sendTourReminders напоминание за сутки до начала оплаченного тура
func (s *CronJobService) sendTourReminders(ctx context.Context) {
	from := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	to := from.Add(time.Hour)

	bookings, err := s.bookingRepo.Filter(ctx, bson.M{
		"date": bson.M{
			"$gte": from,
			"$lt":  to,
		},
		"status": models.StatusPaid,
	})
	if err != nil {
		log.Println("Failed to fetch upcoming bookings:", err)
		return
	}

	for _, booking := range bookings {
		utils.PublishEvent(ctx, s.redis, utils.BookingEventsChannel, utils.EventPayload{
			UserID:    booking.ClientID,
			Role:      "user",
			EventType: string(models.TypeTourReminder),
			Title:     "Завтра начало тура",
			Message:   "Напоминаем: завтра в " + booking.Date.Format("15:04") + " начинается ваш тур.",
		})
	}
}

// sendReviewRequests просьба оценить тур после его окончания
func (s *CronJobService) sendReviewRequests(ctx context.Context) {
	to := time.Now().Truncate(time.Hour)
	from := to.Add(-6 * time.Hour)

	bookings, err := s.bookingRepo.Filter(ctx, bson.M{
		"status": models.StatusPaid,
		"date": bson.M{
			"$gte": from.Add(-24 * time.Hour),
			"$lt":  to.Add(-24 * time.Hour),
		},
	})
	if err != nil {
		log.Println("Failed to fetch finished bookings:", err)
		return
	}

	for _, booking := range bookings {
		utils.PublishEvent(ctx, s.redis, utils.ReviewEventsChannel, utils.EventPayload{
			UserID:    booking.ClientID,
			Role:      "user",
			EventType: string(models.TypeReviewRequest),
			Title:     "Как вам тур?",
			Message:   "Оцените поездку. Нам важно ваше мнение!",
		})
	}
}
