package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tour-app/internal/models"
	"tour-app/internal/repository"
	"tour-app/internal/utils"
	"tour-app/internal/utils/push"
)

type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
	redis    *redis.Client
	mailer   EmailService
	fcm      *push.FCMClient
}

func NewNotificationService(repo repository.NotificationRepository, userRepo repository.UserRepository, rdb *redis.Client, mailer EmailService, fcm *push.FCMClient) *NotificationService {
	return &NotificationService{
		repo:     repo,
		userRepo: userRepo,
		redis:    rdb,
		mailer:   mailer,
		fcm:      fcm,
	}
}

func (s *NotificationService) GetByUserID(ctx context.Context, userID string, limit, offset int64) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.MarkAsRead(ctx, id)
}

// StartRedisSubscribers запускает подписки на все каналы событий Redis
func (s *NotificationService) StartRedisSubscribers(ctx context.Context) {
	channels := []string{
		utils.BookingEventsChannel,
		utils.PaymentEventsChannel,
		utils.ReviewEventsChannel,
		utils.SupportEventsChannel,
	}
	pubsub := s.redis.Subscribe(ctx, channels...)

	log.Printf("Subscribed to Redis channels: %v", channels)

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := s.ProcessEvent(ctx, msg.Channel, []byte(msg.Payload)); err != nil {
					log.Printf("Failed to process event from %s: %v", msg.Channel, err)
				}
			case <-ctx.Done():
				log.Println("[SHUTDOWN] Stopping Redis subscribers")
				return
			}
		}
	}()
}

// ProcessEvent превращает событие из Redis в уведомление и доставляет его
func (s *NotificationService) ProcessEvent(ctx context.Context, channel string, payload []byte) error {
	var event utils.EventPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	notification := &models.Notification{
		UserID:   event.UserID,
		Role:     event.Role,
		Type:     models.NotificationType(event.EventType),
		Delivery: models.DeliveryPush,
		Title:    event.Title,
		Message:  event.Message,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	log.Printf("Notification saved - Type: %s, User: %s, Title: %s",
		notification.Type, notification.UserID, notification.Title)

	s.deliver(ctx, notification)
	return nil
}

// deliver доставка по доступным каналам: push по device token, письмо по почте.
// Ошибки доставки не эскалируются, уведомление уже сохранено.
func (s *NotificationService) deliver(ctx context.Context, notification *models.Notification) {
	userID, err := primitive.ObjectIDFromHex(notification.UserID)
	if err != nil {
		log.Printf("Invalid user id in notification: %s", notification.UserID)
		return
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("Failed to load user %s for delivery: %v", notification.UserID, err)
		return
	}

	if s.fcm != nil && user.DeviceToken != "" {
		if err := s.fcm.SendPushNotification(ctx, user.DeviceToken, notification.Title, notification.Message); err != nil {
			log.Printf("Failed to send push to %s: %v", notification.UserID, err)
		}
	}

	if s.mailer != nil && user.Email != "" {
		if err := s.mailer.SendMessage(user.Email, notification.Title, notification.Message); err != nil {
			log.Printf("Failed to send email to %s: %v", user.Email, err)
		}
	}
}
