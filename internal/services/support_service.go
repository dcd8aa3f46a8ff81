package services

import (
	"context"

	"github.com/redis/go-redis/v9"

	"tour-app/internal/chat"
	"tour-app/internal/models"
	"tour-app/internal/repository"
	"tour-app/internal/utils"
)

// SupportArchive сохраняет стенограмму закрытой сессии поддержки
// и уведомляет посетителя о закрытии обращения
type SupportArchive struct {
	repo  *repository.ChatArchiveRepository
	redis *redis.Client
}

func NewSupportArchive(repo *repository.ChatArchiveRepository, rdb *redis.Client) *SupportArchive {
	return &SupportArchive{repo: repo, redis: rdb}
}

func (s *SupportArchive) ArchiveSession(ctx context.Context, session chat.Session) error {
	if err := s.repo.ArchiveSession(ctx, session); err != nil {
		return err
	}

	// Пустые сессии (закрыты до первого сообщения) уведомления не заслуживают
	if len(session.Messages) > 0 {
		utils.PublishEvent(ctx, s.redis, utils.SupportEventsChannel, utils.EventPayload{
			UserID:    session.Visitor.ID,
			Role:      "user",
			EventType: string(models.TypeSupportClosed),
			Title:     "Обращение в поддержку закрыто",
			Message:   "Диалог с поддержкой завершён. История переписки сохранена.",
		})
	}
	return nil
}

func (s *SupportArchive) GetHistory(ctx context.Context, visitorID string) ([]chat.Session, error) {
	return s.repo.GetByVisitorID(ctx, visitorID)
}
