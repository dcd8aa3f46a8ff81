package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tour-app/internal/chat"
)

// ChatArchiveRepository хранит стенограммы закрытых сессий поддержки.
// Живые сессии живут только в памяти хаба; сюда попадает финальный слепок.
type ChatArchiveRepository struct {
	collection *mongo.Collection
}

func NewChatArchiveRepository(db *mongo.Database) *ChatArchiveRepository {
	return &ChatArchiveRepository{collection: db.Collection("support_archive")}
}

type archivedSession struct {
	SessionID  string         `bson:"session_id"`
	Visitor    chat.Visitor   `bson:"visitor"`
	Agent      *chat.Agent    `bson:"agent,omitempty"`
	Messages   []chat.Message `bson:"messages"`
	StartedAt  time.Time      `bson:"started_at"`
	ArchivedAt time.Time      `bson:"archived_at"`
}

func (r *ChatArchiveRepository) ArchiveSession(ctx context.Context, session chat.Session) error {
	doc := archivedSession{
		SessionID:  session.ID,
		Visitor:    session.Visitor,
		Agent:      session.Agent,
		Messages:   session.Messages,
		StartedAt:  session.CreatedAt,
		ArchivedAt: time.Now(),
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

func (r *ChatArchiveRepository) GetByVisitorID(ctx context.Context, visitorID string) ([]chat.Session, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"visitor.id": visitorID})
	if err != nil {
		return nil, err
	}
	var docs []archivedSession
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	sessions := make([]chat.Session, 0, len(docs))
	for _, d := range docs {
		sessions = append(sessions, chat.Session{
			ID:        d.SessionID,
			Visitor:   d.Visitor,
			Agent:     d.Agent,
			Status:    chat.StatusClosed,
			CreatedAt: d.StartedAt,
			Messages:  d.Messages,
		})
	}
	return sessions, nil
}
