package chat

import (
	"errors"
	"time"
)

type SessionStatus string

const (
	StatusWaiting SessionStatus = "waiting"
	StatusActive  SessionStatus = "active"
	StatusClosed  SessionStatus = "closed"
)

const (
	SenderUser  = "user"
	SenderAgent = "agent"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotWaiting = errors.New("session is not waiting anymore")
	ErrSessionNotActive  = errors.New("session is not active")
	ErrAgentNotJoined    = errors.New("agent has not joined")
)

type Visitor struct {
	ID    string `json:"userId"`
	Name  string `json:"userName"`
	Email string `json:"userEmail"`
}

type Agent struct {
	ID    string `json:"agentId"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Message одна запись в переписке, после создания не меняется
type Message struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	SenderType string    `json:"senderType"` // user | agent
	SenderName string    `json:"senderName"`
	Text       string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

type Session struct {
	ID        string        `json:"id"`
	Visitor   Visitor       `json:"visitor"`
	Agent     *Agent        `json:"agent,omitempty"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	Messages  []Message     `json:"messages"`
}

// snapshot возвращает копию сессии, безопасную для отправки вне мьютекса
func (s *Session) snapshot() Session {
	cp := *s
	if s.Agent != nil {
		agent := *s.Agent
		cp.Agent = &agent
	}
	cp.Messages = make([]Message, len(s.Messages))
	copy(cp.Messages, s.Messages)
	return cp
}
