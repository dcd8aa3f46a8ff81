package chat

import "encoding/json"

// Входящие события (клиент → сервер)
const (
	EventStartSession  = "user:start-session"
	EventAgentJoin     = "agent:join"
	EventAcceptSession = "agent:accept-session"
	EventMessageSend   = "message:send"
	EventSessionClose  = "session:close"
	EventTypingStart   = "typing:start"
	EventTypingStop    = "typing:stop"
)

// Исходящие события (сервер → клиент)
const (
	EventWaitingSessions = "waiting-sessions"
	EventNewRequest      = "new-support-request"
	EventStatusChanged   = "session:status-changed"
	EventMessageReceived = "message:received"
	EventSessionClosed   = "session:closed"
	EventAgentStatus     = "agent-status"
	EventError           = "error"
)

// Envelope общий конверт для всех событий по вебсокету
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type AcceptSessionPayload struct {
	SessionID string `json:"sessionId"`
}

type SendMessagePayload struct {
	SessionID  string `json:"sessionId"`
	Message    string `json:"message"`
	SenderType string `json:"senderType"`
	SenderName string `json:"senderName"`
}

type CloseSessionPayload struct {
	SessionID string `json:"sessionId"`
}

type TypingPayload struct {
	SessionID string `json:"sessionId"`
}

type StatusChangedPayload struct {
	SessionID string        `json:"sessionId"`
	Status    SessionStatus `json:"status"`
	AgentName string        `json:"agentName,omitempty"`
	Session   *Session      `json:"session,omitempty"`
}

type SessionClosedPayload struct {
	SessionID string `json:"sessionId"`
}

type AgentStatusPayload struct {
	Type  string `json:"type"` // online | offline
	Agent *Agent `json:"agent,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
