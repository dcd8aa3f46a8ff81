package chat

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// Conn обёртка над websocket-соединением: один writer на соединение
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

func (c *Conn) Send(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(Envelope{Event: event, Data: raw})
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

func (c *Conn) sendError(msg string) {
	if err := c.Send(EventError, ErrorPayload{Message: msg}); err != nil {
		log.Printf("[CHAT] failed to send error event: %v", err)
	}
}

// ServeVisitor читает события посетителя до разрыва соединения.
// Личность берётся из аутентифицированного контекста, а не из payload.
func ServeVisitor(hub *Hub, conn *Conn, visitor Visitor) {
	hub.VisitorConnect(visitor.ID, conn)
	defer hub.VisitorDisconnect(visitor.ID)

	conn.ws.SetReadLimit(maxMessageSize)

	for {
		var env Envelope
		if err := conn.ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[CHAT] visitor %s connection error: %v", visitor.ID, err)
			}
			return
		}

		switch env.Event {
		case EventStartSession:
			// Payload может нести имя/почту, но идентификатор всегда из токена
			var claimed Visitor
			_ = json.Unmarshal(env.Data, &claimed)
			if claimed.Name != "" {
				visitor.Name = claimed.Name
			}
			if claimed.Email != "" {
				visitor.Email = claimed.Email
			}
			hub.StartSession(visitor)

		case EventMessageSend:
			var p SendMessagePayload
			if err := json.Unmarshal(env.Data, &p); err != nil {
				conn.sendError("invalid payload")
				continue
			}
			name := p.SenderName
			if name == "" {
				name = visitor.Name
			}
			if _, err := hub.SendMessage(p.SessionID, SenderUser, name, p.Message); err != nil {
				conn.sendError(err.Error())
			}

		case EventSessionClose:
			var p CloseSessionPayload
			if err := json.Unmarshal(env.Data, &p); err != nil {
				conn.sendError("invalid payload")
				continue
			}
			if err := hub.CloseSession(p.SessionID); err != nil {
				conn.sendError(err.Error())
			}

		case EventTypingStart, EventTypingStop:
			var p TypingPayload
			if err := json.Unmarshal(env.Data, &p); err != nil {
				continue
			}
			hub.Typing(p.SessionID, SenderUser, env.Event)

		default:
			conn.sendError("unknown event: " + env.Event)
		}
	}
}

// ServeAgent читает события агента. До agent:join принимается только join.
func ServeAgent(hub *Hub, conn *Conn, agent Agent) {
	joined := false
	defer func() {
		if joined {
			hub.AgentLeave(agent.ID)
		}
	}()

	conn.ws.SetReadLimit(maxMessageSize)

	for {
		var env Envelope
		if err := conn.ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[CHAT] agent %s connection error: %v", agent.ID, err)
			}
			return
		}

		switch env.Event {
		case EventAgentJoin:
			var claimed Agent
			_ = json.Unmarshal(env.Data, &claimed)
			if claimed.Name != "" {
				agent.Name = claimed.Name
			}
			if claimed.Email != "" {
				agent.Email = claimed.Email
			}
			hub.AgentJoin(agent, conn)
			joined = true

		case EventAcceptSession:
			if !joined {
				conn.sendError(ErrAgentNotJoined.Error())
				continue
			}
			var p AcceptSessionPayload
			if err := json.Unmarshal(env.Data, &p); err != nil {
				conn.sendError("invalid payload")
				continue
			}
			if err := hub.AcceptSession(agent.ID, p.SessionID); err != nil {
				if errors.Is(err, ErrSessionNotWaiting) {
					conn.sendError("session no longer available")
				} else {
					conn.sendError(err.Error())
				}
			}

		case EventMessageSend:
			var p SendMessagePayload
			if err := json.Unmarshal(env.Data, &p); err != nil {
				conn.sendError("invalid payload")
				continue
			}
			name := p.SenderName
			if name == "" {
				name = agent.Name
			}
			if _, err := hub.SendMessage(p.SessionID, SenderAgent, name, p.Message); err != nil {
				conn.sendError(err.Error())
			}

		case EventSessionClose:
			var p CloseSessionPayload
			if err := json.Unmarshal(env.Data, &p); err != nil {
				conn.sendError("invalid payload")
				continue
			}
			if err := hub.CloseSession(p.SessionID); err != nil {
				conn.sendError(err.Error())
			}

		case EventTypingStart, EventTypingStop:
			var p TypingPayload
			if err := json.Unmarshal(env.Data, &p); err != nil {
				continue
			}
			hub.Typing(p.SessionID, SenderAgent, env.Event)

		default:
			conn.sendError("unknown event: " + env.Event)
		}
	}
}
