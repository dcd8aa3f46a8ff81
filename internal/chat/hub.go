package chat

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sender абстракция над соединением, чтобы хаб можно было тестировать без вебсокетов
type Sender interface {
	Send(event string, data any) error
}

// Archiver сохраняет стенограмму закрытой сессии в долговременное хранилище
type Archiver interface {
	ArchiveSession(ctx context.Context, session Session) error
}

type agentPresence struct {
	agent Agent
	conn  Sender
}

// Hub единственный владелец реестра сессий и реестра агентов.
// Все мутации сериализуются одним мьютексом: гонка двух accept
// разрешается тем, кто первым взял блокировку, второй получает отказ.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Session
	agents   map[string]*agentPresence
	visitors map[string]Sender
	archive  Archiver
}

func NewHub(archive Archiver) *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		agents:   make(map[string]*agentPresence),
		visitors: make(map[string]Sender),
		archive:  archive,
	}
}

// delivery отложенная отправка: собирается под мьютексом, уходит после разблокировки
type delivery struct {
	conn  Sender
	event string
	data  any
}

func dispatch(deliveries []delivery) {
	for _, d := range deliveries {
		if d.conn == nil {
			continue
		}
		if err := d.conn.Send(d.event, d.data); err != nil {
			// Доставка без повторов: получатель отвалился — событие теряется
			log.Printf("[CHAT] failed to deliver %s: %v", d.event, err)
		}
	}
}

// VisitorConnect регистрирует соединение посетителя
func (h *Hub) VisitorConnect(visitorID string, conn Sender) {
	h.mu.Lock()
	h.visitors[visitorID] = conn
	h.mu.Unlock()
}

func (h *Hub) VisitorDisconnect(visitorID string) {
	h.mu.Lock()
	delete(h.visitors, visitorID)
	h.mu.Unlock()
}

// AgentJoin добавляет присутствие агента, отдаёт ему текущий список ожидающих
// сессий и сообщает остальным агентам, что он онлайн
func (h *Hub) AgentJoin(agent Agent, conn Sender) {
	h.mu.Lock()
	h.agents[agent.ID] = &agentPresence{agent: agent, conn: conn}

	waiting := h.waitingSnapshotLocked()
	deliveries := []delivery{{conn: conn, event: EventWaitingSessions, data: waiting}}

	agentCopy := agent
	for id, p := range h.agents {
		if id == agent.ID {
			continue
		}
		deliveries = append(deliveries, delivery{
			conn:  p.conn,
			event: EventAgentStatus,
			data:  AgentStatusPayload{Type: "online", Agent: &agentCopy},
		})
	}
	h.mu.Unlock()

	dispatch(deliveries)
}

// AgentLeave убирает присутствие немедленно. Посетителю активной сессии
// ничего не отправляется — известное ограничение, сессия остаётся как есть.
func (h *Hub) AgentLeave(agentID string) {
	h.mu.Lock()
	p, ok := h.agents[agentID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.agents, agentID)

	agentCopy := p.agent
	var deliveries []delivery
	for _, other := range h.agents {
		deliveries = append(deliveries, delivery{
			conn:  other.conn,
			event: EventAgentStatus,
			data:  AgentStatusPayload{Type: "offline", Agent: &agentCopy},
		})
	}
	h.mu.Unlock()

	dispatch(deliveries)
}

// StartSession создаёт сессию в статусе waiting и рассылает её всем агентам.
// Если у посетителя уже есть незакрытая сессия — возвращаем её без рассылки.
func (h *Hub) StartSession(visitor Visitor) Session {
	h.mu.Lock()
	for _, s := range h.sessions {
		if s.Visitor.ID == visitor.ID && s.Status != StatusClosed {
			snap := s.snapshot()
			conn := h.visitors[visitor.ID]
			h.mu.Unlock()
			dispatch([]delivery{{
				conn:  conn,
				event: EventStatusChanged,
				data:  StatusChangedPayload{SessionID: snap.ID, Status: snap.Status, Session: &snap},
			}})
			return snap
		}
	}

	session := &Session{
		ID:        uuid.NewString(),
		Visitor:   visitor,
		Status:    StatusWaiting,
		CreatedAt: time.Now(),
	}
	h.sessions[session.ID] = session
	snap := session.snapshot()

	deliveries := []delivery{{
		conn:  h.visitors[visitor.ID],
		event: EventStatusChanged,
		data:  StatusChangedPayload{SessionID: snap.ID, Status: StatusWaiting, Session: &snap},
	}}
	for _, p := range h.agents {
		deliveries = append(deliveries, delivery{conn: p.conn, event: EventNewRequest, data: snap})
	}
	h.mu.Unlock()

	dispatch(deliveries)
	return snap
}

// AcceptSession привязывает агента к ожидающей сессии. Принять можно только
// waiting-сессию: проигравший гонку получает ErrSessionNotWaiting, состояние
// не меняется.
func (h *Hub) AcceptSession(agentID, sessionID string) error {
	h.mu.Lock()
	p, ok := h.agents[agentID]
	if !ok {
		h.mu.Unlock()
		return ErrAgentNotJoined
	}
	session, ok := h.sessions[sessionID]
	if !ok {
		h.mu.Unlock()
		return ErrSessionNotFound
	}
	if session.Status != StatusWaiting {
		h.mu.Unlock()
		return ErrSessionNotWaiting
	}

	agent := p.agent
	session.Agent = &agent
	session.Status = StatusActive
	snap := session.snapshot()

	deliveries := []delivery{{
		conn:  h.visitors[session.Visitor.ID],
		event: EventStatusChanged,
		data:  StatusChangedPayload{SessionID: sessionID, Status: StatusActive, AgentName: agent.Name},
	}}
	// Всем агентам, чтобы убрать сессию из списков ожидания; принявшему — с полной сессией
	for id, other := range h.agents {
		payload := StatusChangedPayload{SessionID: sessionID, Status: StatusActive, AgentName: agent.Name}
		if id == agentID {
			payload.Session = &snap
		}
		deliveries = append(deliveries, delivery{conn: other.conn, event: EventStatusChanged, data: payload})
	}
	h.mu.Unlock()

	dispatch(deliveries)
	return nil
}

// SendMessage дописывает сообщение в стенограмму активной сессии и передаёт
// его противоположной стороне
func (h *Hub) SendMessage(sessionID, senderType, senderName, text string) (Message, error) {
	h.mu.Lock()
	session, ok := h.sessions[sessionID]
	if !ok {
		h.mu.Unlock()
		return Message{}, ErrSessionNotFound
	}
	if session.Status != StatusActive {
		h.mu.Unlock()
		return Message{}, ErrSessionNotActive
	}

	msg := Message{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		SenderType: senderType,
		SenderName: senderName,
		Text:       text,
		Timestamp:  time.Now(),
	}
	session.Messages = append(session.Messages, msg)

	var counterpart Sender
	if senderType == SenderUser {
		if session.Agent != nil {
			if p, ok := h.agents[session.Agent.ID]; ok {
				counterpart = p.conn
			}
		}
	} else {
		counterpart = h.visitors[session.Visitor.ID]
	}
	h.mu.Unlock()

	dispatch([]delivery{{conn: counterpart, event: EventMessageReceived, data: msg}})
	return msg, nil
}

// CloseSession переводит waiting или active сессию в closed и рассылает
// закрытие обеим сторонам. Повторное закрытие — no-op без рассылки.
func (h *Hub) CloseSession(sessionID string) error {
	h.mu.Lock()
	session, ok := h.sessions[sessionID]
	if !ok {
		h.mu.Unlock()
		return ErrSessionNotFound
	}
	if session.Status == StatusClosed {
		h.mu.Unlock()
		return nil
	}

	wasWaiting := session.Status == StatusWaiting
	session.Status = StatusClosed
	snap := session.snapshot()

	payload := SessionClosedPayload{SessionID: sessionID}
	deliveries := []delivery{{conn: h.visitors[session.Visitor.ID], event: EventSessionClosed, data: payload}}
	if session.Agent != nil {
		if p, ok := h.agents[session.Agent.ID]; ok {
			deliveries = append(deliveries, delivery{conn: p.conn, event: EventSessionClosed, data: payload})
		}
	}
	if wasWaiting {
		// Сессию так никто и не принял — убираем её из списков ожидания у всех агентов
		for _, p := range h.agents {
			deliveries = append(deliveries, delivery{conn: p.conn, event: EventSessionClosed, data: payload})
		}
	}
	h.mu.Unlock()

	dispatch(deliveries)

	if h.archive != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.archive.ArchiveSession(ctx, snap); err != nil {
				log.Printf("[CHAT] failed to archive session %s: %v", snap.ID, err)
			}
		}()
	}
	return nil
}

// Typing транзитный сигнал: не хранится, передаётся только пока сессия активна
func (h *Hub) Typing(sessionID, senderType, event string) {
	h.mu.Lock()
	session, ok := h.sessions[sessionID]
	if !ok || session.Status != StatusActive {
		h.mu.Unlock()
		return
	}

	var counterpart Sender
	if senderType == SenderUser {
		if session.Agent != nil {
			if p, ok := h.agents[session.Agent.ID]; ok {
				counterpart = p.conn
			}
		}
	} else {
		counterpart = h.visitors[session.Visitor.ID]
	}
	h.mu.Unlock()

	dispatch([]delivery{{conn: counterpart, event: event, data: TypingPayload{SessionID: sessionID}}})
}

// SessionByID возвращает копию сессии
func (h *Hub) SessionByID(id string) (Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	if !ok {
		return Session{}, false
	}
	return s.snapshot(), true
}

// WaitingSessions возвращает копии всех ожидающих сессий
func (h *Hub) WaitingSessions() []Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.waitingSnapshotLocked()
}

func (h *Hub) waitingSnapshotLocked() []Session {
	waiting := make([]Session, 0)
	for _, s := range h.sessions {
		if s.Status == StatusWaiting {
			waiting = append(waiting, s.snapshot())
		}
	}
	return waiting
}

// OnlineAgents количество подключённых агентов
func (h *Hub) OnlineAgents() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.agents)
}
