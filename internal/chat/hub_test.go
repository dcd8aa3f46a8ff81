package chat

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordedEvent struct {
	event string
	data  any
}

type fakeConn struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeConn) Send(event string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{event: event, data: data})
	return nil
}

func (f *fakeConn) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.event == event {
			n++
		}
	}
	return n
}

func (f *fakeConn) last(event string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].event == event {
			return f.events[i].data, true
		}
	}
	return nil, false
}

func newTestHub() *Hub {
	return NewHub(nil)
}

func visitorFixture() Visitor {
	return Visitor{ID: "u1", Name: "Иван", Email: "ivan@example.com"}
}

func TestStartSessionBroadcastsToAllAgents(t *testing.T) {
	hub := newTestHub()
	agent1 := &fakeConn{}
	agent2 := &fakeConn{}
	hub.AgentJoin(Agent{ID: "a1", Name: "Agent One"}, agent1)
	hub.AgentJoin(Agent{ID: "a2", Name: "Agent Two"}, agent2)

	visitorConn := &fakeConn{}
	hub.VisitorConnect("u1", visitorConn)
	session := hub.StartSession(visitorFixture())

	if session.Status != StatusWaiting {
		t.Fatalf("new session status = %s, want waiting", session.Status)
	}
	if agent1.count(EventNewRequest) != 1 || agent2.count(EventNewRequest) != 1 {
		t.Errorf("expected every agent to receive exactly one %s", EventNewRequest)
	}
	if visitorConn.count(EventStatusChanged) != 1 {
		t.Errorf("expected visitor to receive %s", EventStatusChanged)
	}
}

func TestStartSessionIsNoopWhileNotClosed(t *testing.T) {
	hub := newTestHub()
	agent := &fakeConn{}
	hub.AgentJoin(Agent{ID: "a1", Name: "Agent"}, agent)
	hub.VisitorConnect("u1", &fakeConn{})

	first := hub.StartSession(visitorFixture())
	second := hub.StartSession(visitorFixture())

	if first.ID != second.ID {
		t.Errorf("second start created a new session: %s != %s", first.ID, second.ID)
	}
	if agent.count(EventNewRequest) != 1 {
		t.Errorf("repeated start must not re-broadcast, got %d broadcasts", agent.count(EventNewRequest))
	}
}

func TestAgentJoinReceivesWaitingList(t *testing.T) {
	hub := newTestHub()
	hub.VisitorConnect("u1", &fakeConn{})
	hub.StartSession(visitorFixture())

	agent := &fakeConn{}
	hub.AgentJoin(Agent{ID: "a1", Name: "Agent"}, agent)

	data, ok := agent.last(EventWaitingSessions)
	if !ok {
		t.Fatalf("agent did not receive %s on join", EventWaitingSessions)
	}
	waiting, ok := data.([]Session)
	if !ok {
		t.Fatalf("unexpected waiting list payload type %T", data)
	}
	if len(waiting) != 1 || waiting[0].Status != StatusWaiting {
		t.Errorf("waiting list = %v, want one waiting session", waiting)
	}
}

func TestAcceptSessionTransitionsAndNotifies(t *testing.T) {
	hub := newTestHub()
	accepting := &fakeConn{}
	other := &fakeConn{}
	hub.AgentJoin(Agent{ID: "a1", Name: "Agent One"}, accepting)
	hub.AgentJoin(Agent{ID: "a2", Name: "Agent Two"}, other)

	visitorConn := &fakeConn{}
	hub.VisitorConnect("u1", visitorConn)
	session := hub.StartSession(visitorFixture())

	if err := hub.AcceptSession("a1", session.ID); err != nil {
		t.Fatalf("AcceptSession: %v", err)
	}

	got, ok := hub.SessionByID(session.ID)
	if !ok || got.Status != StatusActive {
		t.Fatalf("session status = %v, want active", got.Status)
	}
	if got.Agent == nil || got.Agent.ID != "a1" {
		t.Fatalf("session agent = %v, want a1", got.Agent)
	}

	data, ok := visitorConn.last(EventStatusChanged)
	if !ok {
		t.Fatal("visitor did not receive status change")
	}
	payload := data.(StatusChangedPayload)
	if payload.Status != StatusActive || payload.AgentName != "Agent One" {
		t.Errorf("visitor payload = %+v, want active/Agent One", payload)
	}

	// Остальные агенты должны убрать сессию из списка ожидания
	otherData, ok := other.last(EventStatusChanged)
	if !ok {
		t.Fatal("other agent did not receive status change")
	}
	if otherData.(StatusChangedPayload).SessionID != session.ID {
		t.Errorf("other agent got wrong session id")
	}
}

func TestAcceptRejectedWhenNotWaiting(t *testing.T) {
	hub := newTestHub()
	hub.AgentJoin(Agent{ID: "a1", Name: "One"}, &fakeConn{})
	hub.AgentJoin(Agent{ID: "a2", Name: "Two"}, &fakeConn{})
	hub.VisitorConnect("u1", &fakeConn{})
	session := hub.StartSession(visitorFixture())

	if err := hub.AcceptSession("a1", session.ID); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if err := hub.AcceptSession("a2", session.ID); err != ErrSessionNotWaiting {
		t.Fatalf("second accept error = %v, want ErrSessionNotWaiting", err)
	}

	got, _ := hub.SessionByID(session.ID)
	if got.Agent.ID != "a1" {
		t.Errorf("losing accept must not rebind agent, got %s", got.Agent.ID)
	}

	hub.CloseSession(session.ID)
	if err := hub.AcceptSession("a2", session.ID); err != ErrSessionNotWaiting {
		t.Errorf("accept on closed session error = %v, want ErrSessionNotWaiting", err)
	}
}

func TestAcceptRaceExactlyOneWinner(t *testing.T) {
	hub := newTestHub()
	for _, id := range []string{"a1", "a2", "a3", "a4"} {
		hub.AgentJoin(Agent{ID: id, Name: id}, &fakeConn{})
	}
	hub.VisitorConnect("u1", &fakeConn{})
	session := hub.StartSession(visitorFixture())

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for _, id := range []string{"a1", "a2", "a3", "a4"} {
		wg.Add(1)
		go func(agentID string) {
			defer wg.Done()
			if err := hub.AcceptSession(agentID, session.ID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("concurrent accepts: %d winners, want exactly 1", wins)
	}
	got, _ := hub.SessionByID(session.ID)
	if got.Status != StatusActive || got.Agent == nil {
		t.Errorf("session after race = %+v, want active with bound agent", got)
	}
}

func TestSendMessageRejectedUnlessActive(t *testing.T) {
	hub := newTestHub()
	hub.AgentJoin(Agent{ID: "a1", Name: "Agent"}, &fakeConn{})
	hub.VisitorConnect("u1", &fakeConn{})
	session := hub.StartSession(visitorFixture())

	if _, err := hub.SendMessage(session.ID, SenderUser, "Иван", "hello?"); err != ErrSessionNotActive {
		t.Fatalf("send on waiting error = %v, want ErrSessionNotActive", err)
	}
	got, _ := hub.SessionByID(session.ID)
	if len(got.Messages) != 0 {
		t.Fatalf("rejected message was appended")
	}

	hub.AcceptSession("a1", session.ID)
	if _, err := hub.SendMessage(session.ID, SenderUser, "Иван", "hello"); err != nil {
		t.Fatalf("send on active: %v", err)
	}

	hub.CloseSession(session.ID)
	if _, err := hub.SendMessage(session.ID, SenderAgent, "Agent", "late"); err != ErrSessionNotActive {
		t.Fatalf("send on closed error = %v, want ErrSessionNotActive", err)
	}
	got, _ = hub.SessionByID(session.ID)
	if len(got.Messages) != 1 {
		t.Errorf("transcript length = %d, want 1", len(got.Messages))
	}
}

func TestMessagesRelayedToCounterpartInOrder(t *testing.T) {
	hub := newTestHub()
	agentConn := &fakeConn{}
	visitorConn := &fakeConn{}
	hub.AgentJoin(Agent{ID: "a1", Name: "Agent"}, agentConn)
	hub.VisitorConnect("u1", visitorConn)
	session := hub.StartSession(visitorFixture())
	hub.AcceptSession("a1", session.ID)

	texts := []string{"first", "second", "third"}
	for _, text := range texts {
		if _, err := hub.SendMessage(session.ID, SenderUser, "Иван", text); err != nil {
			t.Fatalf("SendMessage(%s): %v", text, err)
		}
	}
	if _, err := hub.SendMessage(session.ID, SenderAgent, "Agent", "reply"); err != nil {
		t.Fatalf("agent reply: %v", err)
	}

	if agentConn.count(EventMessageReceived) != 3 {
		t.Errorf("agent received %d messages, want 3", agentConn.count(EventMessageReceived))
	}
	if visitorConn.count(EventMessageReceived) != 1 {
		t.Errorf("visitor received %d messages, want 1", visitorConn.count(EventMessageReceived))
	}

	got, _ := hub.SessionByID(session.ID)
	if len(got.Messages) != 4 {
		t.Fatalf("transcript length = %d, want 4", len(got.Messages))
	}
	for i, text := range texts {
		if got.Messages[i].Text != text {
			t.Errorf("transcript[%d] = %q, want %q", i, got.Messages[i].Text, text)
		}
	}
}

func TestCloseSessionIdempotent(t *testing.T) {
	hub := newTestHub()
	agentConn := &fakeConn{}
	visitorConn := &fakeConn{}
	hub.AgentJoin(Agent{ID: "a1", Name: "Agent"}, agentConn)
	hub.VisitorConnect("u1", visitorConn)
	session := hub.StartSession(visitorFixture())
	hub.AcceptSession("a1", session.ID)

	if err := hub.CloseSession(session.ID); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if err := hub.CloseSession(session.ID); err != nil {
		t.Fatalf("repeated CloseSession: %v", err)
	}

	if visitorConn.count(EventSessionClosed) != 1 {
		t.Errorf("visitor got %d closed events, want 1", visitorConn.count(EventSessionClosed))
	}
	if agentConn.count(EventSessionClosed) != 1 {
		t.Errorf("agent got %d closed events, want 1", agentConn.count(EventSessionClosed))
	}
}

func TestCloseWaitingSessionNotifiesAgents(t *testing.T) {
	hub := newTestHub()
	agentConn := &fakeConn{}
	hub.AgentJoin(Agent{ID: "a1", Name: "Agent"}, agentConn)
	hub.VisitorConnect("u1", &fakeConn{})
	session := hub.StartSession(visitorFixture())

	if err := hub.CloseSession(session.ID); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if agentConn.count(EventSessionClosed) != 1 {
		t.Errorf("agent got %d closed events for waiting session, want 1", agentConn.count(EventSessionClosed))
	}

	got, _ := hub.SessionByID(session.ID)
	if got.Status != StatusClosed {
		t.Errorf("session status = %s, want closed", got.Status)
	}
}

func TestAgentDisconnectIsSilentForVisitor(t *testing.T) {
	hub := newTestHub()
	visitorConn := &fakeConn{}
	hub.AgentJoin(Agent{ID: "a1", Name: "Agent"}, &fakeConn{})
	hub.VisitorConnect("u1", visitorConn)
	session := hub.StartSession(visitorFixture())
	hub.AcceptSession("a1", session.ID)

	before := len(visitorConn.events)
	hub.AgentLeave("a1")

	visitorConn.mu.Lock()
	after := len(visitorConn.events)
	visitorConn.mu.Unlock()
	if after != before {
		t.Errorf("visitor received %d events on agent disconnect, want 0", after-before)
	}

	got, _ := hub.SessionByID(session.ID)
	if got.Status != StatusActive {
		t.Errorf("session status after agent disconnect = %s, want active", got.Status)
	}
}

func TestAgentStatusBroadcasts(t *testing.T) {
	hub := newTestHub()
	first := &fakeConn{}
	hub.AgentJoin(Agent{ID: "a1", Name: "One"}, first)
	hub.AgentJoin(Agent{ID: "a2", Name: "Two"}, &fakeConn{})

	data, ok := first.last(EventAgentStatus)
	if !ok {
		t.Fatal("first agent did not learn about the second one")
	}
	payload := data.(AgentStatusPayload)
	if payload.Type != "online" || payload.Agent == nil || payload.Agent.ID != "a2" {
		t.Errorf("online payload = %+v", payload)
	}

	hub.AgentLeave("a2")
	data, _ = first.last(EventAgentStatus)
	payload = data.(AgentStatusPayload)
	if payload.Type != "offline" || payload.Agent.ID != "a2" {
		t.Errorf("offline payload = %+v", payload)
	}
}

func TestTypingRelayedOnlyWhileActive(t *testing.T) {
	hub := newTestHub()
	agentConn := &fakeConn{}
	hub.AgentJoin(Agent{ID: "a1", Name: "Agent"}, agentConn)
	hub.VisitorConnect("u1", &fakeConn{})
	session := hub.StartSession(visitorFixture())

	hub.Typing(session.ID, SenderUser, EventTypingStart)
	if agentConn.count(EventTypingStart) != 0 {
		t.Error("typing relayed for waiting session")
	}

	hub.AcceptSession("a1", session.ID)
	hub.Typing(session.ID, SenderUser, EventTypingStart)
	hub.Typing(session.ID, SenderUser, EventTypingStop)
	if agentConn.count(EventTypingStart) != 1 || agentConn.count(EventTypingStop) != 1 {
		t.Error("typing signals not relayed for active session")
	}

	got, _ := hub.SessionByID(session.ID)
	if len(got.Messages) != 0 {
		t.Error("typing signal must not be stored in transcript")
	}
}

type fakeArchiver struct {
	archived chan Session
}

func (f *fakeArchiver) ArchiveSession(ctx context.Context, session Session) error {
	f.archived <- session
	return nil
}

func TestCloseSessionArchivesTranscript(t *testing.T) {
	archiver := &fakeArchiver{archived: make(chan Session, 1)}
	hub := NewHub(archiver)
	hub.AgentJoin(Agent{ID: "a1", Name: "Agent"}, &fakeConn{})
	hub.VisitorConnect("u1", &fakeConn{})
	session := hub.StartSession(visitorFixture())
	hub.AcceptSession("a1", session.ID)
	hub.SendMessage(session.ID, SenderUser, "Иван", "hello")

	hub.CloseSession(session.ID)

	select {
	case archived := <-archiver.archived:
		if archived.ID != session.ID || len(archived.Messages) != 1 {
			t.Errorf("archived = %+v, want session with one message", archived)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session was not archived after close")
	}
}
