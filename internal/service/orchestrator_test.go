package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/biz/usecase"
	"github.com/DevRickLin/matchmate/internal/bus"
	"github.com/DevRickLin/matchmate/internal/data"
	"github.com/DevRickLin/matchmate/internal/dom"
	"github.com/DevRickLin/matchmate/internal/observer"
)

// Mock implementations

type mockGenerationRepo struct {
	mu      sync.Mutex
	replies map[string]string // prompt substring -> reply
	calls   int
	delay   time.Duration
}

func (m *mockGenerationRepo) Generate(ctx context.Context, apiKey, prompt string) string {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for key, reply := range m.replies {
		if strings.Contains(prompt, key) {
			return reply
		}
	}
	return ""
}

func (m *mockGenerationRepo) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockCalendarRepo struct {
	mu     sync.Mutex
	events []domain.CalendarEvent
	active int
	peak   int
	delay  time.Duration
}

func (m *mockCalendarRepo) Book(ctx context.Context, clientID string, event domain.CalendarEvent) error {
	m.mu.Lock()
	m.active++
	if m.active > m.peak {
		m.peak = m.active
	}
	m.mu.Unlock()

	time.Sleep(m.delay)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.active--
	m.events = append(m.events, event)
	return nil
}

type mockNotifier struct{}

func (mockNotifier) Notify(ctx context.Context, title, message string) error { return nil }

type mockCredentialsRepo struct {
	creds domain.Credentials
	err   error
	loads int
}

func (m *mockCredentialsRepo) Load(ctx context.Context) (domain.Credentials, error) {
	m.loads++
	return m.creds, m.err
}

func (m *mockCredentialsRepo) Save(ctx context.Context, creds domain.Credentials) error {
	m.creds = creds
	return nil
}

var validCreds = domain.Credentials{GenerationAPIKey: "k", CalendarClientID: "client"}

func newTestOrchestrator(gen *mockGenerationRepo, cal *mockCalendarRepo, creds *mockCredentialsRepo) (*Orchestrator, *bus.Hub[domain.SendGreetingCommand]) {
	hub := bus.NewHub[domain.SendGreetingCommand](8)
	o := NewOrchestrator(
		usecase.NewGreetingUsecase(gen, usecase.DefaultPromptConfig),
		usecase.NewDateCheckUsecase(gen, cal, mockNotifier{}, usecase.DefaultPromptConfig),
		creds,
		hub,
	)
	return o, hub
}

func receiveCommand(t *testing.T, sub *bus.Subscription[domain.SendGreetingCommand]) domain.SendGreetingCommand {
	t.Helper()
	select {
	case cmd := <-sub.Receive():
		return cmd
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for command")
		return domain.SendGreetingCommand{}
	}
}

func expectNoCommand(t *testing.T, sub *bus.Subscription[domain.SendGreetingCommand], wait time.Duration) {
	t.Helper()
	select {
	case cmd := <-sub.Receive():
		t.Errorf("Expected no command, got %+v", cmd)
	case <-time.After(wait):
	}
}

func TestHandleNewMatchBroadcastsGreeting(t *testing.T) {
	gen := &mockGenerationRepo{replies: map[string]string{"named Alex": "Hey Alex!"}}
	o, hub := newTestOrchestrator(gen, &mockCalendarRepo{}, &mockCredentialsRepo{creds: validCreds})
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	a, b := hub.Subscribe("view-1"), hub.Subscribe("view-2")

	o.HandleEvent(context.Background(), domain.NewMatchEvent("view-1", "m1", "Alex"))

	for _, sub := range []*bus.Subscription[domain.SendGreetingCommand]{a, b} {
		cmd := receiveCommand(t, sub)
		if cmd.MatchID != "m1" || cmd.Greeting != "Hey Alex!" {
			t.Errorf("Unexpected command %+v", cmd)
		}
		if cmd.ID == "" {
			t.Error("Expected correlation id")
		}
	}
}

func TestHandleNewMatchWithoutCredentials(t *testing.T) {
	gen := &mockGenerationRepo{replies: map[string]string{"": "Hey!"}}
	o, hub := newTestOrchestrator(gen, &mockCalendarRepo{}, &mockCredentialsRepo{})
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	sub := hub.Subscribe("view-1")

	o.HandleEvent(context.Background(), domain.NewMatchEvent("view-1", "m1", "Alex"))

	expectNoCommand(t, sub, 20*time.Millisecond)
	if gen.callCount() != 0 {
		t.Error("Expected no generation call without a key")
	}
}

func TestHandleNewMatchEmptyGreeting(t *testing.T) {
	o, hub := newTestOrchestrator(&mockGenerationRepo{}, &mockCalendarRepo{}, &mockCredentialsRepo{creds: validCreds})
	o.Start(context.Background())
	sub := hub.Subscribe("view-1")

	o.HandleEvent(context.Background(), domain.NewMatchEvent("view-1", "m1", "Alex"))
	expectNoCommand(t, sub, 20*time.Millisecond)
}

func TestHandleIncomingMessageBooksDate(t *testing.T) {
	gen := &mockGenerationRepo{replies: map[string]string{
		"Conversation:": `{"date":"2024-05-01","time":"19:30","location":"Cafe"}`,
	}}
	cal := &mockCalendarRepo{}
	o, _ := newTestOrchestrator(gen, cal, &mockCredentialsRepo{creds: validCreds})
	o.Start(context.Background())

	o.HandleEvent(context.Background(), domain.IncomingMessageEvent("view-1", "c1", "see you friday"))

	if len(cal.events) != 1 {
		t.Fatalf("Expected 1 booking, got %d", len(cal.events))
	}
	if cal.events[0].Description != "Auto-added date for match c1." {
		t.Errorf("Unexpected description %q", cal.events[0].Description)
	}
}

func TestHandleIncomingMessageUnparseable(t *testing.T) {
	gen := &mockGenerationRepo{replies: map[string]string{"Conversation:": "Sure! They agreed."}}
	cal := &mockCalendarRepo{}
	o, _ := newTestOrchestrator(gen, cal, &mockCredentialsRepo{creds: validCreds})
	o.Start(context.Background())

	o.HandleEvent(context.Background(), domain.IncomingMessageEvent("view-1", "c1", "hi"))

	if len(cal.events) != 0 {
		t.Error("Expected no booking for an unparseable reply")
	}
}

func TestDateChecksSerialisedPerConversation(t *testing.T) {
	gen := &mockGenerationRepo{replies: map[string]string{
		"Conversation:": `{"date":"2024-05-01","time":"19:30","location":""}`,
	}}
	cal := &mockCalendarRepo{delay: 20 * time.Millisecond}
	o, _ := newTestOrchestrator(gen, cal, &mockCredentialsRepo{creds: validCreds})
	o.Start(context.Background())

	events := bus.NewChannel[domain.Event](8)
	for i := 0; i < 3; i++ {
		events.Send(domain.IncomingMessageEvent("view-1", "c1", "again"))
	}
	events.Close()
	o.Run(context.Background(), events)

	if len(cal.events) != 3 {
		t.Fatalf("Expected 3 bookings, got %d", len(cal.events))
	}
	if cal.peak != 1 {
		t.Errorf("Expected date checks of one conversation to run one at a time, peak %d", cal.peak)
	}
}

func TestRunHandlesEventsConcurrently(t *testing.T) {
	gen := &mockGenerationRepo{
		replies: map[string]string{"Conversation:": `{"date":null}`},
		delay:   100 * time.Millisecond,
	}
	o, _ := newTestOrchestrator(gen, &mockCalendarRepo{}, &mockCredentialsRepo{creds: validCreds})
	o.Start(context.Background())

	events := bus.NewChannel[domain.Event](8)
	for _, id := range []string{"c1", "c2", "c3", "c4"} {
		events.Send(domain.IncomingMessageEvent("view-1", id, "hi"))
	}
	events.Close()

	start := time.Now()
	o.Run(context.Background(), events)

	if gen.callCount() != 4 {
		t.Errorf("Expected 4 generation calls, got %d", gen.callCount())
	}
	if elapsed := time.Since(start); elapsed > 350*time.Millisecond {
		t.Errorf("Expected different conversations to overlap, took %v", elapsed)
	}
}

func TestReloadPicksUpNewCredentials(t *testing.T) {
	creds := &mockCredentialsRepo{}
	o, _ := newTestOrchestrator(&mockGenerationRepo{}, &mockCalendarRepo{}, creds)
	o.Start(context.Background())

	if o.Credentials().HasGenerationKey() {
		t.Fatal("Expected no key before reload")
	}

	creds.creds = validCreds
	if o.Credentials().HasGenerationKey() {
		t.Error("Credentials must not change without an explicit reload")
	}

	got, err := o.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if got != validCreds || o.Credentials() != validCreds {
		t.Errorf("Expected reloaded credentials, got %+v", o.Credentials())
	}
	if creds.loads != 2 {
		t.Errorf("Expected 2 loads, got %d", creds.loads)
	}
}

func TestStartFailsOnStoreError(t *testing.T) {
	o, _ := newTestOrchestrator(&mockGenerationRepo{}, &mockCalendarRepo{}, &mockCredentialsRepo{err: errors.New("corrupt")})
	if err := o.Start(context.Background()); err == nil {
		t.Error("Expected error")
	}
}

// End to end: document mutations through the observer, orchestrator and hub

type fakeDocument struct {
	mutations chan observer.Mutation
}

func (d *fakeDocument) ID() string                                            { return "view-1" }
func (d *fakeDocument) Observe(ctx context.Context, scope observer.Scope) error { return nil }
func (d *fakeDocument) Mutations() <-chan observer.Mutation                     { return d.mutations }

func TestNewMatchEndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := &mockGenerationRepo{replies: map[string]string{"named Alex": "Hey Alex!"}}
	o, hub := newTestOrchestrator(gen, &mockCalendarRepo{}, &mockCredentialsRepo{creds: validCreds})
	if err := o.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	sub := hub.Subscribe("view-1")

	events := bus.NewChannel[domain.Event](8)
	doc := &fakeDocument{mutations: make(chan observer.Mutation, 4)}
	obs := observer.New(doc, data.NewMemoryDedupRepo(), events, observer.Config{})

	go obs.Run(ctx)
	go o.Run(ctx, events)

	push := func() {
		node, err := dom.ParseOne(`<div><div data-testid="matchListItem" data-match-id="m1">Alex</div></div>`)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		doc.mutations <- observer.Mutation{
			Scope: observer.Scope{Kind: observer.ScopeMatches},
			Added: []*dom.Node{node},
		}
	}

	push()
	cmd := receiveCommand(t, sub)
	if cmd.MatchID != "m1" || cmd.Greeting != "Hey Alex!" {
		t.Errorf("Unexpected command %+v", cmd)
	}

	push()
	expectNoCommand(t, sub, 100*time.Millisecond)
	if gen.callCount() != 1 {
		t.Errorf("Expected exactly one generation call, got %d", gen.callCount())
	}
}
