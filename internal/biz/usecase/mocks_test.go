package usecase

import (
	"context"
	"sync"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
)

// Mock implementations

type mockGenerationRepo struct {
	reply   string
	prompts []string
	keys    []string
	mu      sync.Mutex
}

func (m *mockGenerationRepo) Generate(ctx context.Context, apiKey, prompt string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, apiKey)
	m.prompts = append(m.prompts, prompt)
	return m.reply
}

type mockCalendarRepo struct {
	err       error
	events    []domain.CalendarEvent
	clientIDs []string
}

func (m *mockCalendarRepo) Book(ctx context.Context, clientID string, event domain.CalendarEvent) error {
	m.clientIDs = append(m.clientIDs, clientID)
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

type mockNotifier struct {
	titles   []string
	messages []string
	err      error
}

func (m *mockNotifier) Notify(ctx context.Context, title, message string) error {
	m.titles = append(m.titles, title)
	m.messages = append(m.messages, message)
	return m.err
}
