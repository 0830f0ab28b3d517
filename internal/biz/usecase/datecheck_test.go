package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
)

var fullCreds = domain.Credentials{GenerationAPIKey: "gen-key", CalendarClientID: "client-1"}

func TestDateCheckBooksMeeting(t *testing.T) {
	gen := &mockGenerationRepo{reply: `{"date":"2024-05-01","time":"19:30","location":"Cafe"}`}
	cal := &mockCalendarRepo{}
	notifier := &mockNotifier{}
	uc := NewDateCheckUsecase(gen, cal, notifier, DefaultPromptConfig)

	event, err := uc.Check(context.Background(), fullCreds, "c1", "Them: see you at 7:30?")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if event == nil {
		t.Fatal("Expected a booked event")
	}
	if len(cal.events) != 1 {
		t.Fatalf("Expected 1 booking, got %d", len(cal.events))
	}
	if cal.clientIDs[0] != "client-1" {
		t.Errorf("Expected client-1, got %q", cal.clientIDs[0])
	}

	want := time.Date(2024, 5, 1, 19, 30, 0, 0, time.UTC)
	if !cal.events[0].Start.Equal(want) {
		t.Errorf("Expected start %v, got %v", want, cal.events[0].Start)
	}
	if cal.events[0].Location != "Cafe" {
		t.Errorf("Expected location Cafe, got %q", cal.events[0].Location)
	}
	if !strings.Contains(gen.prompts[0], "Them: see you at 7:30?") {
		t.Error("Expected transcript in prompt")
	}

	if len(notifier.titles) != 1 || notifier.titles[0] != NotifyTitleDateAdded {
		t.Fatalf("Expected one 'Date added' notification, got %v", notifier.titles)
	}
	if notifier.messages[0] != "An event has been added on 2024-05-01 at 19:30." {
		t.Errorf("Unexpected notification: %q", notifier.messages[0])
	}
}

func TestDateCheckNoMeeting(t *testing.T) {
	cal := &mockCalendarRepo{}
	notifier := &mockNotifier{}
	uc := NewDateCheckUsecase(&mockGenerationRepo{reply: `{"date":null}`}, cal, notifier, DefaultPromptConfig)

	event, err := uc.Check(context.Background(), fullCreds, "c1", "hi")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if event != nil {
		t.Errorf("Expected no event, got %+v", event)
	}
	if len(cal.events) != 0 || len(notifier.titles) != 0 {
		t.Error("Expected no booking and no notification")
	}
}

func TestDateCheckUnparseableReply(t *testing.T) {
	cal := &mockCalendarRepo{}
	uc := NewDateCheckUsecase(&mockGenerationRepo{reply: "not json"}, cal, &mockNotifier{}, DefaultPromptConfig)

	_, err := uc.Check(context.Background(), fullCreds, "c1", "hi")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *ParseError, got %v", err)
	}
	if len(cal.events) != 0 {
		t.Error("Expected no booking")
	}
}

func TestDateCheckFailedGenerationIsParseError(t *testing.T) {
	uc := NewDateCheckUsecase(&mockGenerationRepo{reply: ""}, &mockCalendarRepo{}, &mockNotifier{}, DefaultPromptConfig)

	_, err := uc.Check(context.Background(), fullCreds, "c1", "hi")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *ParseError, got %v", err)
	}
}

func TestDateCheckMissingCredentials(t *testing.T) {
	gen := &mockGenerationRepo{reply: `{"date":"2024-05-01","time":"19:30","location":""}`}
	cal := &mockCalendarRepo{}
	uc := NewDateCheckUsecase(gen, cal, &mockNotifier{}, DefaultPromptConfig)

	_, err := uc.Check(context.Background(), domain.Credentials{}, "c1", "hi")
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Expected ErrNoCredentials, got %v", err)
	}
	if len(gen.prompts) != 0 {
		t.Error("Expected no generation call without a key")
	}

	_, err = uc.Check(context.Background(), domain.Credentials{GenerationAPIKey: "k"}, "c1", "hi")
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Expected ErrNoCredentials without calendar client, got %v", err)
	}
	if len(cal.events) != 0 {
		t.Error("Expected no booking")
	}
}

func TestDateCheckBookingFailure(t *testing.T) {
	bookErr := errors.New("status 401")
	notifier := &mockNotifier{}
	uc := NewDateCheckUsecase(
		&mockGenerationRepo{reply: `{"date":"2024-05-01","time":"19:30","location":""}`},
		&mockCalendarRepo{err: bookErr},
		notifier,
		DefaultPromptConfig,
	)

	_, err := uc.Check(context.Background(), fullCreds, "c1", "hi")
	if !errors.Is(err, bookErr) {
		t.Errorf("Expected booking error, got %v", err)
	}
	if len(notifier.titles) != 0 {
		t.Error("Expected no notification after a failed booking")
	}
}

func TestDateCheckNotifierFailureIsIgnored(t *testing.T) {
	uc := NewDateCheckUsecase(
		&mockGenerationRepo{reply: `{"date":"2024-05-01","time":"19:30","location":""}`},
		&mockCalendarRepo{},
		&mockNotifier{err: errors.New("offline")},
		DefaultPromptConfig,
	)

	event, err := uc.Check(context.Background(), fullCreds, "c1", "hi")
	if err != nil {
		t.Fatalf("Expected success despite notifier failure, got %v", err)
	}
	if event == nil {
		t.Error("Expected event")
	}
}
