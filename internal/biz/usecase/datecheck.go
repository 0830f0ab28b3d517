package usecase

import (
	"context"
	"fmt"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/biz/repo"
	"github.com/DevRickLin/matchmate/internal/logging"
)

// Notification shown after a booking
const NotifyTitleDateAdded = "Date added"

// DateCheckUsecase looks for agreed meetings in a conversation and books them
type DateCheckUsecase struct {
	genRepo      repo.GenerationRepo
	calendarRepo repo.CalendarRepo
	notifier     repo.NotifierRepo
	prompts      PromptConfig
	log          *logging.Logger
}

// NewDateCheckUsecase creates a new date check usecase
func NewDateCheckUsecase(
	genRepo repo.GenerationRepo,
	calendarRepo repo.CalendarRepo,
	notifier repo.NotifierRepo,
	prompts PromptConfig,
) *DateCheckUsecase {
	return &DateCheckUsecase{
		genRepo:      genRepo,
		calendarRepo: calendarRepo,
		notifier:     notifier,
		prompts:      prompts.WithDefaults(),
		log:          logging.New("DateCheck"),
	}
}

// Extract asks the model whether the transcript contains an agreed meeting.
// A reply of {"date":null} returns a commitment without a date.
func (uc *DateCheckUsecase) Extract(ctx context.Context, creds domain.Credentials, transcript string) (domain.MeetingCommitment, error) {
	if !creds.HasGenerationKey() {
		return domain.MeetingCommitment{}, ErrNoCredentials
	}

	reply := uc.genRepo.Generate(ctx, creds.GenerationAPIKey, uc.prompts.ExtractionPrompt(transcript))
	return ParseMeeting(reply)
}

// Check runs extraction over a transcript and books the meeting when one is
// found. It returns the booked event, or nil when there was nothing to book.
func (uc *DateCheckUsecase) Check(ctx context.Context, creds domain.Credentials, conversationID, transcript string) (*domain.CalendarEvent, error) {
	commitment, err := uc.Extract(ctx, creds, transcript)
	if err != nil {
		return nil, err
	}
	if !commitment.HasDate() {
		uc.log.Debugf("No meeting in conversation %s", conversationID)
		return nil, nil
	}

	if !creds.HasCalendarClient() {
		return nil, fmt.Errorf("book meeting for %s: %w: no calendar client id", conversationID, ErrNoCredentials)
	}

	event := domain.NewCalendarEvent(commitment, conversationID)
	if err := uc.calendarRepo.Book(ctx, creds.CalendarClientID, event); err != nil {
		return nil, fmt.Errorf("book meeting for %s: %w", conversationID, err)
	}
	uc.log.Infof("Booked %s %s for conversation %s", commitment.Date, commitment.Time, conversationID)

	message := fmt.Sprintf("An event has been added on %s at %s.", commitment.Date, commitment.Time)
	if err := uc.notifier.Notify(ctx, NotifyTitleDateAdded, message); err != nil {
		uc.log.Warnf("Notification failed: %v", err)
	}

	return &event, nil
}
