package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/biz/repo"
	"github.com/DevRickLin/matchmate/internal/biz/usecase"
	"github.com/DevRickLin/matchmate/internal/bus"
	"github.com/DevRickLin/matchmate/internal/logging"
)

// Orchestrator reacts to view events: it greets new matches and books
// dates agreed in conversations
type Orchestrator struct {
	greetingUC *usecase.GreetingUsecase
	dateUC     *usecase.DateCheckUsecase
	credsRepo  repo.CredentialsRepo
	commands   *bus.Hub[domain.SendGreetingCommand]
	log        *logging.Logger

	credsMu sync.RWMutex
	creds   domain.Credentials

	// One date check at a time per conversation
	convMu    sync.Mutex
	convLocks map[string]*sync.Mutex

	wg sync.WaitGroup
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	greetingUC *usecase.GreetingUsecase,
	dateUC *usecase.DateCheckUsecase,
	credsRepo repo.CredentialsRepo,
	commands *bus.Hub[domain.SendGreetingCommand],
) *Orchestrator {
	return &Orchestrator{
		greetingUC: greetingUC,
		dateUC:     dateUC,
		credsRepo:  credsRepo,
		commands:   commands,
		log:        logging.New("Orchestrator"),
		convLocks:  make(map[string]*sync.Mutex),
	}
}

// Start loads credentials. They are not read again until Reload.
func (o *Orchestrator) Start(ctx context.Context) error {
	_, err := o.Reload(ctx)
	return err
}

// Reload re-reads credentials from the settings store
func (o *Orchestrator) Reload(ctx context.Context) (domain.Credentials, error) {
	creds, err := o.credsRepo.Load(ctx)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("load credentials: %w", err)
	}

	o.credsMu.Lock()
	o.creds = creds
	o.credsMu.Unlock()

	if !creds.HasGenerationKey() {
		o.log.Warnf("No generation API key set; greetings and date checks are disabled")
	}
	if !creds.HasCalendarClient() {
		o.log.Warnf("No calendar client id set; dates will not be booked")
	}
	return creds, nil
}

// Credentials returns the credentials in use
func (o *Orchestrator) Credentials() domain.Credentials {
	o.credsMu.RLock()
	defer o.credsMu.RUnlock()
	return o.creds
}

// Run handles events until ctx is done or the channel closes. Each event
// runs in its own goroutine; Run waits for them before returning.
func (o *Orchestrator) Run(ctx context.Context, events *bus.Channel[domain.Event]) {
	defer o.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events.Receive():
			if !ok {
				return
			}
			o.wg.Add(1)
			go func(event domain.Event) {
				defer o.wg.Done()
				o.HandleEvent(ctx, event)
			}(event)
		}
	}
}

// HandleEvent processes one event to completion. Failures are logged.
func (o *Orchestrator) HandleEvent(ctx context.Context, event domain.Event) {
	switch data := event.Data.(type) {
	case *domain.NewMatchData:
		o.handleNewMatch(ctx, data)
	case *domain.IncomingMessageData:
		o.handleIncomingMessage(ctx, data)
	default:
		o.log.Warnf("Unknown event %s from %s", event.Type, event.ViewID)
	}
}

func (o *Orchestrator) handleNewMatch(ctx context.Context, data *domain.NewMatchData) {
	greeting, err := o.greetingUC.Compose(ctx, o.Credentials(), data.MatchName)
	if err != nil {
		o.logFailure(fmt.Sprintf("greeting for %s", data.MatchID), err)
		return
	}

	cmd := domain.NewSendGreetingCommand(data.MatchID, greeting)
	delivered := o.commands.Broadcast(cmd)
	o.log.Infof("[%s] Greeting for %s sent to %d view(s)", cmd.ID, data.MatchID, delivered)
}

func (o *Orchestrator) handleIncomingMessage(ctx context.Context, data *domain.IncomingMessageData) {
	lock := o.conversationLock(data.ConversationID)
	lock.Lock()
	defer lock.Unlock()

	event, err := o.dateUC.Check(ctx, o.Credentials(), data.ConversationID, data.Transcript)
	if err != nil {
		o.logFailure(fmt.Sprintf("date check for %s", data.ConversationID), err)
		return
	}
	if event != nil {
		o.log.Infof("Date with %s booked for %s", data.ConversationID, event.Start.Format("2006-01-02 15:04"))
	}
}

func (o *Orchestrator) conversationLock(id string) *sync.Mutex {
	o.convMu.Lock()
	defer o.convMu.Unlock()

	lock, ok := o.convLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		o.convLocks[id] = lock
	}
	return lock
}

func (o *Orchestrator) logFailure(what string, err error) {
	var parseErr *usecase.ParseError
	switch {
	case errors.Is(err, usecase.ErrNoCredentials):
		o.log.Warnf("Skipping %s: %v", what, err)
	case errors.Is(err, usecase.ErrEmptyGeneration):
		o.log.Warnf("Skipping %s: %v", what, err)
	case errors.As(err, &parseErr):
		o.log.Warnf("Dropping %s: %v (reply %q)", what, err, parseErr.Raw)
	default:
		o.log.Errorf("Failed %s: %v", what, err)
	}
}
