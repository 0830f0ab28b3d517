// Package executor applies greeting commands to a live view
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/biz/repo"
	"github.com/DevRickLin/matchmate/internal/bus"
	"github.com/DevRickLin/matchmate/internal/dom"
	"github.com/DevRickLin/matchmate/internal/logging"
)

// DefaultSettleDelay bounds the wait for the chat to open after a click
const DefaultSettleDelay = 2 * time.Second

var (
	// ErrElementMissing is returned when an expected element is not on the page
	ErrElementMissing = errors.New("element missing")
	// ErrAlreadyGreeted is returned when another view already handled the match
	ErrAlreadyGreeted = errors.New("match already greeted")
)

// UI drives the page of one view
type UI interface {
	// Exists reports whether an element matches selector
	Exists(ctx context.Context, selector string) (bool, error)
	// Click clicks the first element matching selector
	Click(ctx context.Context, selector string) error
	// WaitFor waits until selector matches a visible element, returning
	// ErrElementMissing after timeout
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// Fill replaces the value of the first input matching selector
	Fill(ctx context.Context, selector, text string) error
}

// Config configures an Executor
type Config struct {
	Selectors   dom.SelectorConfig
	SettleDelay time.Duration
}

// Executor opens a match's chat and sends the greeting
type Executor struct {
	viewID string
	ui     UI
	dedup  repo.DedupRepo
	sel    dom.SelectorConfig
	settle time.Duration
	log    *logging.Logger
}

// New creates an executor for one view
func New(viewID string, ui UI, dedup repo.DedupRepo, cfg Config) *Executor {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	return &Executor{
		viewID: viewID,
		ui:     ui,
		dedup:  dedup,
		sel:    cfg.Selectors.WithDefaults(),
		settle: cfg.SettleDelay,
		log:    logging.New("Executor"),
	}
}

// Apply performs cmd. Every view receives every command; the first view
// that finds the match claims it and the rest return ErrAlreadyGreeted.
func (e *Executor) Apply(ctx context.Context, cmd domain.SendGreetingCommand) error {
	item := e.sel.MatchItem(cmd.MatchID)
	found, err := e.ui.Exists(ctx, item)
	if err != nil {
		return fmt.Errorf("locate match %s: %w", cmd.MatchID, err)
	}
	if !found {
		return fmt.Errorf("locate match %s: %w", cmd.MatchID, ErrElementMissing)
	}

	claimed, err := e.dedup.MarkSeen(ctx, domain.SetGreetings, cmd.MatchID, "")
	if err != nil {
		return fmt.Errorf("claim match %s: %w", cmd.MatchID, err)
	}
	if !claimed {
		return ErrAlreadyGreeted
	}

	if err := e.ui.Click(ctx, item); err != nil {
		return fmt.Errorf("open chat %s: %w", cmd.MatchID, err)
	}
	if err := e.ui.WaitFor(ctx, e.sel.MessageInput, e.settle); err != nil {
		return fmt.Errorf("wait for message input: %w", err)
	}
	if err := e.ui.Fill(ctx, e.sel.MessageInput, cmd.Greeting); err != nil {
		return fmt.Errorf("fill greeting: %w", err)
	}

	hasSend, err := e.ui.Exists(ctx, e.sel.SendButton)
	if err != nil {
		return fmt.Errorf("locate send button: %w", err)
	}
	if !hasSend {
		return fmt.Errorf("locate send button: %w", ErrElementMissing)
	}
	if err := e.ui.Click(ctx, e.sel.SendButton); err != nil {
		return fmt.Errorf("click send: %w", err)
	}
	return nil
}

// Run applies commands from sub until ctx is done or sub is closed
func (e *Executor) Run(ctx context.Context, sub *bus.Subscription[domain.SendGreetingCommand]) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-sub.Receive():
			if !ok {
				return
			}
			err := e.Apply(ctx, cmd)
			switch {
			case err == nil:
				e.log.Infof("[%s] Sent greeting to %s in view %s", cmd.ID, cmd.MatchID, e.viewID)
			case errors.Is(err, ErrAlreadyGreeted), errors.Is(err, ErrElementMissing):
				e.log.Debugf("[%s] View %s skipped %s: %v", cmd.ID, e.viewID, cmd.MatchID, err)
			default:
				e.log.Warnf("[%s] View %s failed to greet %s: %v", cmd.ID, e.viewID, cmd.MatchID, err)
			}
		}
	}
}
