package observer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/biz/repo"
	"github.com/DevRickLin/matchmate/internal/bus"
	"github.com/DevRickLin/matchmate/internal/dom"
	"github.com/DevRickLin/matchmate/internal/logging"
)

// DefaultAttachRetry is the delay between attempts to find a scope root
const DefaultAttachRetry = 2 * time.Second

// Config configures an Observer
type Config struct {
	Selectors   *dom.Selectors
	AttachRetry time.Duration
}

// Observer turns mutations of one Document into events
type Observer struct {
	doc    Document
	dedup  repo.DedupRepo
	events *bus.Channel[domain.Event]
	sel    *dom.Selectors
	retry  time.Duration
	log    *logging.Logger

	mu      sync.Mutex
	watches map[string]*domain.ConversationWatch
	rewatch map[string]bool
}

// New creates an observer for doc. The dedup store may be shared by
// observers of other views.
func New(doc Document, dedup repo.DedupRepo, events *bus.Channel[domain.Event], cfg Config) *Observer {
	if cfg.Selectors == nil {
		cfg.Selectors = dom.MustDefaultSelectors()
	}
	if cfg.AttachRetry <= 0 {
		cfg.AttachRetry = DefaultAttachRetry
	}
	return &Observer{
		doc:     doc,
		dedup:   dedup,
		events:  events,
		sel:     cfg.Selectors,
		retry:   cfg.AttachRetry,
		log:     logging.New("Observer"),
		watches: make(map[string]*domain.ConversationWatch),
		rewatch: make(map[string]bool),
	}
}

// Run attaches the match and conversation scopes and handles mutations
// until ctx is cancelled or the document goes away.
func (o *Observer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	attachCancel := o.attachRoots(ctx, &wg)
	defer func() { attachCancel() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-o.doc.Mutations():
			if !ok {
				o.log.Infof("View %s closed", o.doc.ID())
				return nil
			}
			if m.Reset {
				o.log.Infof("View %s reloaded, attaching again", o.doc.ID())
				attachCancel()
				o.markRewatch()
				attachCancel = o.attachRoots(ctx, &wg)
				continue
			}
			o.handle(ctx, m)
		}
	}
}

// attachRoots attaches the match and conversation scopes in the
// background. The returned func abandons attempts still retrying.
func (o *Observer) attachRoots(ctx context.Context, wg *sync.WaitGroup) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	cfg := o.sel.Config
	for _, scope := range []Scope{
		{Kind: ScopeMatches, Root: cfg.MatchRoot},
		{Kind: ScopeConversations, Root: cfg.ConversationRoot},
	} {
		wg.Add(1)
		go func(scope Scope) {
			defer wg.Done()
			o.attach(ctx, scope)
		}(scope)
	}
	return cancel
}

// attach retries Observe until the scope root exists
func (o *Observer) attach(ctx context.Context, scope Scope) {
	for {
		err := o.doc.Observe(ctx, scope)
		if err == nil {
			o.log.Infof("View %s: watching %s", o.doc.ID(), scope.Name())
			return
		}
		if !errors.Is(err, ErrRootNotFound) {
			o.log.Warnf("View %s: attach %s failed: %v", o.doc.ID(), scope.Name(), err)
		} else {
			o.log.Debugf("View %s: %s not found, retrying in %s", o.doc.ID(), scope.Root, o.retry)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(o.retry):
		}
	}
}

func (o *Observer) handle(ctx context.Context, m Mutation) {
	switch m.Scope.Kind {
	case ScopeMatches:
		for _, node := range m.Added {
			o.handleMatchNode(ctx, node)
		}
	case ScopeConversations:
		for _, node := range m.Added {
			o.handleConversationNode(ctx, node)
		}
	case ScopeMessages:
		for _, node := range m.Added {
			o.handleMessageNode(m, node)
		}
	default:
		o.log.Warnf("Mutation for unknown scope %q", m.Scope.Kind)
	}
}

func (o *Observer) handleMatchNode(ctx context.Context, node *dom.Node) {
	entry := node.Find(o.sel.MatchEntry)
	if entry == nil {
		return
	}
	matchID, _ := entry.Attr(o.sel.Config.MatchIDAttr)
	if matchID == "" {
		return
	}
	name := entry.Text()

	isNew, err := o.dedup.MarkSeen(ctx, domain.SetMatches, matchID, name)
	if err != nil {
		o.log.Errorf("Dedup match %s: %v", matchID, err)
		return
	}
	if !isNew {
		return
	}

	o.log.Infof("New match %s (%s) in view %s", matchID, name, o.doc.ID())
	o.emit(domain.NewMatchEvent(o.doc.ID(), matchID, name))
}

func (o *Observer) handleConversationNode(ctx context.Context, node *dom.Node) {
	if !node.Matches(o.sel.Conversation) {
		return
	}
	convID, _ := node.Attr(o.sel.Config.MatchIDAttr)
	if convID == "" {
		return
	}

	isNew, err := o.dedup.MarkSeen(ctx, domain.SetConversations, convID, "")
	if err != nil {
		o.log.Errorf("Dedup conversation %s: %v", convID, err)
		return
	}
	if !isNew && !o.needsRewatch(convID) {
		return
	}

	o.setWatch(convID, false)
	if node.Find(o.sel.MessageList) == nil {
		o.log.Warnf("Conversation %s has no message list, not watching", convID)
		return
	}

	scope := Scope{
		Kind:             ScopeMessages,
		Key:              convID,
		Root:             o.messageListSelector(convID),
		IncludeContainer: true,
	}
	if err := o.doc.Observe(ctx, scope); err != nil {
		o.log.Warnf("Watch conversation %s failed: %v", convID, err)
		return
	}
	o.setWatch(convID, true)
	o.log.Infof("Watching conversation %s in view %s", convID, o.doc.ID())
}

// messageListSelector selects the message list inside one conversation
func (o *Observer) messageListSelector(convID string) string {
	cfg := o.sel.Config
	return fmt.Sprintf("%s%s %s", cfg.Conversation, cfg.MatchItem(convID), cfg.MessageList)
}

func (o *Observer) handleMessageNode(m Mutation, node *dom.Node) {
	if node.Find(o.sel.MessageText) == nil {
		return
	}
	if !node.Matches(o.sel.IncomingMessage) {
		return
	}

	container := m.Container
	if container == nil {
		container = node
	}
	var lines []string
	for _, span := range container.FindAll(o.sel.MessageText) {
		lines = append(lines, span.Text())
	}
	transcript := strings.Join(lines, "\n")

	o.log.Debugf("Incoming message in conversation %s", m.Scope.Key)
	o.emit(domain.IncomingMessageEvent(o.doc.ID(), m.Scope.Key, transcript))
}

func (o *Observer) emit(event domain.Event) {
	if !o.events.Send(event) {
		o.log.Warnf("Event queue full, dropped %s", event.Type)
	}
}

func (o *Observer) setWatch(convID string, watched bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	w, ok := o.watches[convID]
	if !ok {
		w = &domain.ConversationWatch{ConversationID: convID}
		o.watches[convID] = w
	}
	if watched {
		w.Watched = true
		delete(o.rewatch, convID)
	}
}

// markRewatch forgets the message scopes lost with a reload. Conversations
// this observer was watching are watched again when they render.
func (o *Observer) markRewatch() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for id, w := range o.watches {
		if w.Watched {
			w.Watched = false
			o.rewatch[id] = true
		}
	}
}

func (o *Observer) needsRewatch(convID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rewatch[convID]
}

// Watches lists the conversations this observer has claimed
func (o *Observer) Watches() []domain.ConversationWatch {
	o.mu.Lock()
	defer o.mu.Unlock()

	result := make([]domain.ConversationWatch, 0, len(o.watches))
	for _, w := range o.watches {
		result = append(result, *w)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ConversationID < result[j].ConversationID
	})
	return result
}
