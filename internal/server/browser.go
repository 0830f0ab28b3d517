package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/biz/repo"
	"github.com/DevRickLin/matchmate/internal/bus"
	"github.com/DevRickLin/matchmate/internal/executor"
	"github.com/DevRickLin/matchmate/internal/infra/browser"
	"github.com/DevRickLin/matchmate/internal/logging"
	"github.com/DevRickLin/matchmate/internal/observer"
	"github.com/DevRickLin/matchmate/internal/service"
)

// View is a live page that can be observed and driven
type View interface {
	observer.Document
	executor.UI
}

// Options configures a BrowserServer
type Options struct {
	Observer      observer.Config
	Executor      executor.Config
	AutoSwipe     bool
	SwipeInterval time.Duration
}

// BrowserServer runs an observer, an executor and optionally a swiper for
// every view the browser opens on the target site
type BrowserServer struct {
	manager  *browser.Manager
	dedup    repo.DedupRepo
	events   *bus.Channel[domain.Event]
	commands *bus.Hub[domain.SendGreetingCommand]
	opts     Options
	log      *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	views   map[string]*attachedView
	stopped bool
}

type attachedView struct {
	sub    *bus.Subscription[domain.SendGreetingCommand]
	swiper *service.Swiper
	cancel context.CancelFunc
}

// NewBrowserServer creates a new browser server. manager may be nil when
// views are attached directly.
func NewBrowserServer(
	manager *browser.Manager,
	dedup repo.DedupRepo,
	events *bus.Channel[domain.Event],
	commands *bus.Hub[domain.SendGreetingCommand],
	opts Options,
) *BrowserServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &BrowserServer{
		manager:  manager,
		dedup:    dedup,
		events:   events,
		commands: commands,
		opts:     opts,
		log:      logging.New("Server"),
		ctx:      ctx,
		cancel:   cancel,
		views:    make(map[string]*attachedView),
	}
}

// Start launches the browser and attaches every view it reports
func (s *BrowserServer) Start() error {
	if s.manager == nil {
		return errors.New("no browser manager")
	}
	return s.manager.Start(func(v *browser.View) {
		s.AttachView(v)
	})
}

// AttachView starts observing and driving v until it closes or the server
// stops. Attaching a view id twice is a no-op.
func (s *BrowserServer) AttachView(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	id := v.ID()
	if _, ok := s.views[id]; ok {
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	av := &attachedView{
		sub:    s.commands.Subscribe(id),
		cancel: cancel,
	}
	if s.opts.AutoSwipe {
		like := s.opts.Executor.Selectors.WithDefaults().LikeButton
		av.swiper = service.NewSwiper(id, v, like, s.opts.SwipeInterval)
		av.swiper.Start()
	}
	s.views[id] = av

	obs := observer.New(v, s.dedup, s.events, s.opts.Observer)
	exec := executor.New(id, v, s.dedup, s.opts.Executor)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		exec.Run(ctx, av.sub)
	}()
	go func() {
		defer s.wg.Done()
		if err := obs.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warnf("Observer for %s stopped: %v", id, err)
		}
		s.detach(id, av)
	}()

	s.log.Infof("Attached view %s", id)
}

func (s *BrowserServer) detach(id string, av *attachedView) {
	s.mu.Lock()
	if s.views[id] == av {
		delete(s.views, id)
	}
	s.mu.Unlock()

	av.cancel()
	av.sub.Close()
	if av.swiper != nil {
		av.swiper.Stop()
	}
	s.log.Infof("Detached view %s", id)
}

// ViewIDs lists the attached views
func (s *BrowserServer) ViewIDs() []string {
	return s.commands.IDs()
}

// Stop detaches every view and closes the browser
func (s *BrowserServer) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	if s.manager != nil {
		if err := s.manager.Close(); err != nil {
			s.log.Warnf("Close browser: %v", err)
		}
	}
}
