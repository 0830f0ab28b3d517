package service

import (
	"context"
	"sync"
	"time"

	"github.com/DevRickLin/matchmate/internal/logging"
)

// DefaultSwipeInterval is the delay between like clicks
const DefaultSwipeInterval = 5 * time.Second

// Clicker is the slice of a view the swiper needs
type Clicker interface {
	Exists(ctx context.Context, selector string) (bool, error)
	Click(ctx context.Context, selector string) error
}

// Swiper periodically clicks the like button of one view
type Swiper struct {
	viewID   string
	ui       Clicker
	selector string
	interval time.Duration
	log      *logging.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	likes   int
}

// NewSwiper creates a swiper for a view
func NewSwiper(viewID string, ui Clicker, likeSelector string, interval time.Duration) *Swiper {
	if interval <= 0 {
		interval = DefaultSwipeInterval
	}
	return &Swiper{
		viewID:   viewID,
		ui:       ui,
		selector: likeSelector,
		interval: interval,
		log:      logging.New("Swiper"),
	}
}

// Start starts the swipe loop
func (s *Swiper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.loop(ctx)
	s.log.Infof("Started for %s with interval %v", s.viewID, s.interval)
}

// Stop stops the swipe loop and waits for it
func (s *Swiper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Infof("Stopped for %s after %d like(s)", s.viewID, s.Likes())
}

// Likes returns how many likes were clicked
func (s *Swiper) Likes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.likes
}

func (s *Swiper) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SwipeOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// SwipeOnce clicks the like button if it is on the page
func (s *Swiper) SwipeOnce(ctx context.Context) bool {
	present, err := s.ui.Exists(ctx, s.selector)
	if err != nil {
		s.log.Warnf("%s: like button lookup failed: %v", s.viewID, err)
		return false
	}
	if !present {
		return false
	}
	if err := s.ui.Click(ctx, s.selector); err != nil {
		s.log.Warnf("%s: like click failed: %v", s.viewID, err)
		return false
	}

	s.mu.Lock()
	s.likes++
	s.mu.Unlock()
	s.log.Debugf("%s: liked one profile", s.viewID)
	return true
}
