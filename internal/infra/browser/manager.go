// Package browser runs the persistent Chromium profile the agent lives in
// and exposes each open tab of the web app as a View.
package browser

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/DevRickLin/matchmate/internal/logging"
)

// Config configures the browser runtime
type Config struct {
	TargetURL   string
	UserDataDir string // profile directory; keeps the app login across runs
	Headless    bool
	// SkipInstall assumes the driver and browsers are already installed
	SkipInstall bool
}

// Manager owns the playwright driver and the persistent browser context
type Manager struct {
	cfg    Config
	target *url.URL
	log    *logging.Logger

	mu      sync.Mutex
	pw      *playwright.Playwright
	context playwright.BrowserContext
	views   map[playwright.Page]*View
	seq     int
	onView  func(*View)
	started bool
}

// NewManager validates the configuration
func NewManager(cfg Config) (*Manager, error) {
	target, err := url.Parse(cfg.TargetURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid target URL %q", cfg.TargetURL)
	}
	if cfg.UserDataDir == "" {
		return nil, fmt.Errorf("browser user data dir is required")
	}
	return &Manager{
		cfg:    cfg,
		target: target,
		log:    logging.New("Browser"),
		views:  make(map[playwright.Page]*View),
	}, nil
}

// Start launches the browser and reports every tab on the target origin to
// onView, including tabs opened later. onView runs on a playwright callback
// goroutine and must not block.
func (m *Manager) Start(onView func(*View)) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("browser already started")
	}
	m.started = true
	m.onView = onView
	m.mu.Unlock()

	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if !m.cfg.SkipInstall {
		if err := playwright.Install(opts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	headless := m.cfg.Headless
	bctx, err := pw.Chromium.LaunchPersistentContext(m.cfg.UserDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: &headless,
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	m.mu.Lock()
	m.pw = pw
	m.context = bctx
	m.mu.Unlock()

	// Handlers run on the driver's dispatch path and must not make calls inline
	bctx.OnPage(func(page playwright.Page) {
		go m.track(page)
	})
	for _, page := range bctx.Pages() {
		m.track(page)
	}

	if len(m.Views()) == 0 {
		if err := m.Open(m.cfg.TargetURL); err != nil {
			return err
		}
	}

	m.log.Infof("Browser started (profile %s, headless=%v)", m.cfg.UserDataDir, headless)
	return nil
}

// Open navigates a new tab to rawURL
func (m *Manager) Open(rawURL string) error {
	m.mu.Lock()
	bctx := m.context
	m.mu.Unlock()
	if bctx == nil {
		return fmt.Errorf("browser not started")
	}

	page, err := bctx.NewPage()
	if err != nil {
		return fmt.Errorf("failed to open tab: %w", err)
	}
	if _, err := page.Goto(rawURL); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", rawURL, err)
	}
	// OnPage may have fired before navigation finished
	m.adopt(page)
	return nil
}

// OpenConsent shows an OAuth consent page in a new tab
func (m *Manager) OpenConsent(ctx context.Context, consentURL string) error {
	return m.Open(consentURL)
}

// track adopts page now or once it lands on the target origin
func (m *Manager) track(page playwright.Page) {
	m.adopt(page)
	page.OnLoad(func(p playwright.Page) {
		go m.adopt(p)
	})
}

func (m *Manager) adopt(page playwright.Page) {
	if !sameOrigin(m.target, page.URL()) {
		return
	}

	m.mu.Lock()
	if _, ok := m.views[page]; ok {
		m.mu.Unlock()
		return
	}
	m.seq++
	id := fmt.Sprintf("view-%d", m.seq)
	view, err := newView(id, page)
	if err != nil {
		m.mu.Unlock()
		m.log.Errorf("Failed to prepare %s: %v", page.URL(), err)
		return
	}
	m.views[page] = view
	onView := m.onView
	m.mu.Unlock()

	page.OnClose(func(p playwright.Page) {
		m.mu.Lock()
		delete(m.views, p)
		m.mu.Unlock()
		m.log.Infof("%s closed", id)
	})

	m.log.Infof("%s attached to %s", id, page.URL())
	if onView != nil {
		onView(view)
	}
}

// Views lists the live views
func (m *Manager) Views() []*View {
	m.mu.Lock()
	defer m.mu.Unlock()

	views := make([]*View, 0, len(m.views))
	for _, v := range m.views {
		views = append(views, v)
	}
	return views
}

// Close shuts the browser down
func (m *Manager) Close() error {
	m.mu.Lock()
	bctx, pw := m.context, m.pw
	m.context, m.pw = nil, nil
	m.mu.Unlock()

	var firstErr error
	if bctx != nil {
		if err := bctx.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close browser: %w", err)
		}
	}
	if pw != nil {
		if err := pw.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
	}
	return firstErr
}
