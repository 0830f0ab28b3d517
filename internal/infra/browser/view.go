package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/DevRickLin/matchmate/internal/bus"
	"github.com/DevRickLin/matchmate/internal/executor"
	"github.com/DevRickLin/matchmate/internal/logging"
	"github.com/DevRickLin/matchmate/internal/observer"
)

const mutationBuffer = 256

// View is one open tab of the web app. It serves as the observer's
// Document and the executor's UI.
type View struct {
	id        string
	page      playwright.Page
	mutations *bus.Channel[observer.Mutation]
	log       *logging.Logger

	mu     sync.Mutex
	scopes map[string]observer.Scope
}

func newView(id string, page playwright.Page) (*View, error) {
	v := &View{
		id:        id,
		page:      page,
		mutations: bus.NewChannel[observer.Mutation](mutationBuffer),
		log:       logging.New("View"),
		scopes:    make(map[string]observer.Scope),
	}

	err := page.ExposeBinding(bindingName, func(source *playwright.BindingSource, args ...interface{}) interface{} {
		v.receive(args)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("expose binding: %w", err)
	}

	page.OnClose(func(playwright.Page) {
		v.mutations.Close()
	})
	// Observers live in the page and die with a reload
	page.OnLoad(func(playwright.Page) {
		v.reset()
	})
	return v, nil
}

func (v *View) receive(args []interface{}) {
	if len(args) == 0 {
		return
	}
	raw, ok := args[0].(string)
	if !ok {
		v.log.Warnf("View %s: unexpected report type %T", v.id, args[0])
		return
	}

	v.mu.Lock()
	scopes := make(map[string]observer.Scope, len(v.scopes))
	for k, s := range v.scopes {
		scopes[k] = s
	}
	v.mu.Unlock()

	m, err := decodeReport(raw, scopes)
	if err != nil {
		v.log.Warnf("View %s: %v", v.id, err)
		return
	}
	if !v.mutations.Send(m) {
		v.log.Warnf("View %s: mutation queue full, dropped %s batch", v.id, m.Scope.Name())
	}
}

// ID identifies the view
func (v *View) ID() string {
	return v.id
}

// URL returns the current page URL
func (v *View) URL() string {
	return v.page.URL()
}

// Closed reports whether the tab is gone
func (v *View) Closed() bool {
	return v.page.IsClosed()
}

// Observe installs a mutation observer for scope in the page
func (v *View) Observe(ctx context.Context, scope observer.Scope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	result, err := v.page.Evaluate(observeScript, map[string]interface{}{
		"name":             scope.Name(),
		"root":             scope.Root,
		"includeContainer": scope.IncludeContainer,
	})
	if err != nil {
		return fmt.Errorf("install observer: %w", err)
	}
	if attached, _ := result.(bool); !attached {
		return observer.ErrRootNotFound
	}

	v.mu.Lock()
	v.scopes[scope.Name()] = scope
	v.mu.Unlock()
	return nil
}

// reset drops the scopes a reload wiped and tells the observer to
// attach again
func (v *View) reset() {
	v.mu.Lock()
	v.scopes = make(map[string]observer.Scope)
	v.mu.Unlock()

	if !v.mutations.Send(observer.Mutation{Reset: true}) {
		v.log.Warnf("View %s: mutation queue full, dropped reload notice", v.id)
	}
}

// Mutations delivers reported batches until the tab closes
func (v *View) Mutations() <-chan observer.Mutation {
	return v.mutations.Receive()
}

// Exists reports whether selector matches any element
func (v *View) Exists(ctx context.Context, selector string) (bool, error) {
	count, err := v.page.Locator(selector).Count()
	if err != nil {
		return false, fmt.Errorf("query %s: %w", selector, err)
	}
	return count > 0, nil
}

// Click clicks the first element matching selector
func (v *View) Click(ctx context.Context, selector string) error {
	if err := v.page.Locator(selector).First().Click(); err != nil {
		return mapElementError(selector, err)
	}
	return nil
}

// WaitFor waits for a visible element matching selector
func (v *View) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	ms := float64(timeout.Milliseconds())
	err := v.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: &ms,
	})
	if err != nil {
		return mapElementError(selector, err)
	}
	return nil
}

// Fill sets the value of the first input matching selector
func (v *View) Fill(ctx context.Context, selector, text string) error {
	if err := v.page.Locator(selector).First().Fill(text); err != nil {
		return mapElementError(selector, err)
	}
	return nil
}

func mapElementError(selector string, err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%s: %w", selector, executor.ErrElementMissing)
	}
	return fmt.Errorf("%s: %w", selector, err)
}
