package browser

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/DevRickLin/matchmate/internal/dom"
	"github.com/DevRickLin/matchmate/internal/observer"
)

// report is what observeScript posts through the binding
type report struct {
	Scope     string   `json:"scope"`
	Added     []string `json:"added"`
	Container string   `json:"container,omitempty"`
}

// decodeReport turns a binding payload into a Mutation of a known scope
func decodeReport(raw string, scopes map[string]observer.Scope) (observer.Mutation, error) {
	var r report
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return observer.Mutation{}, fmt.Errorf("decode report: %w", err)
	}
	scope, ok := scopes[r.Scope]
	if !ok {
		return observer.Mutation{}, fmt.Errorf("report for unknown scope %q", r.Scope)
	}

	m := observer.Mutation{Scope: scope}
	for _, fragment := range r.Added {
		nodes, err := dom.Parse(fragment)
		if err != nil {
			return observer.Mutation{}, err
		}
		m.Added = append(m.Added, nodes...)
	}
	if r.Container != "" {
		container, err := dom.ParseOne(r.Container)
		if err != nil {
			return observer.Mutation{}, err
		}
		m.Container = container
	}
	return m, nil
}

// sameOrigin reports whether raw is on the target's scheme and host
func sameOrigin(target *url.URL, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, target.Scheme) && strings.EqualFold(u.Host, target.Host)
}
