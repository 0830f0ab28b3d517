// Package observer watches a live view of the dating web app and turns
// document changes into domain events.
package observer

import (
	"context"
	"errors"

	"github.com/DevRickLin/matchmate/internal/dom"
)

// ErrRootNotFound is returned by Document.Observe when the scope root is
// not in the document yet
var ErrRootNotFound = errors.New("observer: scope root not found")

// ScopeKind identifies what a scope watches
type ScopeKind string

const (
	ScopeMatches       ScopeKind = "matches"
	ScopeConversations ScopeKind = "conversations"
	ScopeMessages      ScopeKind = "messages"
)

// Scope is a subtree watched for inserted elements
type Scope struct {
	Kind ScopeKind
	// Key distinguishes scopes of the same kind, e.g. the conversation id
	Key string
	// Root selects the watched element; the first match wins
	Root string
	// IncludeContainer asks the document to report the watched element
	// along with each batch of inserted elements
	IncludeContainer bool
}

// Name returns a stable identifier for the scope
func (s Scope) Name() string {
	if s.Key == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ":" + s.Key
}

// Mutation is a batch of elements inserted under a scope root
type Mutation struct {
	Scope     Scope
	Added     []*dom.Node
	Container *dom.Node // set when the scope asked for it

	// Reset reports that the page reloaded. Every observed scope is gone
	// and the other fields are empty.
	Reset bool
}

// Document is one live view of the web app
type Document interface {
	// ID identifies the view
	ID() string

	// Observe starts reporting inserted elements under the scope root,
	// anywhere in its subtree. It returns ErrRootNotFound when no element
	// matches the root selector. Observing a scope name twice is a no-op.
	Observe(ctx context.Context, scope Scope) error

	// Mutations delivers batches for every observed scope. The channel is
	// closed when the view goes away.
	Mutations() <-chan Mutation
}
