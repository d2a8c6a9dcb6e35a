// Package hook provides the extension points of the synchronization core.
//
// Every extension point is an ordered chain. Filters receive a value and
// return a possibly modified one; observers are only notified. An empty
// chain is a no-op, so engines work unchanged with nothing registered.
package hook

import (
	"github.com/dirsync/dirsync/internal/attribute"
	"github.com/dirsync/dirsync/internal/principal"
)

// Filter transforms a value. Returning the input unmodified is always valid.
type Filter[T any] func(T) T

// FilterChain applies filters in registration order.
type FilterChain[T any] struct {
	filters []Filter[T]
}

// Register appends a filter to the chain.
func (c *FilterChain[T]) Register(f Filter[T]) {
	if f != nil {
		c.filters = append(c.filters, f)
	}
}

// Apply runs v through every filter.
func (c *FilterChain[T]) Apply(v T) T {
	for _, f := range c.filters {
		v = f(v)
	}

	return v
}

// Len returns the number of registered filters.
func (c *FilterChain[T]) Len() int {
	return len(c.filters)
}

// Observer is notified with a value.
type Observer[T any] func(T)

// ObserverChain notifies observers in registration order.
type ObserverChain[T any] struct {
	observers []Observer[T]
}

// Register appends an observer to the chain.
func (c *ObserverChain[T]) Register(o Observer[T]) {
	if o != nil {
		c.observers = append(c.observers, o)
	}
}

// Notify calls every observer with v.
func (c *ObserverChain[T]) Notify(v T) {
	for _, o := range c.observers {
		o(v)
	}
}

// Candidates maps object GUIDs to the identities a directory import run will process.
type Candidates map[string]principal.Credentials

// Mutation describes one local create or update.
type Mutation struct {
	Credentials principal.Credentials
	Attributes  attribute.DirectoryAttributes
	Create      bool
	Err         error // set for AfterMutation when the mutation failed
}

// Verdict is the result of checking whether a local user may be written back to the directory.
type Verdict struct {
	Credentials    principal.Credentials
	Synchronizable bool
}

// Registry holds the named extension points.
type Registry struct {
	// SyncableUsers post-processes the merged candidate set of an import run.
	SyncableUsers FilterChain[Candidates]
	// BeforeMutation fires immediately before a local user is created or updated.
	BeforeMutation ObserverChain[Mutation]
	// AfterMutation fires immediately after a local user was created or updated.
	AfterMutation ObserverChain[Mutation]
	// AttributeNames post-processes the attribute names sent with every lookup.
	AttributeNames FilterChain[[]string]
	// Synchronizable may overrule whether a user is written back to the directory.
	Synchronizable FilterChain[Verdict]
}

// New returns a registry without any hooks.
func New() *Registry {
	return &Registry{}
}
