package core

import (
	"sync"

	"github.com/google/uuid"

	"github.com/lesfleursdelanuitdev/subsystem-core/message"
	"github.com/lesfleursdelanuitdev/subsystem-core/pathmatch"
)

// ListenerHandler is invoked when a matching message is emitted.
type ListenerHandler func(msg *message.Message, params map[string]string)

type listenerEntry struct {
	id      string
	pattern *pathmatch.Pattern
	handler ListenerHandler
}

// Listeners implements pub/sub over message paths.
type Listeners struct {
	FacetBase

	mu      sync.Mutex
	entries []listenerEntry
}

// NewListenersFacet constructs a Listeners facet.
func NewListenersFacet() *Listeners {
	l := &Listeners{FacetBase: NewFacetBase("listeners")}
	l.SetProperty("listeners", l)
	return l
}

// On subscribes handler to pattern, returning a subscription id for Off.
func (l *Listeners) On(pattern string, handler ListenerHandler) (string, error) {
	compiled, err := pathmatch.Compile(pattern)
	if err != nil {
		return "", err
	}
	id := uuid.New().String()

	l.mu.Lock()
	l.entries = append(l.entries, listenerEntry{id: id, pattern: compiled, handler: handler})
	l.mu.Unlock()
	return id, nil
}

// Off removes the subscription identified by id, reporting whether it was
// present.
func (l *Listeners) Off(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Emit delivers msg to every subscription whose pattern matches, in
// unspecified order, at most once per registration.
func (l *Listeners) Emit(msg *message.Message) {
	l.mu.Lock()
	entries := append([]listenerEntry(nil), l.entries...)
	l.mu.Unlock()

	for _, e := range entries {
		if params, ok := e.pattern.Match(msg.Path()); ok {
			e.handler(msg, params)
		}
	}
}
