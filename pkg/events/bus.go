package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
)

// Handler reacts to an event delivered at one of its subscription scopes.
type Handler func(ctx context.Context, ev *Event)

// Event is one dispatched notification. It travels from Target up through
// its ancestors; CurrentScope is the node whose subscribers are being called.
type Event struct {
	ID           string
	Name         Name
	Target       *html.Node
	CurrentScope *html.Node
	Payload      any
	Time         time.Time

	stopped bool
}

// StopPropagation prevents delivery to ancestors of the current scope.
// Remaining handlers on the current scope still run.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Stopped reports whether propagation was stopped.
func (e *Event) Stopped() bool {
	return e.stopped
}

// Subscription identifies a registered handler.
type Subscription struct {
	id      uint64
	scope   *html.Node
	name    Name
	handler Handler
}

// Scope returns the node the subscription is attached to.
func (s *Subscription) Scope() *html.Node {
	if s == nil {
		return nil
	}
	return s.scope
}

// Bus delivers node-scoped events. It replaces DOM custom events as the
// coupling point between controllers that are installed independently: a
// controller subscribes on a node and receives every event dispatched on that
// node or its descendants.
type Bus struct {
	mu   sync.RWMutex
	seq  uint64
	subs map[*html.Node]map[Name][]*Subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[*html.Node]map[Name][]*Subscription)}
}

// On subscribes handler to events named name reaching scope.
func (b *Bus) On(scope *html.Node, name Name, handler Handler) *Subscription {
	if b == nil || scope == nil || handler == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	sub := &Subscription{id: b.seq, scope: scope, name: name, handler: handler}
	byName, ok := b.subs[scope]
	if !ok {
		byName = make(map[Name][]*Subscription)
		b.subs[scope] = byName
	}
	byName[name] = append(byName[name], sub)
	return sub
}

// Off removes a subscription. Unknown subscriptions are ignored.
func (b *Bus) Off(sub *Subscription) {
	if b == nil || sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	byName := b.subs[sub.scope]
	list := byName[sub.name]
	for i, candidate := range list {
		if candidate.id == sub.id {
			byName[sub.name] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(byName[sub.name]) == 0 {
		delete(byName, sub.name)
	}
	if len(byName) == 0 {
		delete(b.subs, sub.scope)
	}
}

// Count returns the number of subscriptions for name on scope.
func (b *Bus) Count(scope *html.Node, name Name) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[scope][name])
}

// Dispatch delivers an event to subscribers on target and then on each
// ancestor, nearest first. Handlers are called synchronously; the handler
// list of each scope is copied before delivery so handlers may subscribe or
// unsubscribe while running.
func (b *Bus) Dispatch(ctx context.Context, target *html.Node, name Name, payload any) *Event {
	ev := &Event{
		ID:      uuid.NewString(),
		Name:    name,
		Target:  target,
		Payload: payload,
		Time:    time.Now(),
	}
	if b == nil || target == nil {
		return ev
	}
	for scope := target; scope != nil; scope = scope.Parent {
		b.mu.RLock()
		handlers := append([]*Subscription(nil), b.subs[scope][name]...)
		b.mu.RUnlock()
		if len(handlers) == 0 {
			continue
		}
		ev.CurrentScope = scope
		for _, sub := range handlers {
			sub.handler(ctx, ev)
		}
		if ev.stopped {
			break
		}
	}
	ev.CurrentScope = nil
	return ev
}

// Scope returns the nearest ancestor-or-self of n accepted by match, falling
// back to the document root when nothing matches.
func Scope(n *html.Node, match dom.Matcher) *html.Node {
	if found := dom.Closest(n, match); found != nil {
		return found
	}
	return dom.Root(n)
}
