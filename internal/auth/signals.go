package auth

import (
	"sync"
	"time"
)

type EventType string

const EventUnauthenticated EventType = "auth:unauthenticated"

type Event struct {
	Type   EventType
	Path   string
	Status int
	At     time.Time
}

// Signals fans events out to subscribers that want to react to auth changes
// (clearing a cached user, for instance) without depending on the client.
type Signals struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
	order  []int
}

func NewSignals() *Signals {
	return &Signals{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns a function that removes it.
func (s *Signals) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.subs, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Emit calls every subscriber synchronously, in subscription order.
func (s *Signals) Emit(ev Event) {
	s.mu.RLock()
	fns := make([]func(Event), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.subs[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
