package checkout

import (
	"context"
	"sync"
	"time"
)

type Factory func(ctx context.Context, visitorID string) *Controller

// Sessions keeps one controller per visitor.
type Sessions struct {
	newController Factory

	mu    sync.Mutex
	flows map[string]*Controller
}

func NewSessions(f Factory) *Sessions {
	return &Sessions{newController: f, flows: make(map[string]*Controller)}
}

func (s *Sessions) For(ctx context.Context, visitorID string) *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.flows[visitorID]; ok {
		return c
	}
	c := s.newController(ctx, visitorID)
	s.flows[visitorID] = c
	return c
}

// Sweep drops idle controllers that are not processing a payment.
func (s *Sessions) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, c := range s.flows {
		if c.State() != StateProcessing && c.idleSince().Before(cutoff) {
			delete(s.flows, id)
			n++
		}
	}
	return n
}
