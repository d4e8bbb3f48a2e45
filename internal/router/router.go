package router

import (
	"context"
	"sync"

	"github.com/Digigit24/celiyo-new-sub001/internal/bus"
	"github.com/Digigit24/celiyo-new-sub001/internal/identity"
	"github.com/Digigit24/celiyo-new-sub001/internal/message"
	"go.uber.org/zap"
)

// Sink receives the live events of one conversation.
type Sink interface {
	Identity() identity.ID
	Ingest(m message.Message) bool
	ApplyStatus(u message.StatusUpdate) bool
}

// Router delivers feed events to the store bound to the event's
// conversation. It subscribes to "feed." events on the bus.
type Router struct {
	bus    *bus.Bus
	logger *zap.Logger

	mu     sync.RWMutex
	self   identity.Set
	sinks  map[int]Sink
	next   int
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a router. self lists our own addresses; they are never used
// to pick a conversation.
func New(b *bus.Bus, self identity.Set, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		bus:    b,
		logger: logger,
		self:   self,
		sinks:  make(map[int]Sink),
	}
}

// SetSelf replaces our own address set.
func (r *Router) SetSelf(self identity.Set) {
	r.mu.Lock()
	r.self = self
	r.mu.Unlock()
}

// Register adds a sink and returns a function removing it again.
func (r *Router) Register(s Sink) func() {
	r.mu.Lock()
	id := r.next
	r.next++
	r.sinks[id] = s
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.sinks, id)
			r.mu.Unlock()
		})
	}
}

// Start consumes feed events until ctx is cancelled or Stop is called.
// The subscription is lossless: feed publishers wait for the router
// instead of dropping messages.
func (r *Router) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	ch, unsub := r.bus.SubscribeLossless("feed.", 256)

	go func() {
		defer close(r.done)
		defer unsub()
		for {
			select {
			case evt := <-ch:
				r.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the router and waits for the event loop to exit.
func (r *Router) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

func (r *Router) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindFeedMessage:
		m, ok := evt.Payload.(message.Message)
		if !ok {
			r.logger.Warn("unexpected feed payload", zap.String("kind", evt.Kind))
			return
		}
		r.Route(m)
	case bus.KindFeedStatus:
		u, ok := evt.Payload.(message.StatusUpdate)
		if !ok {
			r.logger.Warn("unexpected feed payload", zap.String("kind", evt.Kind))
			return
		}
		r.RouteStatus(u)
	}
}

// Route hands m to the store whose identity equals one of m's counterparts.
// Events matching no store are dropped. Returns whether a store accepted m.
func (r *Router) Route(m message.Message) bool {
	r.mu.RLock()
	counterparts := m.Counterparts(r.self)
	target := r.match(counterparts)
	r.mu.RUnlock()

	if target == nil {
		r.logger.Debug("no open conversation for message",
			zap.String("msg_id", m.ID), zap.String("from", m.From), zap.String("to", m.To))
		return false
	}
	return target.Ingest(m)
}

// RouteStatus applies a delivery update. Without a peer every store is
// tried until one knows the message id.
func (r *Router) RouteStatus(u message.StatusUpdate) bool {
	r.mu.RLock()
	var candidates []Sink
	if peer := identity.Normalize(u.Peer); !peer.IsEmpty() {
		if s := r.match([]identity.ID{peer}); s != nil {
			candidates = append(candidates, s)
		}
	} else {
		for _, s := range r.sinks {
			candidates = append(candidates, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range candidates {
		if s.ApplyStatus(u) {
			return true
		}
	}
	return false
}

// match must be called with r.mu held.
func (r *Router) match(ids []identity.ID) Sink {
	for _, s := range r.sinks {
		owner := s.Identity()
		for _, id := range ids {
			if owner.Matches(id) {
				return s
			}
		}
	}
	return nil
}
