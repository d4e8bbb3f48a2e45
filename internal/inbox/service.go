// Package inbox coordinates the active conversation: which timeline is
// open, which stores the router feeds, and the send operations.
package inbox

import (
	"context"
	"errors"
	"sync"

	"github.com/Digigit24/celiyo-new-sub001/internal/bus"
	"github.com/Digigit24/celiyo-new-sub001/internal/filter"
	"github.com/Digigit24/celiyo-new-sub001/internal/identity"
	"github.com/Digigit24/celiyo-new-sub001/internal/message"
	"github.com/Digigit24/celiyo-new-sub001/internal/outbox"
	"github.com/Digigit24/celiyo-new-sub001/internal/router"
	"github.com/Digigit24/celiyo-new-sub001/internal/timeline"
	"go.uber.org/zap"
)

var (
	// ErrNoIdentity is returned when an address normalizes to nothing.
	ErrNoIdentity = errors.New("empty conversation identity")
	// ErrNoActive is returned when an operation needs an open conversation.
	ErrNoActive = errors.New("no conversation is open")
)

// Backend is the part of the REST collaborator the coordinator needs.
type Backend interface {
	timeline.HistoryFetcher
	Conversations(ctx context.Context) ([]message.Summary, error)
}

// Options tunes the coordinator.
type Options struct {
	CacheSize int
	Timeline  timeline.Options
}

// Service owns the active conversation.
type Service struct {
	backend Backend
	router  *router.Router
	sender  *outbox.Sender
	media   *outbox.MediaPipeline
	bus     *bus.Bus
	logger  *zap.Logger
	opts    Options

	mu     sync.Mutex
	active *entry
	cache  *lru
}

// NewService creates a coordinator with nothing open.
func NewService(backend Backend, r *router.Router, sender *outbox.Sender, media *outbox.MediaPipeline, b *bus.Bus, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend: backend,
		router:  r,
		sender:  sender,
		media:   media,
		bus:     b,
		logger:  logger,
		opts:    opts,
		cache:   newLRU(opts.CacheSize),
	}
}

// Select opens the conversation with raw and waits for its history. The
// previous conversation is discarded, or cached when caching is enabled.
// Selecting the open conversation again refreshes it.
func (s *Service) Select(ctx context.Context, raw string) (*timeline.Snapshot, error) {
	id := identity.Normalize(raw)
	if id.IsEmpty() {
		return nil, ErrNoIdentity
	}

	s.mu.Lock()
	if s.active != nil && s.active.id == id {
		store := s.active.store
		s.mu.Unlock()
		return store.Refresh(ctx), nil
	}
	cached, ok := s.cache.take(id)
	s.deselectLocked()

	if ok {
		s.active = cached
		s.mu.Unlock()
		s.logger.Debug("reusing cached timeline", zap.String("identity", id.String()))
		return cached.store.Refresh(ctx), nil
	}

	store := timeline.NewStore(s.backend, s.bus, s.logger, s.opts.Timeline)
	s.active = &entry{id: id, store: store, unregister: s.router.Register(store)}
	s.mu.Unlock()

	s.logger.Info("conversation opened", zap.String("identity", id.String()))
	return store.Activate(ctx, id), nil
}

// Deselect closes the open conversation, if any.
func (s *Service) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deselectLocked()
}

func (s *Service) deselectLocked() {
	if s.active == nil {
		return
	}
	e := s.active
	s.active = nil
	for _, evicted := range s.cache.put(e) {
		evicted.close()
	}
}

// Refresh reloads the open conversation.
func (s *Service) Refresh(ctx context.Context) (*timeline.Snapshot, error) {
	store := s.activeStore()
	if store == nil {
		return nil, ErrNoActive
	}
	return store.Refresh(ctx), nil
}

// Active returns the open conversation's snapshot, or nil.
func (s *Service) Active() *timeline.Snapshot {
	store := s.activeStore()
	if store == nil {
		return nil
	}
	return store.Snapshot()
}

func (s *Service) activeStore() *timeline.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	return s.active.store
}

// Conversations lists conversation summaries on tab matching search. The
// open conversation is reported as read.
func (s *Service) Conversations(ctx context.Context, tab filter.Tab, search string) ([]message.Summary, error) {
	summaries, err := s.backend.Conversations(ctx)
	if err != nil {
		return nil, err
	}
	if open := s.Active(); open != nil {
		for i := range summaries {
			if summaries[i].Identity().Matches(open.Identity) {
				summaries[i].Unread = false
			}
		}
	}
	return filter.Apply(summaries, tab, search), nil
}

// SendText sends body to raw, or to the open conversation when raw is empty.
func (s *Service) SendText(ctx context.Context, raw, body string) error {
	return s.sender.SendText(ctx, s.target(raw), body)
}

// SendMedia sends f to raw, or to the open conversation when raw is empty.
func (s *Service) SendMedia(ctx context.Context, raw string, f outbox.File, mediaType message.MediaType, caption string) (string, error) {
	return s.media.SendMedia(ctx, s.target(raw), f, mediaType, caption)
}

func (s *Service) target(raw string) identity.ID {
	if id := identity.Normalize(raw); !id.IsEmpty() {
		return id
	}
	if open := s.Active(); open != nil {
		return open.Identity
	}
	return ""
}

// Close releases every store.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.close()
		s.active = nil
	}
	for _, e := range s.cache.drain() {
		e.close()
	}
}
