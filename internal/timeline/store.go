package timeline

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Digigit24/celiyo-new-sub001/internal/bus"
	"github.com/Digigit24/celiyo-new-sub001/internal/identity"
	"github.com/Digigit24/celiyo-new-sub001/internal/message"
	"go.uber.org/zap"
)

// HistoryFetcher loads the full message history of one conversation.
// Messages may come back in any order.
type HistoryFetcher interface {
	History(ctx context.Context, id identity.ID) ([]message.Message, error)
}

// Options tunes store behavior.
type Options struct {
	// RetainOnRefreshFailure keeps the last known-good messages when a
	// refresh of the same identity fails. When false a failed load always
	// leaves an empty sequence.
	RetainOnRefreshFailure bool
}

// Snapshot is an immutable view of a store. Callers must not modify Messages.
type Snapshot struct {
	Identity   identity.ID
	State      State
	Err        string
	Generation uint64
	Messages   []message.Message
}

// Conversation projects the snapshot onto a message.Conversation.
func (s *Snapshot) Conversation() message.Conversation {
	return message.Conversation{Identity: s.Identity, Messages: s.Messages}
}

// Store is the ordered, duplicate-free message timeline of the active
// conversation. Every mutation replaces the whole sequence, so a Snapshot
// handed out earlier never changes underneath its reader.
type Store struct {
	fetcher HistoryFetcher
	bus     *bus.Bus
	logger  *zap.Logger
	opts    Options

	mu         sync.Mutex
	identity   identity.ID
	state      State
	errMsg     string
	generation uint64
	messages   []message.Message
	ids        map[string]struct{}
	cancel     context.CancelFunc

	view atomic.Pointer[Snapshot]
}

// NewStore creates an idle store.
func NewStore(fetcher HistoryFetcher, b *bus.Bus, logger *zap.Logger, opts Options) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		fetcher: fetcher,
		bus:     b,
		logger:  logger,
		opts:    opts,
		state:   Idle,
		ids:     make(map[string]struct{}),
	}
	s.view.Store(&Snapshot{State: Idle})
	return s
}

// Snapshot returns the current immutable view.
func (s *Store) Snapshot() *Snapshot {
	return s.view.Load()
}

// Identity returns the identity the store is currently bound to.
func (s *Store) Identity() identity.ID {
	return s.view.Load().Identity
}

// Activate binds the store to id and loads its history. Any in-flight load
// is superseded: its context is cancelled and its result discarded. Load
// failures end up in the snapshot, never in a return value. Activate blocks
// until this generation's load resolves.
func (s *Store) Activate(ctx context.Context, id identity.ID) *Snapshot {
	if id.IsEmpty() {
		s.Deactivate()
		return s.Snapshot()
	}
	return s.load(ctx, id)
}

// Refresh reloads the history of the current identity and merges it into the
// existing sequence. No-op on an idle store.
func (s *Store) Refresh(ctx context.Context) *Snapshot {
	id := s.Identity()
	if id.IsEmpty() {
		return s.Snapshot()
	}
	return s.load(ctx, id)
}

func (s *Store) load(ctx context.Context, id identity.ID) *Snapshot {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancel = cancel

	refresh := id == s.identity
	if !refresh {
		s.identity = id
		s.messages = nil
		s.ids = make(map[string]struct{})
	}
	s.generation++
	gen := s.generation
	s.errMsg = ""
	s.transitionLocked(Loading)
	s.publishLocked("loading")
	s.mu.Unlock()

	history, err := s.fetcher.History(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.logger.Debug("discarding stale history",
			zap.String("identity", id.String()),
			zap.Uint64("generation", gen),
			zap.Uint64("current", s.generation))
		return s.view.Load()
	}
	s.cancel = nil

	if err != nil {
		s.errMsg = fmt.Sprintf("could not load messages for %s: %v", id, err)
		s.logger.Warn("history load failed", zap.String("identity", id.String()), zap.Error(err))
		if !(refresh && s.opts.RetainOnRefreshFailure) {
			s.messages = nil
			s.ids = make(map[string]struct{})
		}
		s.transitionLocked(Error)
		s.publishLocked("load_failed")
		return s.view.Load()
	}

	s.mergeLocked(history)
	s.transitionLocked(Ready)
	s.publishLocked("loaded")
	return s.view.Load()
}

// Ingest inserts a live message at its sorted position. It returns false
// when the message is already present, has no id, or the store is idle.
func (s *Store) Ingest(m message.Message) bool {
	if m.ID == "" {
		s.logger.Warn("dropping message without id", zap.String("from", m.From))
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity.IsEmpty() {
		return false
	}
	if _, dup := s.ids[m.ID]; dup {
		return false
	}
	next := make([]message.Message, len(s.messages), len(s.messages)+1)
	copy(next, s.messages)
	s.messages = s.insert(next, m)
	s.publishLocked("ingested")
	return true
}

// ApplyStatus moves a known message forward in its delivery lifecycle.
// Returns false for unknown ids and backward or repeated steps.
func (s *Store) ApplyStatus(u message.StatusUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[u.MessageID]; !ok {
		return false
	}
	i := slices.IndexFunc(s.messages, func(m message.Message) bool { return m.ID == u.MessageID })
	if i < 0 || !s.messages[i].Status.Advances(u.Status) {
		return false
	}
	next := slices.Clone(s.messages)
	next[i].Status = u.Status
	s.messages = next
	s.publishLocked("status")
	return true
}

// Deactivate unbinds the store, cancelling any in-flight load.
func (s *Store) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.state == Idle && s.identity.IsEmpty() {
		return
	}
	s.generation++
	s.identity = ""
	s.errMsg = ""
	s.messages = nil
	s.ids = make(map[string]struct{})
	s.transitionLocked(Idle)
	s.publishLocked("deactivated")
}

// mergeLocked folds a history response into the current sequence. Messages
// already present keep their position; only their status may advance.
func (s *Store) mergeLocked(history []message.Message) {
	sorted := slices.Clone(history)
	slices.SortStableFunc(sorted, func(a, b message.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	next := slices.Clone(s.messages)
	for _, m := range sorted {
		if m.ID == "" {
			continue
		}
		if _, dup := s.ids[m.ID]; dup {
			i := slices.IndexFunc(next, func(e message.Message) bool { return e.ID == m.ID })
			if i >= 0 && next[i].Status.Advances(m.Status) {
				next[i].Status = m.Status
			}
			continue
		}
		next = s.insert(next, m)
	}
	s.messages = next
}

// insert places m after every message with a timestamp <= m's, so equal
// timestamps keep arrival order. It records the id and returns the grown slice.
func (s *Store) insert(seq []message.Message, m message.Message) []message.Message {
	i := sort.Search(len(seq), func(i int) bool {
		return seq[i].Timestamp.After(m.Timestamp)
	})
	s.ids[m.ID] = struct{}{}
	return slices.Insert(seq, i, m)
}

func (s *Store) transitionLocked(to State) {
	if err := checkTransition(s.state, to); err != nil {
		s.logger.Error("timeline state", zap.Error(err))
	}
	s.state = to
}

func (s *Store) publishLocked(reason string) {
	snap := &Snapshot{
		Identity:   s.identity,
		State:      s.state,
		Err:        s.errMsg,
		Generation: s.generation,
		Messages:   s.messages,
	}
	s.view.Store(snap)
	s.bus.Publish(bus.Event{
		Kind: bus.KindTimelineChanged,
		Payload: bus.TimelineChange{
			Identity:   s.identity.String(),
			Generation: s.generation,
			Reason:     reason,
		},
	})
}
