package timeline

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Digigit24/celiyo-new-sub001/internal/bus"
	"github.com/Digigit24/celiyo-new-sub001/internal/identity"
	"github.com/Digigit24/celiyo-new-sub001/internal/message"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func msg(id string, offset time.Duration) message.Message {
	return message.Message{ID: id, From: "+15550001", To: "me", Body: id, Timestamp: t0.Add(offset)}
}

type fetchFunc func(ctx context.Context, id identity.ID) ([]message.Message, error)

func (f fetchFunc) History(ctx context.Context, id identity.ID) ([]message.Message, error) {
	return f(ctx, id)
}

func static(msgs ...message.Message) HistoryFetcher {
	return fetchFunc(func(context.Context, identity.ID) ([]message.Message, error) {
		return msgs, nil
	})
}

func ids(s *Snapshot) []string {
	out := make([]string, len(s.Messages))
	for i, m := range s.Messages {
		out[i] = m.ID
	}
	return out
}

func assertIDs(t *testing.T, s *Snapshot, want ...string) {
	t.Helper()
	got := ids(s)
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

func TestActivateSortsHistory(t *testing.T) {
	s := NewStore(static(msg("c", 3*time.Second), msg("a", time.Second), msg("b", 2*time.Second)), nil, nil, Options{})

	snap := s.Activate(context.Background(), "15550001")
	if snap.State != Ready {
		t.Fatalf("state = %s, want READY", snap.State)
	}
	if snap.Identity != "15550001" {
		t.Errorf("identity = %q", snap.Identity)
	}
	assertIDs(t, snap, "a", "b", "c")
}

func TestActivateEmptyIdentityIsIdle(t *testing.T) {
	s := NewStore(static(msg("a", 0)), nil, nil, Options{})
	s.Activate(context.Background(), "15550001")

	snap := s.Activate(context.Background(), "")
	if snap.State != Idle || len(snap.Messages) != 0 || !snap.Identity.IsEmpty() {
		t.Fatalf("snapshot = %+v, want empty idle", snap)
	}
	if s.Ingest(msg("x", 0)) {
		t.Error("idle store accepted a message")
	}
}

func TestStaleLoadDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls sync.WaitGroup

	fetch := fetchFunc(func(ctx context.Context, id identity.ID) ([]message.Message, error) {
		if id == "111" {
			close(started)
			<-release
			return []message.Message{msg("from-a", 0)}, nil
		}
		return []message.Message{msg("from-b", 0)}, nil
	})
	s := NewStore(fetch, nil, nil, Options{})

	calls.Add(1)
	go func() {
		defer calls.Done()
		s.Activate(context.Background(), "111")
	}()
	<-started

	snap := s.Activate(context.Background(), "222")
	if snap.State != Ready {
		t.Fatalf("state = %s, want READY", snap.State)
	}
	close(release)
	calls.Wait()

	final := s.Snapshot()
	if final.Identity != "222" {
		t.Fatalf("identity = %q, want 222", final.Identity)
	}
	assertIDs(t, final, "from-b")
	if final.State != Ready {
		t.Errorf("state = %s, want READY", final.State)
	}
}

func TestSupersededLoadIsCancelled(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan error, 1)

	fetch := fetchFunc(func(ctx context.Context, id identity.ID) ([]message.Message, error) {
		if id == "111" {
			close(started)
			<-ctx.Done()
			cancelled <- ctx.Err()
			return nil, ctx.Err()
		}
		return nil, nil
	})
	s := NewStore(fetch, nil, nil, Options{})

	go s.Activate(context.Background(), "111")
	<-started
	s.Activate(context.Background(), "222")

	select {
	case err := <-cancelled:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("ctx err = %v, want canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("superseded load was not cancelled")
	}

	// The cancelled load must not flip the new generation into ERROR.
	time.Sleep(10 * time.Millisecond)
	if snap := s.Snapshot(); snap.State != Ready || snap.Identity != "222" {
		t.Errorf("snapshot = %s/%s, want READY/222", snap.State, snap.Identity)
	}
}

func TestLiveMessageDuringLoadSurvivesMerge(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := fetchFunc(func(ctx context.Context, id identity.ID) ([]message.Message, error) {
		close(started)
		<-release
		return []message.Message{msg("m1", time.Second), msg("m2", 2*time.Second)}, nil
	})
	s := NewStore(fetch, nil, nil, Options{})

	done := make(chan *Snapshot)
	go func() { done <- s.Activate(context.Background(), "15550001") }()
	<-started

	if !s.Ingest(msg("m3", 3*time.Second)) {
		t.Fatal("ingest during load rejected")
	}
	if s.Snapshot().State != Loading {
		t.Fatalf("state = %s, want LOADING", s.Snapshot().State)
	}
	close(release)

	snap := <-done
	assertIDs(t, snap, "m1", "m2", "m3")
}

func TestHistoryIncludingLiveMessageIsDeduplicated(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := fetchFunc(func(ctx context.Context, id identity.ID) ([]message.Message, error) {
		close(started)
		<-release
		return []message.Message{msg("m1", time.Second), msg("m2", 2*time.Second), msg("m3", 3*time.Second)}, nil
	})
	s := NewStore(fetch, nil, nil, Options{})

	done := make(chan *Snapshot)
	go func() { done <- s.Activate(context.Background(), "15550001") }()
	<-started
	s.Ingest(msg("m3", 3*time.Second))
	close(release)

	assertIDs(t, <-done, "m1", "m2", "m3")
}

func TestIngest(t *testing.T) {
	s := NewStore(static(msg("a", time.Second), msg("c", 3*time.Second)), nil, nil, Options{})
	s.Activate(context.Background(), "15550001")

	before := s.Snapshot()

	if !s.Ingest(msg("b", 2*time.Second)) {
		t.Fatal("ingest rejected")
	}
	afterFirst := s.Snapshot()
	if s.Ingest(msg("b", 2*time.Second)) {
		t.Error("duplicate ingest accepted")
	}
	if dup := s.Snapshot(); len(dup.Messages) != 3 || !reflect.DeepEqual(dup.Messages, afterFirst.Messages) {
		t.Errorf("duplicate ingest changed the timeline: %v", ids(dup))
	}
	if s.Ingest(message.Message{Timestamp: t0}) {
		t.Error("message without id accepted")
	}
	assertIDs(t, s.Snapshot(), "a", "b", "c")

	// Earlier snapshots are not touched by later mutations.
	assertIDs(t, before, "a", "c")
}

// permutations returns every ordering of in.
func permutations(in []message.Message) [][]message.Message {
	if len(in) <= 1 {
		return [][]message.Message{append([]message.Message(nil), in...)}
	}
	var out [][]message.Message
	for i := range in {
		rest := make([]message.Message, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]message.Message{in[i]}, p...))
		}
	}
	return out
}

func TestIngestOrderIndependent(t *testing.T) {
	set := []message.Message{
		msg("a", time.Second), msg("b", 2*time.Second), msg("c", 3*time.Second),
		msg("d", 4*time.Second), msg("e", 5*time.Second),
	}
	history := []message.Message{set[1], set[3]}

	tests := []struct {
		name string
		// mergeAfter is how many live messages arrive before the history
		// refresh; -1 skips the refresh.
		mergeAfter int
	}{
		{"live only", -1},
		{"history first", 0},
		{"history in the middle", 2},
		{"history last", len(set)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, order := range permutations(set) {
				refreshed := false
				s := NewStore(fetchFunc(func(context.Context, identity.ID) ([]message.Message, error) {
					if refreshed {
						return history, nil
					}
					return nil, nil
				}), nil, nil, Options{})
				s.Activate(context.Background(), "15550001")

				for i, m := range order {
					if i == tt.mergeAfter {
						refreshed = true
						s.Refresh(context.Background())
					}
					s.Ingest(m)
				}
				if tt.mergeAfter == len(order) {
					refreshed = true
					s.Refresh(context.Background())
				}

				snap := s.Snapshot()
				assertIDs(t, snap, "a", "b", "c", "d", "e")

				// Re-delivering every message changes nothing.
				for _, m := range order {
					if s.Ingest(m) {
						t.Fatalf("order %v: duplicate %q accepted", ids(&Snapshot{Messages: order}), m.ID)
					}
				}
				again := s.Snapshot()
				if !reflect.DeepEqual(again.Messages, snap.Messages) {
					t.Fatalf("order %v: re-ingest changed the timeline: %v", ids(&Snapshot{Messages: order}), ids(again))
				}
			}
		})
	}
}

func TestEqualTimestampsKeepArrivalOrder(t *testing.T) {
	s := NewStore(static(msg("h1", 0), msg("h2", 0)), nil, nil, Options{})
	s.Activate(context.Background(), "15550001")

	s.Ingest(msg("live1", 0))
	s.Ingest(msg("live2", 0))
	s.Ingest(msg("early", -time.Second))

	assertIDs(t, s.Snapshot(), "early", "h1", "h2", "live1", "live2")
}

func TestLoadFailureClearsByDefault(t *testing.T) {
	fail := false
	fetch := fetchFunc(func(ctx context.Context, id identity.ID) ([]message.Message, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return []message.Message{msg("a", 0)}, nil
	})
	s := NewStore(fetch, nil, nil, Options{})
	s.Activate(context.Background(), "15550001")

	fail = true
	snap := s.Refresh(context.Background())
	if snap.State != Error {
		t.Fatalf("state = %s, want ERROR", snap.State)
	}
	if snap.Err == "" {
		t.Error("expected an error message")
	}
	if len(snap.Messages) != 0 {
		t.Errorf("messages = %v, want empty", ids(snap))
	}

	fail = false
	snap = s.Refresh(context.Background())
	if snap.State != Ready || snap.Err != "" {
		t.Fatalf("after recovery: %s %q", snap.State, snap.Err)
	}
	assertIDs(t, snap, "a")
}

func TestRefreshFailureRetainsWhenConfigured(t *testing.T) {
	fail := false
	fetch := fetchFunc(func(ctx context.Context, id identity.ID) ([]message.Message, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return []message.Message{msg("a", 0)}, nil
	})
	s := NewStore(fetch, nil, nil, Options{RetainOnRefreshFailure: true})
	s.Activate(context.Background(), "15550001")

	fail = true
	snap := s.Refresh(context.Background())
	if snap.State != Error {
		t.Fatalf("state = %s, want ERROR", snap.State)
	}
	assertIDs(t, snap, "a")

	// Switching identity still starts from scratch.
	snap = s.Activate(context.Background(), "15550002")
	if len(snap.Messages) != 0 {
		t.Errorf("messages = %v, want empty after failed switch", ids(snap))
	}
}

func TestRefreshOnIdleStoreIsNoop(t *testing.T) {
	called := false
	s := NewStore(fetchFunc(func(context.Context, identity.ID) ([]message.Message, error) {
		called = true
		return nil, nil
	}), nil, nil, Options{})

	if snap := s.Refresh(context.Background()); snap.State != Idle {
		t.Errorf("state = %s, want IDLE", snap.State)
	}
	if called {
		t.Error("idle refresh fetched history")
	}
}

func TestApplyStatus(t *testing.T) {
	m := msg("a", 0)
	m.Status = message.StatusSent
	s := NewStore(static(m), nil, nil, Options{})
	s.Activate(context.Background(), "15550001")

	if !s.ApplyStatus(message.StatusUpdate{MessageID: "a", Status: message.StatusDelivered}) {
		t.Fatal("forward status rejected")
	}
	if s.ApplyStatus(message.StatusUpdate{MessageID: "a", Status: message.StatusSent}) {
		t.Error("backward status accepted")
	}
	if s.ApplyStatus(message.StatusUpdate{MessageID: "zz", Status: message.StatusDelivered}) {
		t.Error("unknown id accepted")
	}
	if got := s.Snapshot().Messages[0].Status; got != message.StatusDelivered {
		t.Errorf("status = %s, want delivered", got)
	}
}

func TestPublishesTimelineChanges(t *testing.T) {
	b := bus.New()
	events, unsub := b.Subscribe("timeline.", 16)
	defer unsub()

	s := NewStore(static(msg("a", 0)), b, nil, Options{})
	s.Activate(context.Background(), "15550001")
	s.Ingest(msg("b", time.Second))

	var reasons []string
	for len(reasons) < 3 {
		select {
		case ev := <-events:
			change := ev.Payload.(bus.TimelineChange)
			if change.Identity != "15550001" {
				t.Errorf("identity = %q", change.Identity)
			}
			reasons = append(reasons, change.Reason)
		case <-time.After(time.Second):
			t.Fatalf("got reasons %v, want 3 events", reasons)
		}
	}
	want := []string{"loading", "loaded", "ingested"}
	for i := range want {
		if reasons[i] != want[i] {
			t.Fatalf("reasons = %v, want %v", reasons, want)
		}
	}
}
