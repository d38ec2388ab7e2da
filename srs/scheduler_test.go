package srs

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

// fakeCards serves a fixed card list for one set and enforces the same
// existence/access contract as the real card store.
type fakeCards struct {
	setID string
	owner string
	cards []CardRef
}

func (f *fakeCards) Cards(_ context.Context, userID, setID string) ([]CardRef, error) {
	if setID != f.setID {
		return nil, ErrSetNotFound
	}
	if userID != f.owner {
		return nil, ErrAccessDenied
	}
	return f.cards, nil
}

// memStore is an in-memory StateStore with the same optimistic-version
// semantics as the database-backed store.
type memStore struct {
	mu   sync.Mutex
	recs map[string]Record
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[string]Record)}
}

func (m *memStore) Get(_ context.Context, userID, cardID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[userID+"/"+cardID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memStore) List(_ context.Context, userID string, cardIDs []string) (map[string]State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	states := make(map[string]State)
	for _, id := range cardIDs {
		if rec, ok := m.recs[userID+"/"+id]; ok {
			states[id] = rec.State
		}
	}
	return states, nil
}

func (m *memStore) Put(_ context.Context, userID, cardID string, state State, prev int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + "/" + cardID
	rec, ok := m.recs[key]
	if prev == 0 {
		if ok {
			return ErrConflict
		}
		m.recs[key] = Record{State: state, Version: 1}
		return nil
	}
	if !ok || rec.Version != prev {
		return ErrConflict
	}
	m.recs[key] = Record{State: state, Version: prev + 1}
	return nil
}

func newTestScheduler(now time.Time, cardIDs ...string) (*Scheduler, *memStore) {
	cards := make([]CardRef, len(cardIDs))
	for i, id := range cardIDs {
		cards[i] = CardRef{ID: id, Index: i}
	}
	store := newMemStore()
	sched := New(
		&fakeCards{setID: "set-1", owner: "alice", cards: cards},
		store,
		WithNow(func() time.Time { return now }),
	)
	return sched, store
}

func TestDueCards_NewCardsAllDue(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sched, _ := newTestScheduler(now, "a", "b", "c")

	due, err := sched.DueCards(context.Background(), "alice", "set-1")
	if err != nil {
		t.Fatalf("DueCards() error: %v", err)
	}
	if len(due) != 3 {
		t.Fatalf("got %d due cards, want 3", len(due))
	}
	for i, c := range due {
		if c.Index != i {
			t.Errorf("due[%d].Index = %d, card order not preserved", i, c.Index)
		}
	}
}

func TestDueCards_Idempotent(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sched, _ := newTestScheduler(now, "a", "b", "c")

	first, err := sched.DueCards(context.Background(), "alice", "set-1")
	if err != nil {
		t.Fatalf("DueCards() error: %v", err)
	}
	second, err := sched.DueCards(context.Background(), "alice", "set-1")
	if err != nil {
		t.Fatalf("DueCards() error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("back-to-back DueCards differ: %v vs %v", first, second)
	}
}

func TestDueCards_Errors(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sched, _ := newTestScheduler(now, "a")

	if _, err := sched.DueCards(context.Background(), "alice", "missing"); !errors.Is(err, ErrSetNotFound) {
		t.Errorf("unknown set: err = %v, want ErrSetNotFound", err)
	}
	if _, err := sched.DueCards(context.Background(), "mallory", "set-1"); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("wrong user: err = %v, want ErrAccessDenied", err)
	}
}

func TestSubmitReview_RoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	cards := []CardRef{{ID: "a", Index: 0}, {ID: "b", Index: 1}}
	store := newMemStore()
	clock := now
	sched := New(
		&fakeCards{setID: "set-1", owner: "alice", cards: cards},
		store,
		WithNow(func() time.Time { return clock }),
	)

	due, err := sched.SubmitReview(context.Background(), "alice", "set-1", 0, 4)
	if err != nil {
		t.Fatalf("SubmitReview() error: %v", err)
	}
	want := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	if !due.Equal(want) {
		t.Fatalf("due = %v, want %v", due, want)
	}

	// Still the same day: only the unreviewed card is due.
	remaining, err := sched.DueCards(context.Background(), "alice", "set-1")
	if err != nil {
		t.Fatalf("DueCards() error: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "b" {
		t.Fatalf("due before next day = %v, want just card b", remaining)
	}

	// On the due date the reviewed card surfaces again.
	clock = due.Add(2 * time.Hour)
	remaining, err = sched.DueCards(context.Background(), "alice", "set-1")
	if err != nil {
		t.Fatalf("DueCards() error: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("due on due date = %v, want both cards", remaining)
	}
}

func TestSubmitReview_StatePersisted(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sched, store := newTestScheduler(now, "a")

	if _, err := sched.SubmitReview(context.Background(), "alice", "set-1", 0, 4); err != nil {
		t.Fatalf("SubmitReview() error: %v", err)
	}
	rec, err := store.Get(context.Background(), "alice", "a")
	if err != nil || rec == nil {
		t.Fatalf("Get() = %v, %v, want stored record", rec, err)
	}
	if rec.State.Repetitions != 1 || rec.State.Interval != 1 {
		t.Errorf("stored state = %+v, want repetitions 1, interval 1", rec.State)
	}
	if !rec.State.LastReview.Equal(now) {
		t.Errorf("LastReview = %v, want %v", rec.State.LastReview, now)
	}
	if rec.Version != 1 {
		t.Errorf("Version = %d, want 1", rec.Version)
	}
}

func TestSubmitReview_Errors(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sched, _ := newTestScheduler(now, "a", "b")
	ctx := context.Background()

	if _, err := sched.SubmitReview(ctx, "alice", "set-1", 0, 9); !errors.Is(err, ErrInvalidQuality) {
		t.Errorf("quality 9: err = %v, want ErrInvalidQuality", err)
	}
	if _, err := sched.SubmitReview(ctx, "alice", "set-1", 2, 4); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("index 2: err = %v, want ErrCardNotFound", err)
	}
	if _, err := sched.SubmitReview(ctx, "alice", "set-1", -1, 4); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("index -1: err = %v, want ErrCardNotFound", err)
	}
	if _, err := sched.SubmitReview(ctx, "alice", "missing", 0, 4); !errors.Is(err, ErrSetNotFound) {
		t.Errorf("unknown set: err = %v, want ErrSetNotFound", err)
	}
	if _, err := sched.SubmitReview(ctx, "mallory", "set-1", 0, 4); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("wrong user: err = %v, want ErrAccessDenied", err)
	}
}

func TestSubmitReview_ConflictSurfacesToCaller(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sched, store := newTestScheduler(now, "a")
	ctx := context.Background()

	// Move the stored version out from under the scheduler mid-flight by
	// priming a record after the scheduler would have read nothing.
	if _, err := sched.SubmitReview(ctx, "alice", "set-1", 0, 4); err != nil {
		t.Fatalf("SubmitReview() error: %v", err)
	}
	// Stale write: pretend another writer still holds version 0.
	if err := store.Put(ctx, "alice", "a", State{}, 0); !errors.Is(err, ErrConflict) {
		t.Errorf("stale create: err = %v, want ErrConflict", err)
	}
	if err := store.Put(ctx, "alice", "a", State{}, 7); !errors.Is(err, ErrConflict) {
		t.Errorf("stale update: err = %v, want ErrConflict", err)
	}
}

func TestSubmitReview_ConcurrentReviewsNoLostUpdate(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sched, store := newTestScheduler(now, "a")
	ctx := context.Background()

	// Two racing reviewers, each retrying the whole read-modify-write on
	// conflict, must land exactly two sequential transitions.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, err := sched.SubmitReview(ctx, "alice", "set-1", 0, 4)
				if err == nil {
					return
				}
				if !errors.Is(err, ErrConflict) {
					t.Errorf("SubmitReview() error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	rec, err := store.Get(ctx, "alice", "a")
	if err != nil || rec == nil {
		t.Fatalf("Get() = %v, %v, want stored record", rec, err)
	}
	if rec.Version != 2 {
		t.Errorf("Version = %d, want 2 (one transition per review)", rec.Version)
	}
	if rec.State.Repetitions != 2 {
		t.Errorf("Repetitions = %d, want 2 after two successful reviews", rec.State.Repetitions)
	}
	if rec.State.Interval != 6 {
		t.Errorf("Interval = %d, want 6 after the second success", rec.State.Interval)
	}
}
