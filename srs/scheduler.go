// Package srs schedules flashcard reviews with the SM-2 spaced repetition
// algorithm. It is persistence-agnostic: callers inject a CardSource for the
// set's ordered card list and a StateStore for per-(user, card) scheduling
// records, and the scheduler decides which cards are due and how a graded
// review moves a card's next due date.
package srs

import (
	"context"
	"fmt"
	"time"
)

// CardSource supplies the ordered card list of a set. Implementations enforce
// existence and access: ErrSetNotFound if the set does not exist,
// ErrAccessDenied if the user may not study it.
type CardSource interface {
	Cards(ctx context.Context, userID, setID string) ([]CardRef, error)
}

// StateStore persists scheduling state keyed by (userID, cardID).
//
// Put uses optimistic versioning: prev is the version the caller read (zero
// for a card with no record yet), and the store must reject the write with
// ErrConflict when the stored version no longer matches. That makes the
// read-modify-write in SubmitReview safe to retry from scratch.
type StateStore interface {
	// Get returns the record for one card, or nil if the card has never
	// been reviewed.
	Get(ctx context.Context, userID, cardID string) (*Record, error)
	// List returns the states for the given cards. Cards without a record
	// are simply absent from the result.
	List(ctx context.Context, userID string, cardIDs []string) (map[string]State, error)
	// Put replaces the record whose version is prev, or creates it when
	// prev is zero. The whole record is written atomically.
	Put(ctx context.Context, userID, cardID string, state State, prev int64) error
}

// Scheduler answers due-card queries and records graded reviews.
type Scheduler struct {
	cards       CardSource
	states      StateStore
	maxInterval int
	now         func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxInterval caps review intervals at days.
func WithMaxInterval(days int) Option {
	return func(s *Scheduler) { s.maxInterval = days }
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a Scheduler over the given card source and state store.
func New(cards CardSource, states StateStore, opts ...Option) *Scheduler {
	s := &Scheduler{
		cards:       cards,
		states:      states,
		maxInterval: DefaultMaxIntervalDays,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DueCards returns the cards of the set that are due for the user today, in
// the set's card-list order. A card is due if it has never been reviewed or
// its due date is on or before the current UTC calendar day. This is a pure
// read; the result is recomputed on every call.
func (s *Scheduler) DueCards(ctx context.Context, userID, setID string) ([]CardRef, error) {
	cards, err := s.cards.Cards(ctx, userID, setID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	states, err := s.states.List(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("srs: listing scheduling state: %w", err)
	}

	now := s.now()
	due := make([]CardRef, 0, len(cards))
	for _, c := range cards {
		state, ok := states[c.ID]
		if !ok || state.IsDue(now) {
			due = append(due, c)
		}
	}
	return due, nil
}

// SubmitReview records one graded review of the card at cardIndex and returns
// the card's next due date. quality is the 0-5 recall rating.
//
// The read-modify-write of the card's state is guarded by the store's
// optimistic version: a concurrent review of the same card surfaces as
// ErrConflict, which is propagated so the caller can rerun the whole call
// against fresh state. The scheduler itself never retries, since replaying
// the arithmetic against a stale read would corrupt the schedule.
func (s *Scheduler) SubmitReview(ctx context.Context, userID, setID string, cardIndex, quality int) (time.Time, error) {
	if quality < MinQuality || quality > MaxQuality {
		return time.Time{}, ErrInvalidQuality
	}

	cards, err := s.cards.Cards(ctx, userID, setID)
	if err != nil {
		return time.Time{}, err
	}
	if cardIndex < 0 || cardIndex >= len(cards) {
		return time.Time{}, fmt.Errorf("%w: index %d of %d cards", ErrCardNotFound, cardIndex, len(cards))
	}
	cardID := cards[cardIndex].ID

	rec, err := s.states.Get(ctx, userID, cardID)
	if err != nil {
		return time.Time{}, fmt.Errorf("srs: reading scheduling state: %w", err)
	}
	var prior State
	var prev int64
	if rec != nil {
		prior = rec.State
		prev = rec.Version
	}

	next, err := review(prior, quality, s.now(), s.maxInterval)
	if err != nil {
		return time.Time{}, err
	}

	if err := s.states.Put(ctx, userID, cardID, next, prev); err != nil {
		return time.Time{}, err
	}
	return next.Due, nil
}
