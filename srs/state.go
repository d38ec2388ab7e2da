package srs

import "time"

// State holds the spaced repetition scheduling state for one (user, card) pair.
// A card with no stored State is new and implicitly due.
type State struct {
	// Repetitions counts consecutive successful reviews. Reset to zero on a lapse.
	Repetitions int `json:"repetitions"`
	// Interval is the number of days until the next review. At least 1 once
	// any review has been recorded.
	Interval int `json:"interval"`
	// EaseFactor governs interval growth. Never below MinEase.
	EaseFactor float64 `json:"easeFactor"`
	// Due is the next review date, truncated to a UTC calendar day.
	Due time.Time `json:"due"`
	// LastReview is the timestamp of the most recent review.
	LastReview time.Time `json:"lastReview"`
}

// Record is a stored State plus the version used for optimistic concurrency.
type Record struct {
	State   State
	Version int64
}

// CardRef identifies one card of a set: the durable public ID that scheduling
// state is keyed by, and the card's position in the set's current card list.
type CardRef struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}

// DateOf truncates t to its UTC calendar day. All due-date arithmetic and
// comparisons happen at this granularity, so a card due today stays due for
// the whole day no matter when it is asked for.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsDue reports whether the card is due on the calendar day containing now.
func (s State) IsDue(now time.Time) bool {
	return !s.Due.After(DateOf(now))
}
