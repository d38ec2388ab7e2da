package models

import (
	"time"
)

// CardSchedule is the spaced repetition state for one (user, card) pair.
// UserID is the Auth0 subject and CardID the flashcard's public ID, so the
// record survives card reordering within the set. Version is the optimistic
// lock: every write bumps it, and a write that read a stale version loses.
//
// Hard-deleted (no gorm.Model) so a card reviewed again after a reset does
// not collide with a soft-deleted row on the unique key.
type CardSchedule struct {
	ID     uint   `gorm:"primaryKey"`
	UserID string `gorm:"not null;size:100;uniqueIndex:idx_card_schedule_key"`
	CardID string `gorm:"not null;size:100;uniqueIndex:idx_card_schedule_key"`

	Repetitions    int        `gorm:"not null;default:0"`
	IntervalDays   int        `gorm:"not null;default:0"`
	EaseFactor     float64    `gorm:"not null;default:2.5"`
	DueDate        time.Time  `gorm:"not null;index"`
	LastReviewedAt *time.Time `gorm:"default:null"`

	Version int64 `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
