package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cardbook/cardbook-api/models"
	"github.com/cardbook/cardbook-api/srs"
)

// Schedules persists scheduling state in the card_schedules table.
//
// Writes use optimistic versioning: updates are conditional on the version
// the caller read, creates rely on the (user_id, card_id) unique index.
// Either way a concurrent writer surfaces as srs.ErrConflict instead of a
// silently lost review.
type Schedules struct {
	db *gorm.DB
}

func NewSchedules(db *gorm.DB) *Schedules {
	return &Schedules{db: db}
}

// Get returns the stored record for one card, or nil if the card has never
// been reviewed by this user.
func (s *Schedules) Get(ctx context.Context, userID, cardID string) (*srs.Record, error) {
	var row models.CardSchedule
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND card_id = ?", userID, cardID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: loading schedule for card %s: %w", cardID, err)
	}
	return &srs.Record{State: stateOf(row), Version: row.Version}, nil
}

// List returns the states for the given cards. Never-reviewed cards are
// absent from the result.
func (s *Schedules) List(ctx context.Context, userID string, cardIDs []string) (map[string]srs.State, error) {
	states := make(map[string]srs.State, len(cardIDs))
	if len(cardIDs) == 0 {
		return states, nil
	}

	var rows []models.CardSchedule
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND card_id IN ?", userID, cardIDs).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("store: listing schedules: %w", err)
	}
	for _, row := range rows {
		states[row.CardID] = stateOf(row)
	}
	return states, nil
}

// Put writes the whole record at version prev+1, creating it when prev is
// zero. Returns srs.ErrConflict if the stored version no longer matches.
func (s *Schedules) Put(ctx context.Context, userID, cardID string, state srs.State, prev int64) error {
	lastReviewed := state.LastReview
	if prev == 0 {
		row := models.CardSchedule{
			UserID:         userID,
			CardID:         cardID,
			Repetitions:    state.Repetitions,
			IntervalDays:   state.Interval,
			EaseFactor:     state.EaseFactor,
			DueDate:        state.Due,
			LastReviewedAt: &lastReviewed,
			Version:        1,
		}
		err := s.db.WithContext(ctx).Create(&row).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return srs.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("store: creating schedule for card %s: %w", cardID, err)
		}
		return nil
	}

	res := s.db.WithContext(ctx).
		Model(&models.CardSchedule{}).
		Where("user_id = ? AND card_id = ? AND version = ?", userID, cardID, prev).
		Updates(map[string]any{
			"repetitions":      state.Repetitions,
			"interval_days":    state.Interval,
			"ease_factor":      state.EaseFactor,
			"due_date":         state.Due,
			"last_reviewed_at": lastReviewed,
			"version":          prev + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("store: updating schedule for card %s: %w", cardID, res.Error)
	}
	if res.RowsAffected == 0 {
		return srs.ErrConflict
	}
	return nil
}

// DeleteForCards removes all users' scheduling records for the given cards.
// Called when cards or their set are deleted.
func (s *Schedules) DeleteForCards(ctx context.Context, cardIDs []string) error {
	if len(cardIDs) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Where("card_id IN ?", cardIDs).
		Delete(&models.CardSchedule{}).Error
	if err != nil {
		return fmt.Errorf("store: deleting schedules: %w", err)
	}
	return nil
}

func stateOf(row models.CardSchedule) srs.State {
	state := srs.State{
		Repetitions: row.Repetitions,
		Interval:    row.IntervalDays,
		EaseFactor:  row.EaseFactor,
		Due:         row.DueDate.UTC(),
	}
	if row.LastReviewedAt != nil {
		state.LastReview = row.LastReviewedAt.UTC()
	}
	return state
}

var _ srs.CardSource = (*Cards)(nil)
var _ srs.StateStore = (*Schedules)(nil)
