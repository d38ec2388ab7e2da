package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cardbook/cardbook-api/models"
	"github.com/cardbook/cardbook-api/srs"
)

// Cards adapts the flashcard tables to the scheduler's CardSource.
type Cards struct {
	db *gorm.DB
}

func NewCards(db *gorm.DB) *Cards {
	return &Cards{db: db}
}

// Cards returns the set's cards in list order. userID is the Auth0 subject
// and setID the set's public ID. Private sets are only visible to their owner.
func (c *Cards) Cards(ctx context.Context, userID, setID string) ([]srs.CardRef, error) {
	var set models.FlashcardSet
	err := c.db.WithContext(ctx).
		Preload("User").
		Preload("Flashcards", func(db *gorm.DB) *gorm.DB {
			// Creation order is the set's card-list order.
			return db.Order("flashcards.id asc")
		}).
		Where("public_id = ?", setID).
		First(&set).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, srs.ErrSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: loading set %s: %w", setID, err)
	}

	if !set.IsPublic && set.User.Auth0ID != userID {
		return nil, srs.ErrAccessDenied
	}

	refs := make([]srs.CardRef, len(set.Flashcards))
	for i, card := range set.Flashcards {
		refs[i] = srs.CardRef{ID: card.PublicID, Index: i}
	}
	return refs, nil
}
