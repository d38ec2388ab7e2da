package models

import (
	"gorm.io/gorm"
)

// Flashcard represents an individual flashcard. PublicID is the durable
// identifier scheduling state is keyed by, so reordering or deleting other
// cards in the set never detaches a card from its review history.
type Flashcard struct {
	gorm.Model
	Term     string `gorm:"not null;size:200"`
	Solution string `gorm:"not null;size:1000"`
	Concept  string `gorm:"size:100"`
	PublicID string `gorm:"size:100;uniqueIndex"`

	SetID        uint         `gorm:"not null"`
	FlashcardSet FlashcardSet `gorm:"foreignKey:SetID" json:"-"`
}
