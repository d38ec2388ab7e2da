package handlers

import (
	"encoding/json"
	"net/http"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/cardbook/cardbook-api/models"
	"github.com/cardbook/cardbook-api/utils"
)

// POST /api/sets/import
// Creates a set and all of its cards in one transaction.
func (db *DBHandler) ImportSet(w http.ResponseWriter, r *http.Request) {

	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var requestData struct {
		Name     string `json:"name"`
		IsPublic bool   `json:"isPublic"`
		Cards    []struct {
			Term     string `json:"term"`
			Solution string `json:"solution"`
			Concept  string `json:"concept"`
		} `json:"cards"`
	}

	// Decode the incoming JSON
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&requestData); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Validate required fields
	if requestData.Name == "" {
		http.Error(w, "Set name is required", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	setPublicID, err := gonanoid.New()
	if err != nil {
		http.Error(w, "Failed to generate ID", http.StatusInternalServerError)
		return
	}

	flashcardSet := models.FlashcardSet{
		Title:    requestData.Name,
		UserID:   user.ID,
		IsPublic: requestData.IsPublic,
		PublicID: setPublicID,
	}

	// Start a database transaction
	tx := db.Begin()
	if tx.Error != nil {
		http.Error(w, "Could not begin transaction", http.StatusInternalServerError)
		return
	}

	// Create the flashcard set
	if err := tx.Create(&flashcardSet).Error; err != nil {
		tx.Rollback()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Create flashcards in list order
	for _, card := range requestData.Cards {
		if card.Term == "" || card.Solution == "" {
			tx.Rollback()
			http.Error(w, "Each flashcard must have a term and solution", http.StatusBadRequest)
			return
		}

		cardPublicID, err := gonanoid.New()
		if err != nil {
			tx.Rollback()
			http.Error(w, "Failed to generate ID", http.StatusInternalServerError)
			return
		}

		flashcard := models.Flashcard{
			Term:     card.Term,
			Solution: card.Solution,
			Concept:  card.Concept,
			PublicID: cardPublicID,
			SetID:    flashcardSet.ID,
		}
		if err := tx.Create(&flashcard).Error; err != nil {
			tx.Rollback()
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	// Commit the transaction
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Could not commit transaction", http.StatusInternalServerError)
		return
	}

	// Preload associated data for the response
	if err := db.Preload("Flashcards").First(&flashcardSet, flashcardSet.ID).Error; err != nil {
		http.Error(w, "Error retrieving created set", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(flashcardSet)
}
