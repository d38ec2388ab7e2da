package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/cardbook/cardbook-api/models"
	"github.com/cardbook/cardbook-api/srs"
	"github.com/cardbook/cardbook-api/utils"
)

// reviewRetries bounds how many times a review is replayed after losing the
// optimistic-lock race. Each attempt reruns the whole read-modify-write
// against fresh state, so retrying here is safe.
const reviewRetries = 3

// GET /api/study/{setID}
func (db *DBHandler) GetDueCards(w http.ResponseWriter, r *http.Request) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	setID := r.PathValue("setID")
	if setID == "" {
		http.Error(w, "set ID is required", http.StatusBadRequest)
		return
	}

	due, err := db.Study.DueCards(r.Context(), auth0ID, setID)
	if err != nil {
		writeStudyError(w, "GetDueCards", setID, err)
		return
	}

	// Attach card content; the scheduler only deals in refs.
	ids := make([]string, len(due))
	for i, ref := range due {
		ids[i] = ref.ID
	}
	byID := make(map[string]models.Flashcard, len(ids))
	if len(ids) > 0 {
		var cards []models.Flashcard
		if err := db.Where("public_id IN ?", ids).Find(&cards).Error; err != nil {
			log.Printf("GetDueCards: Failed to load cards for setID=%s: %v", setID, err)
			http.Error(w, "Failed to load due cards", http.StatusInternalServerError)
			return
		}
		for _, card := range cards {
			byID[card.PublicID] = card
		}
	}

	type DueCard struct {
		CardIndex int    `json:"cardIndex"`
		PublicID  string `json:"publicID"`
		Term      string `json:"term"`
		Solution  string `json:"solution"`
		Concept   string `json:"concept,omitempty"`
	}
	response := make([]DueCard, 0, len(due))
	for _, ref := range due {
		card := byID[ref.ID]
		response = append(response, DueCard{
			CardIndex: ref.Index,
			PublicID:  ref.ID,
			Term:      card.Term,
			Solution:  card.Solution,
			Concept:   card.Concept,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// POST /api/study/{setID}/review
func (db *DBHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	setID := r.PathValue("setID")
	if setID == "" {
		http.Error(w, "set ID is required", http.StatusBadRequest)
		return
	}

	type ReviewRequest struct {
		CardIndex int `json:"cardIndex"`
		Quality   int `json:"quality"`
	}
	var req ReviewRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		// Also rejects fractional quality values: the field is an integer.
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var dueDate time.Time
	var err error
	for attempt := 0; attempt < reviewRetries; attempt++ {
		dueDate, err = db.Study.SubmitReview(r.Context(), auth0ID, setID, req.CardIndex, req.Quality)
		if !errors.Is(err, srs.ErrConflict) {
			break
		}
		log.Printf("SubmitReview: Conflict for setID=%s cardIndex=%d, retrying", setID, req.CardIndex)
	}
	if err != nil {
		writeStudyError(w, "SubmitReview", setID, err)
		return
	}

	now := time.Now().UTC()
	if err := db.Model(&models.FlashcardSet{}).Where("public_id = ?", setID).Update("last_studied", now).Error; err != nil {
		log.Printf("SubmitReview: Failed to stamp last_studied for setID=%s: %v", setID, err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"dueDate": dueDate.Format("2006-01-02"),
	})
}

// writeStudyError maps scheduler errors onto HTTP statuses.
func writeStudyError(w http.ResponseWriter, op, setID string, err error) {
	log.Printf("%s: setID=%s: %v", op, setID, err)
	switch {
	case errors.Is(err, srs.ErrInvalidQuality):
		http.Error(w, "Quality must be an integer between 0 and 5", http.StatusBadRequest)
	case errors.Is(err, srs.ErrAccessDenied):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, srs.ErrSetNotFound):
		http.Error(w, "Set not found", http.StatusNotFound)
	case errors.Is(err, srs.ErrCardNotFound):
		http.Error(w, "Card not found in set", http.StatusNotFound)
	case errors.Is(err, srs.ErrConflict):
		// Review was not recorded; the client should resubmit.
		http.Error(w, "Review conflicted with a concurrent update", http.StatusConflict)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
