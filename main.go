package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/cardbook/cardbook-api/config"
	"github.com/cardbook/cardbook-api/handlers"
	"github.com/cardbook/cardbook-api/middleware"
	"github.com/cardbook/cardbook-api/srs"
	"github.com/cardbook/cardbook-api/store"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	// Initialize database connection
	config.Connect()
	authMiddleware := middleware.EnsureValidToken()

	scheduler := srs.New(
		store.NewCards(config.Database),
		store.NewSchedules(config.Database),
	)

	DBHandler := &handlers.DBHandler{
		DB:        config.Database,
		Study:     scheduler,
		Schedules: store.NewSchedules(config.Database),
	}
	mux := http.NewServeMux()

	// Set
	mux.HandleFunc("GET /api/sets/{setID}", DBHandler.GetSetByID)
	mux.HandleFunc("POST /api/sets", middleware.SyncUserMiddleware(DBHandler.CreateFlashCardSet))
	mux.HandleFunc("POST /api/sets/import", middleware.SyncUserMiddleware(DBHandler.ImportSet))
	mux.HandleFunc("PUT /api/sets/{setID}", middleware.SyncUserMiddleware(DBHandler.UpdateSetByID))
	mux.HandleFunc("DELETE /api/sets/{setID}", middleware.SyncUserMiddleware(DBHandler.DeleteSetByID))

	// User sets
	mux.HandleFunc("GET /api/users/{nickname}/sets", DBHandler.GetSetsForUser)

	// Flashcard
	mux.HandleFunc("POST /api/sets/{setID}/flashcards/", middleware.SyncUserMiddleware(DBHandler.CreateFlashCard))
	mux.HandleFunc("GET /api/sets/{setID}/flashcards/{flashcardID}", middleware.SyncUserMiddleware(DBHandler.GetFlashcardByID))
	mux.HandleFunc("GET /api/sets/{setID}/flashcards", DBHandler.GetFlashcardsForSet)
	mux.HandleFunc("PUT /api/sets/{setID}/flashcards/{flashcardID}", middleware.SyncUserMiddleware(DBHandler.UpdateFlashCardByID))
	mux.HandleFunc("DELETE /api/sets/{setID}/flashcards/{flashcardID}", middleware.SyncUserMiddleware(DBHandler.DeleteFlashCardByID))

	// Study (spaced repetition)
	mux.HandleFunc("GET /api/study/{setID}", middleware.SyncUserMiddleware(DBHandler.GetDueCards))
	mux.HandleFunc("POST /api/study/{setID}/review", middleware.SyncUserMiddleware(DBHandler.SubmitReview))

	// Users
	mux.HandleFunc("POST /api/users", DBHandler.AddUser)
	mux.HandleFunc("GET /api/users", DBHandler.GetUsers)

	// Configure CORS with specific options
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   config.Env.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(authMiddleware(mux))

	// Server configuration

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // fallback port for local development
	}
	serverAddr := "0.0.0.0:" + port

	http.ListenAndServe(serverAddr, corsHandler)
}
