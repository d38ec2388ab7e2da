package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/cardbook/cardbook-api/auth"
	"github.com/cardbook/cardbook-api/config"
	"github.com/cardbook/cardbook-api/models"
)

func (db *DBHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	var users []models.User

	db.Find(&users)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(users); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// AddUser is the legacy first-party signup/login path: it upserts a user by
// nickname and hands back an HS256 session cookie. Auth0-backed clients never
// hit this; they are synced by middleware.SyncUserMiddleware instead.
func (db *DBHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	user := new(models.User)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&user); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Println("AddUser: Decoding error:", err)
		return
	}

	if user.Nickname == "" {
		http.Error(w, "Nickname is required", http.StatusBadRequest)
		return
	}

	// Check if user already exists
	var existingUser models.User
	result := db.Where("nickname = ?", user.Nickname).First(&existingUser)
	if result.Error == nil {
		// User already exists, return 200 status to prevent frontend errors
		tokenString, err := auth.CreateToken(existingUser.Nickname)
		if err != nil {
			http.Error(w, "Failed to generate token", http.StatusInternalServerError)
			log.Println("AddUser: Token generation error:", err)
			return
		}

		setAuthCookie(w, tokenString)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"message": "User already exists!",
		})
		log.Printf("AddUser: User %s already exists\n", existingUser.Nickname)
		return
	}

	result = db.Create(&user)
	if result.Error != nil {
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		log.Println("AddUser: Database creation error:", result.Error)
		return
	}

	tokenString, err := auth.CreateToken(user.Nickname)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		log.Println("AddUser: Token generation error:", err)
		return
	}

	setAuthCookie(w, tokenString)

	response := map[string]interface{}{
		"user": user,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
	log.Println("AddUser: User created successfully")
}

func setAuthCookie(w http.ResponseWriter, tokenString string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    tokenString,
		Path:     "/",
		HttpOnly: true,
		Domain:   config.Env.Domain,
		Secure:   config.Env.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400, // 24 hours
	})
}
