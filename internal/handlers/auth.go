package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/featurepulse/backend/internal/database"
	"github.com/featurepulse/backend/internal/middleware"
	"github.com/featurepulse/backend/internal/models"
	"github.com/featurepulse/backend/internal/services"
	"github.com/featurepulse/backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SignupRequest is the JSON body for POST /api/signup
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SigninRequest is the JSON body for POST /api/login
type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is the envelope for all auth endpoints
type AuthResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	User    map[string]interface{} `json:"user,omitempty"`
}

var (
	sessionManager *services.SessionManager
	secureCookies  bool
)

// InitAuthHandlers wires the session manager and cookie policy.
// secure should be true in any TLS deployment.
func InitAuthHandlers(sessions *services.SessionManager, secure bool) {
	sessionManager = sessions
	secureCookies = secure
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func jsonError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, AuthResponse{Success: false, Message: message})
}

// isUniqueViolation reports whether err is a Postgres unique-constraint error.
// Concurrent sign-ups with the same username race past the existence check;
// the users.username constraint settles it and we report "already taken".
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Signup handles user registration. No session is issued; the user logs in
// separately afterwards.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "Username and password are required.")
		return
	}
	if err := utils.ValidateUsername(req.Username); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	normalizedUsername := utils.NormalizeUsername(req.Username)

	// Friendly pre-check; the unique constraint is the real guard
	var existingUsername string
	err := database.PostgresDB.QueryRow(
		"SELECT username FROM users WHERE username = $1",
		normalizedUsername,
	).Scan(&existingUsername)
	if err == nil {
		jsonError(w, http.StatusBadRequest, "Username already exists.")
		return
	} else if err != sql.ErrNoRows {
		log.Printf("signup: existence check failed: %v", err)
		jsonError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("signup: password hash failed: %v", err)
		jsonError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	user := models.User{
		ID:        uuid.New(),
		Username:  normalizedUsername,
		CreatedAt: time.Now().UTC(),
	}
	_, err = database.PostgresDB.Exec(`
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Username, hashedPassword, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			jsonError(w, http.StatusBadRequest, "Username already exists.")
			return
		}
		log.Printf("signup: insert failed: %v", err)
		jsonError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "User registered successfully.",
		User: map[string]interface{}{
			"id":       user.ID.String(),
			"username": user.Username,
		},
	})
}

// Signin handles user login and issues the session cookie. A missing user
// and a wrong password produce the identical response so usernames cannot
// be enumerated.
func Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "Username and password are required.")
		return
	}

	normalizedUsername := utils.NormalizeUsername(req.Username)

	var user models.User
	err := database.PostgresDB.QueryRow(`
		SELECT id, username, password_hash, created_at FROM users WHERE username = $1
	`, normalizedUsername).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			jsonError(w, http.StatusBadRequest, "Invalid credentials.")
		} else {
			log.Printf("signin: lookup failed: %v", err)
			jsonError(w, http.StatusInternalServerError, "Internal server error.")
		}
		return
	}

	if !utils.VerifyPassword(req.Password, user.PasswordHash) {
		jsonError(w, http.StatusBadRequest, "Invalid credentials.")
		return
	}

	token, err := sessionManager.CreateSession(user.ID)
	if err != nil {
		log.Printf("signin: token signing failed: %v", err)
		jsonError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(services.SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful.",
	})
}

// Signout clears the session cookie. Tokens are stateless so there is
// nothing to invalidate server-side; the cookie simply goes away.
func Signout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Logged out successfully.",
	})
}
