package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// SessionDuration is 1 hour
	SessionDuration = time.Hour
)

// ErrInvalidSession covers every rejection reason: missing, malformed,
// expired, or tampered tokens. Callers get no finer detail.
var ErrInvalidSession = errors.New("invalid or expired session")

// SessionClaims is the JWT payload. The user ID is the sole custom claim.
type SessionClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates signed session tokens. Tokens are
// stateless: nothing is stored server-side, so validity is purely
// signature plus expiry and there is no revocation.
type SessionManager struct {
	secret []byte
}

func NewSessionManager(secret string) (*SessionManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &SessionManager{secret: []byte(secret)}, nil
}

// CreateSession signs a token for the user with a 1-hour expiry.
func (m *SessionManager) CreateSession(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// ValidateSession checks signature and expiry and returns the embedded user ID.
func (m *SessionManager) ValidateSession(tokenString string) (uuid.UUID, error) {
	if tokenString == "" {
		return uuid.Nil, ErrInvalidSession
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Reject algorithm substitution: only HMAC tokens are ever issued
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return uuid.Nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrInvalidSession
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidSession
	}

	return userID, nil
}
