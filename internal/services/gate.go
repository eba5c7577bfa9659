package services

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/curately/groundtruth-backend/internal/platform/logger"
)

// GateService checks the shared review-room secret and issues the short
// session tokens the rest of the API requires.
type GateService interface {
	Verify(secret string) bool
	IssueToken() (string, error)
	ParseToken(tokenString string) error
	SessionTTL() time.Duration
}

type gateService struct {
	log          *logger.Logger
	sharedSecret string
	bcryptHash   string
	jwtSecretKey string
	sessionTTL   time.Duration
}

type gateClaims struct {
	jwt.RegisteredClaims
}

func NewGateService(log *logger.Logger, sharedSecret, bcryptHash, jwtSecretKey string, sessionTTL time.Duration) GateService {
	return &gateService{
		log:          log.With("service", "GateService"),
		sharedSecret: sharedSecret,
		bcryptHash:   bcryptHash,
		jwtSecretKey: jwtSecretKey,
		sessionTTL:   sessionTTL,
	}
}

// Verify checks the presented secret against the configured one. A bcrypt
// hash takes precedence over the plaintext secret; with neither configured
// every attempt is refused.
func (gs *gateService) Verify(secret string) bool {
	if gs.bcryptHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(gs.bcryptHash), []byte(secret)) == nil
	}
	if gs.sharedSecret != "" {
		return subtle.ConstantTimeCompare([]byte(gs.sharedSecret), []byte(secret)) == 1
	}
	gs.log.Error("No shared secret configured, refusing all verification attempts")
	return false
}

func (gs *gateService) IssueToken() (string, error) {
	now := time.Now()
	claims := gateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(gs.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(gs.jwtSecretKey))
}

func (gs *gateService) ParseToken(tokenString string) error {
	parsedToken, err := jwt.ParseWithClaims(tokenString, &gateClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(gs.jwtSecretKey), nil
	})
	if err != nil {
		return fmt.Errorf("Failed to parse token: %w", err)
	}
	if !parsedToken.Valid {
		return fmt.Errorf("Invalid or expired session token")
	}
	return nil
}

func (gs *gateService) SessionTTL() time.Duration {
	return gs.sessionTTL
}
