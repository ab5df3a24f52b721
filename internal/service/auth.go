package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
	"github.com/rocketscienceinc/torusgo-backend/internal/pkg"
)

const (
	SessionCookieName = "user_session"

	sessionCookieMaxAge = 365 * 24 * time.Hour
	tokenTTL            = 24 * time.Hour

	// Actor ids carry their origin so a cookie value can never name a
	// registered actor.
	registeredPrefix = "user:"
	anonymousPrefix  = "anon:"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySubject = errors.New("token has no subject")
)

type AuthService interface {
	GenerateToken(actorID string) (string, error)
	ParseToken(token string) (entity.Actor, error)
	Identify(w http.ResponseWriter, r *http.Request) (entity.Actor, error)
}

type authServiceImpl struct {
	secretKey []byte
	now       func() time.Time
}

func NewAuthService(secretKey string) AuthService {
	return &authServiceImpl{
		secretKey: []byte(secretKey),
		now:       time.Now,
	}
}

func (that *authServiceImpl) GenerateToken(actorID string) (string, error) {
	now := that.now()
	claims := jwt.RegisteredClaims{
		Subject:   actorID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(that.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (that *authServiceImpl) ParseToken(tokenString string) (entity.Actor, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return that.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(that.now))
	if err != nil {
		return entity.Actor{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return entity.Actor{}, ErrEmptySubject
	}

	return entity.Actor{ID: registeredPrefix + claims.Subject}, nil
}

// Identify resolves the actor behind a request. A bearer token names a
// registered actor. Without one the caller is anonymous and keyed by the
// session cookie, which is minted when missing.
func (that *authServiceImpl) Identify(w http.ResponseWriter, r *http.Request) (entity.Actor, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return entity.Actor{}, ErrInvalidToken
		}

		return that.ParseToken(strings.TrimSpace(tokenString))
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return anonymousActor(cookie.Value), nil
	}

	sessionID := pkg.GenerateNewSessionID()
	if w != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    sessionID,
			Path:     "/",
			Expires:  that.now().Add(sessionCookieMaxAge),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	return anonymousActor(sessionID), nil
}

func anonymousActor(sessionID string) entity.Actor {
	return entity.Actor{ID: anonymousPrefix + sessionID, Anonymous: true}
}
