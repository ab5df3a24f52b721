package pkg

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

const gameIDBytes = 9

// GenerateGameID returns a short url-safe random id.
func GenerateGameID() string {
	buf := make([]byte, gameIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}

	return base64.RawURLEncoding.EncodeToString(buf)
}

// GenerateNewSessionID returns the id stored in the anonymous session cookie.
func GenerateNewSessionID() string {
	return uuid.NewString()
}
