// Package auth mints and verifies the short-lived HS256 tokens that gate
// direct media byte fetches. The play page embeds a tokenized URL so the
// browser's audio/video element can stream without resending the session
// cookie through third-party contexts.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/okovalenko/mediadrop/internal/common"
)

// streamClaims binds a token to exactly one stored name.
type streamClaims struct {
	jwt.RegisteredClaims
	StoredName string `json:"stored_name"`
}

// GenerateStreamToken signs a token permitting playback of storedName for
// the given validity window.
func GenerateStreamToken(storedName string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, streamClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		StoredName: storedName,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyStreamToken parses the token and returns the stored name it covers.
// Expired, forged, and malformed tokens all yield common.ErrInvalidToken.
func VerifyStreamToken(tokenString string, secretKey []byte) (string, error) {
	claims := &streamClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.StoredName == "" {
		return "", common.ErrInvalidToken
	}

	return claims.StoredName, nil
}
