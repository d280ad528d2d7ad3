package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"voicenet/domain"
)

// jwtKey is the secret used to sign voice tokens.
// In a production environment, this should be loaded from an environment variable or a secret manager.
var jwtKey = []byte("voicenet_local_signing_key_2026")

// VoiceClaims is what a media transport needs to admit a participant to a
// single net.
type VoiceClaims struct {
	UserID   string `json:"user_id"`
	Callsign string `json:"callsign"`
	ClientID string `json:"client_id"`
	NetID    string `json:"net_id"`
	Rank     string `json:"rank"`
	jwt.RegisteredClaims
}

// GenerateVoiceToken creates a signed JWT scoped to one net.
func GenerateVoiceToken(user domain.User, netID domain.NetID, duration time.Duration) (string, error) {
	expirationTime := time.Now().Add(duration)

	claims := &VoiceClaims{
		UserID:   user.ID,
		Callsign: user.Callsign,
		ClientID: user.ClientID,
		NetID:    string(netID),
		Rank:     string(user.Rank),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "voicenet",
		},
	}

	// HS256 (HMAC with SHA256), same as every other token in the stack.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// ValidateVoiceToken parses and validates the signature and expiration of a
// voice token.
func ValidateVoiceToken(tokenString string) (*VoiceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &VoiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*VoiceClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
