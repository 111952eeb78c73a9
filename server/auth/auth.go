package auth

import (
	"fmt"
	"time"

	"github.com/Daskott/lifeline/server/auth/key"
	"github.com/golang-jwt/jwt"
)

const (
	ISSUER            = "lifeline"
	DEFAULT_TOKEN_TTL = 24 * time.Hour
)

// LifelineTokenClaims identifies the caller. Subject holds the user id.
type LifelineTokenClaims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.StandardClaims
}

// NewClaims builds claims for 'userID' valid from now for 'ttl'
func NewClaims(userID string, isAdmin bool, ttl time.Duration) LifelineTokenClaims {
	now := time.Now()
	return LifelineTokenClaims{
		IsAdmin: isAdmin,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			Issuer:    ISSUER,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
}

func EncodeJWT(claims LifelineTokenClaims, keyPair *key.KeyPair) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod("RS256"), claims)
	token.Header["kid"] = keyPair.Kid

	tokenString, err := token.SignedString(keyPair.PrivateKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func DecodeJWT(tokenString string, keyPair *key.KeyPair) (*LifelineTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &LifelineTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		// validate the alg is what you expect:
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return keyPair.PublicKey, nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid jwt: %v", err)
	}

	tokenClaims, ok := token.Claims.(*LifelineTokenClaims)
	if !ok {
		return nil, fmt.Errorf("unable to assert token.Claims to LifelineTokenClaims")
	}

	if tokenClaims.Subject == "" {
		return nil, fmt.Errorf("invalid jwt: no subject")
	}

	return tokenClaims, nil
}
