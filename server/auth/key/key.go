package key

import (
	"crypto/rsa"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/lestrrat-go/jwx/jwk"
)

const KEY_ID = "lifeline-key-id"

type JWKS struct {
	Keys []interface{} `json:"keys"`
}

type KeyPair struct {
	Kid        string
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
}

// LoadKeyPair accepts either a PEM encoded RSA private key or a path to one
func LoadKeyPair(pemOrPath string) (*KeyPair, error) {
	if strings.Contains(pemOrPath, "-----BEGIN") {
		return NewKeyPairFromPem([]byte(pemOrPath))
	}

	return NewKeyPairFromRSAPrivateKeyPem(pemOrPath)
}

func NewKeyPairFromRSAPrivateKeyPem(filePath string) (*KeyPair, error) {
	privateKeyBytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return NewKeyPairFromPem(privateKeyBytes)
}

func NewKeyPairFromPem(privateKeyBytes []byte) (*KeyPair, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("unable to parse RSA private key: %v", err)
	}

	return &KeyPair{
		Kid:        KEY_ID,
		PrivateKey: privateKey,
		PublicKey:  &privateKey.PublicKey}, nil
}

func (keyPair *KeyPair) JWK() (jwk.Key, error) {
	keyPairJWK, err := jwk.New(keyPair.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("JWK: %v", err)
	}
	keyPairJWK.Set(jwk.KeyIDKey, keyPair.Kid)
	keyPairJWK.Set(jwk.AlgorithmKey, "RS256")
	keyPairJWK.Set(jwk.KeyUsageKey, "sig")

	return keyPairJWK, nil
}

func ExportJWKAsJWKS(jwk jwk.Key) JWKS {
	return JWKS{Keys: []interface{}{jwk}}
}
