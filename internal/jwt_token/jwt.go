// Package jwttoken signs and verifies every JWT the issuer touches: our ES256
// credentials and access tokens, the relying party's request objects and its
// private_key_jwt client assertions.
package jwttoken

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnsupportedKey = errors.New("unsupported public key type")
	ErrKeyNotPEM      = errors.New("key is not a PEM encoded EC or RSA key")
)

// Signer issues ES256 JWTs under our issuer identity and verifies tokens it signed.
type Signer struct {
	key    *ecdsa.PrivateKey
	kid    string
	issuer string
}

func NewSigner(key *ecdsa.PrivateKey, kid, issuer string) *Signer {
	return &Signer{key: key, kid: kid, issuer: issuer}
}

// LoadSigningKey reads a P-256 private key from a PEM file. An empty path
// generates an ephemeral key, which is only acceptable for local runs.
func LoadSigningKey(path string) (*ecdsa.PrivateKey, error) {
	if path == "" {
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	return key, nil
}

func (s *Signer) Issuer() string {
	return s.issuer
}

// Sign serializes claims with ES256, stamping our kid in the header.
func (s *Signer) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	if s.kid != "" {
		token.Header["kid"] = s.kid
	}
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Verify parses a token we signed into claims. Registered claim checks follow
// opts; the algorithm is pinned to ES256.
func (s *Signer) Verify(tokenString string, claims jwt.Claims, opts ...jwt.ParserOption) error {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}))
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return &s.key.PublicKey, nil
	}, opts...)
	return err
}

// PublicKey exposes the verification key, e.g. for a JWKS document.
func (s *Signer) PublicKey() *ecdsa.PublicKey {
	return &s.key.PublicKey
}

// ParsePublicKeyPEM accepts an EC or RSA public key in PEM form.
func ParsePublicKeyPEM(data string) (crypto.PublicKey, error) {
	raw := []byte(strings.TrimSpace(data))
	if key, err := jwt.ParseECPublicKeyFromPEM(raw); err == nil {
		return key, nil
	}
	if key, err := jwt.ParseRSAPublicKeyFromPEM(raw); err == nil {
		return key, nil
	}
	return nil, ErrKeyNotPEM
}

// methodsFor pins the accepted algorithms to the key's family.
func methodsFor(key crypto.PublicKey) ([]string, error) {
	switch key.(type) {
	case *ecdsa.PublicKey:
		return []string{jwt.SigningMethodES256.Alg()}, nil
	case *rsa.PublicKey:
		return []string{jwt.SigningMethodRS256.Alg(), jwt.SigningMethodPS256.Alg()}, nil
	}
	return nil, ErrUnsupportedKey
}
