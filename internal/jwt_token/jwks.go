package jwttoken

import (
	"crypto/ecdsa"
	"encoding/base64"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// JWK is the public half of an EC signing key as published to relying parties.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
	Kid string `json:"kid,omitempty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
}

// JWKSet is served at /.well-known/jwks.json.
type JWKSet struct {
	Keys []JWK `json:"keys"`
}

func (s *Signer) KeyID() string {
	return s.kid
}

// JWKS publishes the key that verifies our credentials and access tokens.
func (s *Signer) JWKS() (*JWKSet, error) {
	jwk, err := ecJWK(s.PublicKey(), s.kid)
	if err != nil {
		return nil, err
	}
	return &JWKSet{Keys: []JWK{*jwk}}, nil
}

func ecJWK(pub *ecdsa.PublicKey, kid string) (*JWK, error) {
	ecdh, err := pub.ECDH()
	if err != nil {
		return nil, fmt.Errorf("encode jwk: %w", err)
	}
	// Uncompressed point: 0x04 || X || Y, coordinates left-padded to the curve size.
	raw := ecdh.Bytes()
	size := (len(raw) - 1) / 2
	return &JWK{
		Kty: "EC",
		Crv: pub.Curve.Params().Name,
		X:   base64.RawURLEncoding.EncodeToString(raw[1 : 1+size]),
		Y:   base64.RawURLEncoding.EncodeToString(raw[1+size:]),
		Kid: kid,
		Use: "sig",
		Alg: jwt.SigningMethodES256.Alg(),
	}, nil
}
