package jwttoken

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/requestcontext"
)

// AccessTokenClaims are carried by the bearer tokens /token hands out.
// Subject is our session id.
type AccessTokenClaims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// IssueAccessToken returns a signed token for sessionID and its expiry.
func (s *Signer) IssueAccessToken(ctx context.Context, sessionID, clientID string, ttl time.Duration) (string, time.Time, error) {
	now := requestcontext.Now(ctx)
	expires := now.Add(ttl)
	token, err := s.Sign(AccessTokenClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   sessionID,
			Audience:  jwt.ClaimStrings{s.issuer},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// ValidateAccessToken checks signature, issuer, audience and expiry.
func (s *Signer) ValidateAccessToken(ctx context.Context, tokenString string) (*AccessTokenClaims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing access token")
	}
	claims := new(AccessTokenClaims)
	err := s.Verify(tokenString, claims,
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return requestcontext.Now(ctx) }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "access token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid access token")
	}
	if claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "access token has no subject")
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(header[len(prefix):]), nil
}
