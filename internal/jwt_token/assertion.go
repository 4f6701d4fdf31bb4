package jwttoken

import (
	"context"
	"crypto"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/requestcontext"
)

// VerifyClientAssertion checks a private_key_jwt client assertion (RFC 7523):
// signed by the client's key, iss and sub equal to clientID, our audience,
// unexpired, with a jti.
func VerifyClientAssertion(ctx context.Context, assertion, clientID string, key crypto.PublicKey, audience string) error {
	methods, err := methodsFor(key)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidClient, "client key unusable")
	}

	claims := new(jwt.RegisteredClaims)
	_, err = jwt.ParseWithClaims(assertion, claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods(methods),
		jwt.WithAudience(audience),
		jwt.WithIssuer(clientID),
		jwt.WithSubject(clientID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return requestcontext.Now(ctx) }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dErrors.New(dErrors.CodeInvalidClient, "client assertion expired")
		}
		return dErrors.New(dErrors.CodeInvalidClient, "client assertion invalid")
	}
	if claims.ID == "" {
		return dErrors.New(dErrors.CodeInvalidClient, "client assertion has no jti")
	}
	return nil
}

// DecodeRequestObject verifies a client-signed request JWT and decodes its
// claims into dst. The audience must be ours and the token unexpired.
func DecodeRequestObject(ctx context.Context, token string, key crypto.PublicKey, audience string, dst any) error {
	methods, err := methodsFor(key)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, "client key unusable")
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods(methods),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return requestcontext.Now(ctx) }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dErrors.New(dErrors.CodeUnauthorized, "request object expired")
		}
		return dErrors.New(dErrors.CodeUnauthorized, "request object invalid")
	}

	raw, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("re-encode request claims: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "request object claims malformed")
	}
	return nil
}
