package service

import (
	"context"
	"errors"
	"fmt"

	jwttoken "f2f-cri/internal/jwt_token"
	"f2f-cri/internal/session/models"
	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/platform/sentinel"
	"f2f-cri/pkg/requestcontext"
)

const tokenTypeBearer = "Bearer"

// ExchangeToken redeems an authorization code for an access token. The
// client authenticates with a private_key_jwt assertion; the code is cleared
// in the same write that moves the session to ACCESS_TOKEN_ISSUED.
func (s *Service) ExchangeToken(ctx context.Context, req *models.TokenRequest) (*models.TokenResult, error) {
	const op = "token"

	if err := req.Validate(); err != nil {
		return nil, err
	}

	session, err := s.sessions.FindByAuthorizationCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncAuthFailure(op, "unknown_code")
			return nil, dErrors.New(dErrors.CodeInvalidGrant, "invalid authorization code")
		}
		return nil, s.sessionError(ctx, op, "", err)
	}

	rp, err := s.clients.Get(session.ClientID)
	if err != nil {
		s.metrics.IncAuthFailure(op, "unknown_client")
		return nil, dErrors.New(dErrors.CodeInvalidClient, "unknown client")
	}
	if err := jwttoken.VerifyClientAssertion(ctx, req.ClientAssertion, rp.ID, rp.PublicKey, rp.AudienceOr(s.cfg.IssuerID)); err != nil {
		s.metrics.IncAuthFailure(op, "client_assertion")
		return nil, err
	}
	if req.RedirectURI != session.RedirectURI {
		s.metrics.IncAuthFailure(op, "redirect_mismatch")
		return nil, dErrors.New(dErrors.CodeInvalidGrant, "redirect_uri mismatch")
	}

	token, expires, err := s.tokens.IssueAccessToken(ctx, session.ID, session.ClientID, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}

	now := requestcontext.Now(ctx)
	from := session.State
	updated, err := s.sessions.Execute(ctx, session.ID,
		func(current *models.Session) error {
			if current.State != models.StateAuthCodeIssued || current.AuthorizationCode != req.Code {
				return fmt.Errorf("token in %s: %w", current.State, sentinel.ErrAlreadyUsed)
			}
			if now.Unix() > current.AuthorizationCodeExpiry {
				return fmt.Errorf("authorization code: %w", sentinel.ErrExpired)
			}
			return nil
		},
		func(current *models.Session) {
			current.State = models.StateAccessTokenIssued
			current.AuthorizationCode = ""
			current.AccessToken = token
			current.AccessTokenExpiry = expires.Unix()
		},
	)
	if err != nil {
		return nil, s.grantError(ctx, op, session.ID, err)
	}
	s.transitioned(ctx, updated, from)

	return &models.TokenResult{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// grantError keeps the OAuth error vocabulary on /token: a code that was
// spent, expired or raced away is invalid_grant.
func (s *Service) grantError(ctx context.Context, op, sessionID string, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrAlreadyUsed), errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrConflict):
		s.metrics.IncAuthFailure(op, "code_used")
		return dErrors.Wrap(err, dErrors.CodeInvalidGrant, "invalid authorization code")
	case errors.Is(err, sentinel.ErrExpired):
		s.metrics.IncAuthFailure(op, "code_expired")
		return dErrors.Wrap(err, dErrors.CodeInvalidGrant, "authorization code expired")
	}
	return s.sessionError(ctx, op, sessionID, err)
}
