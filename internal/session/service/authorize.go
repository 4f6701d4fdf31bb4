package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"f2f-cri/internal/session/models"
	"f2f-cri/pkg/platform/audit"
	"f2f-cri/pkg/platform/sentinel"
	"f2f-cri/pkg/requestcontext"
)

// Authorize issues the single-use authorization code. It is legal once, from
// VENDOR_SESSION_CREATED, before the session expires. Expiry is checked first
// so an expired session reports expiry whatever its state.
func (s *Service) Authorize(ctx context.Context, sessionID string) (*models.AuthorizationResult, error) {
	const op = "authorization"

	now := requestcontext.Now(ctx)
	code := uuid.NewString()

	var from models.State
	session, err := s.sessions.Execute(ctx, sessionID,
		func(current *models.Session) error {
			from = current.State
			if current.IsExpired(now) {
				return fmt.Errorf("authorize in %s: %w", current.State, sentinel.ErrExpired)
			}
			if current.State != models.StateVendorSessionCreated {
				return fmt.Errorf("authorize in %s: %w", current.State, sentinel.ErrInvalidState)
			}
			return nil
		},
		func(current *models.Session) {
			current.State = models.StateAuthCodeIssued
			current.AuthorizationCode = code
			current.AuthorizationCodeExpiry = now.Add(s.cfg.AuthCodeTTL).Unix()
		},
	)
	if err != nil {
		return nil, s.sessionError(ctx, op, sessionID, err)
	}
	s.transitioned(ctx, session, from)

	s.emit(ctx, audit.EventAuthCodeIssued, session, nil, nil)
	s.emit(ctx, audit.EventEnd, session, nil, nil)

	return &models.AuthorizationResult{
		AuthorizationCode: models.AuthorizationCode{Value: code},
		RedirectURI:       session.RedirectURI,
		State:             session.OAuthState,
	}, nil
}
