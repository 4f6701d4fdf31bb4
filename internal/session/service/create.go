package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	jwttoken "f2f-cri/internal/jwt_token"
	"f2f-cri/internal/session/models"
	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/platform/audit"
	"f2f-cri/pkg/platform/sentinel"
	"f2f-cri/pkg/requestcontext"
)

// CreateSession verifies the client's signed request, validates the shared
// identity claims and opens a new journey in CREATED. Nothing is written
// unless every check passes.
func (s *Service) CreateSession(ctx context.Context, req *models.CreateSessionRequest) (*models.CreateSessionResult, error) {
	const op = "create_session"

	rp, err := s.clients.Get(req.ClientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncAuthFailure(op, "unknown_client")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown client")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "client lookup failed")
	}

	var claims models.SessionRequestClaims
	if err := jwttoken.DecodeRequestObject(ctx, req.Request, rp.PublicKey, rp.AudienceOr(s.cfg.IssuerID), &claims); err != nil {
		s.metrics.IncAuthFailure(op, "request_object")
		return nil, err
	}
	if claims.ClientID != "" && claims.ClientID != req.ClientID {
		s.metrics.IncAuthFailure(op, "client_mismatch")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "request object issued for another client")
	}
	if err := claims.Validate(); err != nil {
		return nil, err
	}
	if claims.RedirectURI != rp.RedirectURI {
		return nil, dErrors.New(dErrors.CodeValidation, "redirect_uri does not match registration")
	}

	now := requestcontext.Now(ctx)
	session := &models.Session{
		ID:                  uuid.NewString(),
		ClientID:            req.ClientID,
		ClientSessionID:     claims.GovukSigninJourneyID,
		State:               models.StateCreated,
		RedirectURI:         claims.RedirectURI,
		OAuthState:          claims.State,
		Subject:             claims.Subject,
		PersistentSessionID: claims.PersistentSessionID,
		ClientIPAddress:     requestcontext.ClientIP(ctx),
		CreatedDate:         now.Unix(),
		ExpiryDate:          now.Add(s.cfg.AuthSessionTTL).Unix(),
		EvidenceRequested:   claims.EvidenceRequested,
		Person: models.PersonIdentity{
			Names:        claims.SharedClaims.Name,
			BirthDates:   claims.SharedClaims.BirthDate,
			Addresses:    claims.SharedClaims.Address,
			EmailAddress: claims.SharedClaims.EmailAddress,
		},
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, s.sessionError(ctx, op, session.ID, err)
	}
	s.metrics.IncSessionsCreated()
	s.logger.InfoContext(ctx, "session created",
		"session_id", session.ID,
		"client_id", session.ClientID,
		"govuk_signin_journey_id", session.ClientSessionID,
	)

	var extensions map[string]any
	if session.EvidenceRequested != nil {
		extensions = map[string]any{"evidence_requested": session.EvidenceRequested}
	}
	s.emit(ctx, audit.EventStart, session, nil, extensions)

	return &models.CreateSessionResult{
		SessionID:   session.ID,
		State:       session.OAuthState,
		RedirectURI: session.RedirectURI,
	}, nil
}
