package service

import (
	"context"
	"errors"

	"f2f-cri/internal/credential"
	"f2f-cri/internal/session/models"
	"f2f-cri/internal/vendor"
	dErrors "f2f-cri/pkg/domain-errors"
)

// UserInfo returns the credential for the session the bearer token was issued
// for. When the branch visit has not completed yet the result is Pending.
func (s *Service) UserInfo(ctx context.Context, accessToken string) (*models.UserInfoResult, error) {
	const op = "userinfo"

	claims, err := s.tokens.ValidateAccessToken(ctx, accessToken)
	if err != nil {
		s.metrics.IncAuthFailure(op, "access_token")
		return nil, err
	}

	session, err := s.sessions.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, s.sessionError(ctx, op, claims.Subject, err)
	}
	if session.State != models.StateAccessTokenIssued {
		return nil, s.sessionError(ctx, op, session.ID, errInvalidStateFor(session))
	}
	if session.AccessToken != accessToken {
		s.metrics.IncAuthFailure(op, "token_mismatch")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "access token not current for session")
	}

	s.issuing.Lock(session.ID)
	defer s.issuing.Unlock(session.ID)

	existing, err := s.issuer.Existing(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return userInfoResult(session, existing), nil
	}

	completed, err := s.vendor.GetCompletedSession(ctx, session.VendorSessionID)
	if errors.Is(err, vendor.ErrSessionNotCompleted) {
		return &models.UserInfoResult{Sub: session.Subject, Pending: true}, nil
	}
	if err != nil {
		return nil, s.vendorError(ctx, "completed_session", session.ID, err)
	}
	fields, err := s.vendor.GetMediaContent(ctx, session.VendorSessionID, completed.MediaID)
	if err != nil {
		return nil, s.vendorError(ctx, "media_content", session.ID, err)
	}

	out, err := s.issuer.Issue(ctx, credential.Input{
		Session:   session,
		Completed: completed,
		Fields:    fields,
	})
	if err != nil {
		return nil, err
	}
	return userInfoResult(session, out), nil
}

func userInfoResult(session *models.Session, out *credential.Outcome) *models.UserInfoResult {
	if out.Pending {
		return &models.UserInfoResult{Sub: session.Subject, Pending: true}
	}
	return &models.UserInfoResult{Sub: session.Subject, CredentialJWT: []string{out.VC}}
}
