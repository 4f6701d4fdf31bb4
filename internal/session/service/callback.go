package service

import (
	"context"
	"errors"

	"f2f-cri/internal/credential"
	evmodels "f2f-cri/internal/evidence/models"
	"f2f-cri/internal/session/models"
	"f2f-cri/internal/vendor"
	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/platform/audit"
	"f2f-cri/pkg/platform/sentinel"
)

// HandleCallback processes the vendor's completion notice. When the relying
// party already holds an access token the credential is issued and
// delivered here; earlier in the journey /userinfo issues it instead.
func (s *Service) HandleCallback(ctx context.Context, req *models.CallbackRequest) error {
	switch req.Topic {
	case models.TopicSessionCompletion:
	case models.TopicThankYouEmail:
		s.logger.InfoContext(ctx, "thank you email requested", "vendor_session_id", req.SessionID)
		return nil
	default:
		s.logger.WarnContext(ctx, "ignoring vendor notification", "topic", req.Topic)
		return nil
	}

	session, err := s.sessions.FindByVendorSessionID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "no session for vendor session")
		}
		return s.sessionError(ctx, "callback", "", err)
	}

	// The relying party must have collected its authorization code first.
	switch session.State {
	case models.StateAuthCodeIssued, models.StateAccessTokenIssued:
	default:
		return s.sessionError(ctx, "callback", session.ID, errInvalidStateFor(session))
	}

	s.issuing.Lock(session.ID)
	defer s.issuing.Unlock(session.ID)

	completed, fields, err := s.fetchCompleted(ctx, session)
	if err != nil {
		return err
	}
	s.emit(ctx, audit.EventVendorResponse, session, nil, map[string]any{
		"previous_govuk_signin_journey_id": session.ClientSessionID,
		"evidence":                         []map[string]string{{"txn": completed.SessionID}},
	})

	if session.State != models.StateAccessTokenIssued {
		s.logger.InfoContext(ctx, "vendor session completed before token exchange",
			"session_id", session.ID,
			"state", session.State.String(),
		)
		return nil
	}

	_, err = s.issuer.Issue(ctx, credential.Input{
		Session:   session,
		Completed: completed,
		Fields:    fields,
		Deliver:   true,
	})
	return err
}

// fetchCompleted reads the finished vendor session and the document fields
// extracted from its media.
func (s *Service) fetchCompleted(ctx context.Context, session *models.Session) (*vendor.CompletedSession, *evmodels.DocumentFields, error) {
	completed, err := s.vendor.GetCompletedSession(ctx, session.VendorSessionID)
	if err != nil {
		return nil, nil, s.vendorError(ctx, "completed_session", session.ID, err)
	}
	fields, err := s.vendor.GetMediaContent(ctx, session.VendorSessionID, completed.MediaID)
	if err != nil {
		return nil, nil, s.vendorError(ctx, "media_content", session.ID, err)
	}
	return completed, fields, nil
}
