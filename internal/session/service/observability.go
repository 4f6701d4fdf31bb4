package service

import (
	"context"

	"f2f-cri/internal/session/models"
	"f2f-cri/pkg/platform/audit"
)

// emit sends a journey event for session. restricted and extensions may be nil.
func (s *Service) emit(ctx context.Context, name audit.EventName, session *models.Session, restricted, extensions map[string]any) {
	if s.auditor == nil {
		return
	}
	s.auditor.Emit(ctx, audit.Event{
		EventName:   name,
		ClientID:    session.ClientID,
		ComponentID: s.cfg.IssuerID,
		User:        session.AuditUser(),
		Restricted:  restricted,
		Extensions:  extensions,
	})
}

func (s *Service) transitioned(ctx context.Context, session *models.Session, from models.State) {
	s.metrics.IncTransition(session.State.String())
	s.logger.InfoContext(ctx, "session transitioned",
		"session_id", session.ID,
		"from", from.String(),
		"to", session.State.String(),
	)
}
