package models

import "f2f-cri/pkg/platform/audit"

// AuditUser is the user block every journey event carries.
func (s *Session) AuditUser() audit.User {
	return audit.User{
		SessionID:            s.ID,
		UserID:               s.Subject,
		IPAddress:            s.ClientIPAddress,
		PersistentSessionID:  s.PersistentSessionID,
		GovukSigninJourneyID: s.ClientSessionID,
	}
}
