package service

import (
	"time"

	"f2f-cri/internal/session/models"
	dErrors "f2f-cri/pkg/domain-errors"
)

func (s *ServiceSuite) TestSessionConfiguration() {
	s.Run("carries the requested strength", func() {
		sess := s.seed(models.StateCreated, func(m *models.Session) {
			m.EvidenceRequested = &models.EvidenceRequested{StrengthScore: 4}
		})

		res, err := s.service.SessionConfiguration(s.ctx, sess.ID)
		s.Require().NoError(err)
		s.Equal(&models.EvidenceRequested{StrengthScore: 4}, res.EvidenceRequested)
		s.Contains(res.DocumentTypes, models.SelectionUKPassport)
		s.Len(res.DocumentTypes, 6)
	})

	s.Run("without evidence requested", func() {
		sess := s.seed(models.StateVendorSessionCreated)

		res, err := s.service.SessionConfiguration(s.ctx, sess.ID)
		s.Require().NoError(err)
		s.Nil(res.EvidenceRequested)
	})

	s.Run("expired", func() {
		sess := s.seed(models.StateCreated, func(m *models.Session) {
			m.ExpiryDate = s.now.Add(-time.Second).Unix()
		})

		_, err := s.service.SessionConfiguration(s.ctx, sess.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeSessionExpired), "got %v", err)
	})

	s.Run("unknown session", func() {
		_, err := s.service.SessionConfiguration(s.ctx, "missing")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized), "got %v", err)
	})
}
