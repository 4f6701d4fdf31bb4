package service

import (
	"time"

	"go.uber.org/mock/gomock"

	"f2f-cri/internal/session/models"
	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/platform/audit"
)

func (s *ServiceSuite) TestAuthorize() {
	sess := s.seed(models.StateVendorSessionCreated)
	gomock.InOrder(
		s.mockAuditor.EXPECT().Emit(gomock.Any(), eventNamed(audit.EventAuthCodeIssued)),
		s.mockAuditor.EXPECT().Emit(gomock.Any(), eventNamed(audit.EventEnd)),
	)

	res, err := s.service.Authorize(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.NotEmpty(res.AuthorizationCode.Value)
	s.Equal(testRedirectURI, res.RedirectURI)
	s.Equal("xyz", res.State)

	stored := s.reload(sess.ID)
	s.Equal(models.StateAuthCodeIssued, stored.State)
	s.Equal(res.AuthorizationCode.Value, stored.AuthorizationCode)
	s.Equal(s.now.Add(10*time.Minute).Unix(), stored.AuthorizationCodeExpiry)
}

func (s *ServiceSuite) TestAuthorizeTwiceRefused() {
	sess := s.seed(models.StateVendorSessionCreated)
	s.mockAuditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Times(2)

	first, err := s.service.Authorize(s.ctx, sess.ID)
	s.Require().NoError(err)

	_, err = s.service.Authorize(s.ctx, sess.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState), "got %v", err)
	s.Equal(first.AuthorizationCode.Value, s.reload(sess.ID).AuthorizationCode)
}

func (s *ServiceSuite) TestAuthorizeRefused() {
	s.Run("before document selection", func() {
		sess := s.seed(models.StateCreated)
		_, err := s.service.Authorize(s.ctx, sess.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("at the expiry second", func() {
		sess := s.seed(models.StateVendorSessionCreated, func(m *models.Session) {
			m.ExpiryDate = s.now.Unix()
		})
		_, err := s.service.Authorize(s.ctx, sess.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeSessionExpired), "got %v", err)
		s.Empty(s.reload(sess.ID).AuthorizationCode)
	})

	s.Run("unknown session", func() {
		_, err := s.service.Authorize(s.ctx, "missing")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestAuthorizeExpiredInAnyState() {
	states := []models.State{
		models.StateCreated,
		models.StateVendorSessionCreated,
		models.StateAuthCodeIssued,
		models.StateAccessTokenIssued,
	}
	for _, state := range states {
		s.Run(string(state), func() {
			sess := s.seed(state, func(m *models.Session) {
				m.ExpiryDate = s.now.Add(-time.Second).Unix()
			})

			_, err := s.service.Authorize(s.ctx, sess.ID)
			s.True(dErrors.HasCode(err, dErrors.CodeSessionExpired), "got %v", err)
			s.Equal(state, s.reload(sess.ID).State)
		})
	}
}
