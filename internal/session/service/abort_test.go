package service

import (
	"context"

	"go.uber.org/mock/gomock"

	"f2f-cri/internal/session/models"
	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/platform/audit"
)

func (s *ServiceSuite) TestAbort() {
	sess := s.seed(models.StateVendorSessionCreated)
	s.mockAuditor.EXPECT().Emit(gomock.Any(), eventNamed(audit.EventSessionAborted)).
		Do(func(_ context.Context, e audit.Event) {
			s.Equal("user_cancelled", e.Extensions["reason"])
		})

	res, err := s.service.Abort(s.ctx, sess.ID, &models.AbortRequest{Reason: "user_cancelled"})
	s.Require().NoError(err)
	s.Equal(testRedirectURI+"?error=access_denied&state=xyz", res.Location)
	s.Equal("Session has been aborted", res.Message)
	s.Equal(models.StateAborted, s.reload(sess.ID).State)
}

func (s *ServiceSuite) TestAbortRepeatIsQuiet() {
	sess := s.seed(models.StateCreated)
	s.mockAuditor.EXPECT().Emit(gomock.Any(), eventNamed(audit.EventSessionAborted)).Times(1)

	first, err := s.service.Abort(s.ctx, sess.ID, nil)
	s.Require().NoError(err)
	second, err := s.service.Abort(s.ctx, sess.ID, nil)
	s.Require().NoError(err)
	s.Equal(first.Location, second.Location)
}

func (s *ServiceSuite) TestAbortRedirectWithQuery() {
	sess := s.seed(models.StateAuthCodeIssued, func(m *models.Session) {
		m.RedirectURI = "https://ipv.example/callback?lang=cy"
	})
	s.mockAuditor.EXPECT().Emit(gomock.Any(), gomock.Any())

	res, err := s.service.Abort(s.ctx, sess.ID, nil)
	s.Require().NoError(err)
	s.Equal("https://ipv.example/callback?lang=cy&error=access_denied&state=xyz", res.Location)
}

func (s *ServiceSuite) TestAbortAfterTokenRefused() {
	sess := s.seed(models.StateAccessTokenIssued)

	_, err := s.service.Abort(s.ctx, sess.ID, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState), "got %v", err)
	s.Equal(models.StateAccessTokenIssued, s.reload(sess.ID).State)
}
