package service

import (
	"time"

	"go.uber.org/mock/gomock"

	"f2f-cri/internal/session/models"
	"f2f-cri/internal/vendor"
	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/platform/audit"
)

func (s *ServiceSuite) TestUserInfoPendingUntilBranchVisit() {
	sess := s.seed(models.StateAccessTokenIssued)
	s.mockVendor.EXPECT().GetCompletedSession(gomock.Any(), sess.VendorSessionID).
		Return(nil, vendor.ErrSessionNotCompleted)

	res, err := s.service.UserInfo(s.ctx, sess.AccessToken)
	s.Require().NoError(err)
	s.True(res.Pending)
	s.Equal(testSubject, res.Sub)
	s.Empty(res.CredentialJWT)
}

func (s *ServiceSuite) TestUserInfoIssuesThenServesStoredCredential() {
	sess := s.seed(models.StateAccessTokenIssued)
	s.expectCompleted(sess.VendorSessionID)
	s.mockAuditor.EXPECT().Emit(gomock.Any(), eventNamed(audit.EventVCIssued)).Times(1)

	first, err := s.service.UserInfo(s.ctx, sess.AccessToken)
	s.Require().NoError(err)
	s.False(first.Pending)
	s.Require().Len(first.CredentialJWT, 1)

	// no further vendor expectations: the stored credential is served
	second, err := s.service.UserInfo(s.ctx, sess.AccessToken)
	s.Require().NoError(err)
	s.Equal(first.CredentialJWT, second.CredentialJWT)
}

func (s *ServiceSuite) TestUserInfoVendorUnavailable() {
	sess := s.seed(models.StateAccessTokenIssued)
	s.mockVendor.EXPECT().GetCompletedSession(gomock.Any(), sess.VendorSessionID).
		Return(nil, &vendor.ProviderError{Category: vendor.ErrorTimeout, Retryable: true})

	_, err := s.service.UserInfo(s.ctx, sess.AccessToken)
	s.True(dErrors.HasCode(err, dErrors.CodeVendorUnavailable))
}

func (s *ServiceSuite) TestUserInfoRefused() {
	s.Run("garbage token", func() {
		_, err := s.service.UserInfo(s.ctx, "not-a-jwt")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("superseded token", func() {
		sess := s.seed(models.StateAccessTokenIssued)
		other, _, err := s.signer.IssueAccessToken(s.ctx, sess.ID, testClientID, time.Hour)
		s.Require().NoError(err)

		_, err = s.service.UserInfo(s.ctx, other)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("session not at token stage", func() {
		sess := s.seed(models.StateAuthCodeIssued)
		token, _, err := s.signer.IssueAccessToken(s.ctx, sess.ID, testClientID, time.Hour)
		s.Require().NoError(err)

		_, err = s.service.UserInfo(s.ctx, token)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}
