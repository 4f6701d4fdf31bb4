package service

import (
	"context"
	"sync"

	"go.uber.org/mock/gomock"

	"f2f-cri/internal/credential"
	"f2f-cri/internal/session/models"
	"f2f-cri/internal/vendor"
	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/platform/audit"
)

func completion(vendorSessionID string) *models.CallbackRequest {
	return &models.CallbackRequest{SessionID: vendorSessionID, Topic: models.TopicSessionCompletion}
}

func (s *ServiceSuite) TestCallbackIssuesAndDelivers() {
	sess := s.seed(models.StateAccessTokenIssued)
	s.expectCompleted(sess.VendorSessionID)

	var delivered credential.DeliveryMessage
	gomock.InOrder(
		s.mockAuditor.EXPECT().Emit(gomock.Any(), eventNamed(audit.EventVendorResponse)).
			Do(func(_ context.Context, e audit.Event) {
				s.Equal("journey-1", e.Extensions["previous_govuk_signin_journey_id"])
			}),
		s.mockNotifier.EXPECT().PublishJSON(gomock.Any(), deliveryTopic, sess.ID, gomock.AssignableToTypeOf(credential.DeliveryMessage{})).
			Do(func(_ context.Context, _, _ string, v any) {
				delivered = v.(credential.DeliveryMessage)
			}),
		s.mockAuditor.EXPECT().Emit(gomock.Any(), eventNamed(audit.EventVCIssued)),
	)

	s.Require().NoError(s.service.HandleCallback(s.ctx, completion(sess.VendorSessionID)))

	s.Equal(testSubject, delivered.Sub)
	s.Equal("xyz", delivered.State)
	s.Require().Len(delivered.CredentialJWT, 1)

	vc, found, err := s.guard.Lookup(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.True(found)
	s.Equal(delivered.CredentialJWT[0], vc)
}

func (s *ServiceSuite) TestCallbackBeforeTokenExchange() {
	sess := s.seed(models.StateAuthCodeIssued)
	s.expectCompleted(sess.VendorSessionID)
	s.mockAuditor.EXPECT().Emit(gomock.Any(), eventNamed(audit.EventVendorResponse))

	s.Require().NoError(s.service.HandleCallback(s.ctx, completion(sess.VendorSessionID)))

	_, found, err := s.guard.Lookup(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.False(found)
}

func (s *ServiceSuite) TestCallbackRefused() {
	s.Run("unknown vendor session", func() {
		err := s.service.HandleCallback(s.ctx, completion("nobody"))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("vendor session not finished", func() {
		sess := s.seed(models.StateAccessTokenIssued)
		s.mockVendor.EXPECT().GetCompletedSession(gomock.Any(), sess.VendorSessionID).
			Return(nil, vendor.ErrSessionNotCompleted)

		err := s.service.HandleCallback(s.ctx, completion(sess.VendorSessionID))
		s.True(dErrors.HasCode(err, dErrors.CodeIncompleteEvidence), "got %v", err)
	})

	for _, state := range []models.State{models.StateVendorSessionCreated, models.StateAborted} {
		s.Run("in "+string(state), func() {
			sess := s.seed(state)
			err := s.service.HandleCallback(s.ctx, completion(sess.VendorSessionID))
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidState), "got %v", err)
			s.Equal(state, s.reload(sess.ID).State)
		})
	}
}

func (s *ServiceSuite) TestCallbackIgnoresOtherTopics() {
	for _, topic := range []string{models.TopicThankYouEmail, "first_branch_visit"} {
		s.NoError(s.service.HandleCallback(s.ctx, &models.CallbackRequest{SessionID: "any", Topic: topic}))
	}
}

func (s *ServiceSuite) TestCallbackRacingUserInfoIssuesOnce() {
	sess := s.seed(models.StateAccessTokenIssued)
	s.mockVendor.EXPECT().GetCompletedSession(gomock.Any(), sess.VendorSessionID).
		Return(completedSession(sess.VendorSessionID), nil).AnyTimes()
	s.mockVendor.EXPECT().GetMediaContent(gomock.Any(), sess.VendorSessionID, "media-1").
		Return(passportFields(), nil).AnyTimes()
	s.mockAuditor.EXPECT().Emit(gomock.Any(), eventNamed(audit.EventVendorResponse)).AnyTimes()
	s.mockAuditor.EXPECT().Emit(gomock.Any(), eventNamed(audit.EventVCIssued)).Times(1)
	s.mockNotifier.EXPECT().PublishJSON(gomock.Any(), deliveryTopic, sess.ID, gomock.Any()).MaxTimes(1)

	var wg sync.WaitGroup
	results := make(chan string, 5)
	for range 5 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.NoError(s.service.HandleCallback(s.ctx, completion(sess.VendorSessionID)))
		}()
		go func() {
			defer wg.Done()
			res, err := s.service.UserInfo(s.ctx, sess.AccessToken)
			if s.NoError(err) && !res.Pending {
				results <- res.CredentialJWT[0]
			}
		}()
	}
	wg.Wait()
	close(results)

	stored, found, err := s.guard.Lookup(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.True(found)
	for vc := range results {
		s.Equal(stored, vc)
	}
}
