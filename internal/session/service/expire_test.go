package service

import (
	"errors"
	"time"

	"go.uber.org/mock/gomock"

	"f2f-cri/internal/credential"
	"f2f-cri/internal/session/models"
)

func (s *ServiceSuite) seedOld(state models.State) *models.Session {
	return s.seed(state, func(m *models.Session) {
		m.CreatedDate = s.now.Add(-17 * 24 * time.Hour).Unix()
	})
}

func (s *ServiceSuite) TestExpireSessions() {
	old := s.seedOld(models.StateAuthCodeIssued)
	fresh := s.seed(models.StateVendorSessionCreated)

	s.mockNotifier.EXPECT().PublishJSON(gomock.Any(), deliveryTopic, old.ID,
		credential.NewExpiryNotice(testSubject, "xyz")).Return(nil)

	sent, err := s.service.ExpireSessions(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, sent)
	s.True(s.reload(old.ID).ExpiryNotified)
	s.False(s.reload(fresh.ID).ExpiryNotified)

	sent, err = s.service.ExpireSessions(s.ctx)
	s.Require().NoError(err)
	s.Zero(sent)
}

func (s *ServiceSuite) TestExpireSessionsSkipsIssued() {
	issued := s.seedOld(models.StateAccessTokenIssued)
	claimed, _, err := s.guard.Claim(s.ctx, issued.ID)
	s.Require().NoError(err)
	s.Require().True(claimed)
	s.Require().NoError(s.guard.Complete(s.ctx, issued.ID, "header.payload.sig"))

	sent, err := s.service.ExpireSessions(s.ctx)
	s.Require().NoError(err)
	s.Zero(sent)
	s.True(s.reload(issued.ID).ExpiryNotified)
}

func (s *ServiceSuite) TestExpireSessionsIgnoresFinishedJourneys() {
	s.seedOld(models.StateAborted)
	s.seedOld(models.StateCreated)

	sent, err := s.service.ExpireSessions(s.ctx)
	s.Require().NoError(err)
	s.Zero(sent)
}

func (s *ServiceSuite) TestExpireSessionsPublishFailureRetriesLater() {
	old := s.seedOld(models.StateVendorSessionCreated)
	s.mockNotifier.EXPECT().PublishJSON(gomock.Any(), deliveryTopic, old.ID, gomock.Any()).
		Return(errors.New("broker down"))

	sent, err := s.service.ExpireSessions(s.ctx)
	s.Error(err)
	s.Zero(sent)
	s.False(s.reload(old.ID).ExpiryNotified)

	s.mockNotifier.EXPECT().PublishJSON(gomock.Any(), deliveryTopic, old.ID, gomock.Any()).Return(nil)
	sent, err = s.service.ExpireSessions(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, sent)
}
