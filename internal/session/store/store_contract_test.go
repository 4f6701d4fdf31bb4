package store_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	evmodels "f2f-cri/internal/evidence/models"
	"f2f-cri/internal/session/models"
	"f2f-cri/internal/session/store"
	"f2f-cri/pkg/platform/sentinel"
	"f2f-cri/pkg/testutil"
)

// StoreContractSuite holds the behaviour every backend must share.
// Backends embed it and set newStore.
type StoreContractSuite struct {
	suite.Suite
	newStore func() store.Store
	store    store.Store
	ctx      context.Context
}

func (s *StoreContractSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

func newSession(createdDate int64) *models.Session {
	return testutil.NewSessionBuilder().
		CreatedAt(createdDate).
		WithEvidenceRequested(3).
		Build()
}

func noCheck(*models.Session) error { return nil }

func (s *StoreContractSuite) TestCreateAndFind() {
	sess := newSession(time.Now().Unix())
	s.Require().NoError(s.store.Create(s.ctx, sess))

	found, err := s.store.FindByID(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.Subject, found.Subject)
	s.Equal(models.StateCreated, found.State)
	s.Require().NotNil(found.EvidenceRequested)
	s.Equal(3, found.EvidenceRequested.StrengthScore)
	s.Equal("Frederick", found.Person.Names[0].NameParts[0].Value)
	s.Equal("fred@example.com", found.Person.EmailAddress)
}

func (s *StoreContractSuite) TestCreateDuplicate() {
	sess := newSession(time.Now().Unix())
	s.Require().NoError(s.store.Create(s.ctx, sess))

	err := s.store.Create(s.ctx, sess)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *StoreContractSuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByAuthorizationCode(s.ctx, uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByVendorSessionID(s.ctx, uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreContractSuite) TestExecuteUpdatesIndexes() {
	sess := newSession(time.Now().Unix())
	s.Require().NoError(s.store.Create(s.ctx, sess))

	vendorID := uuid.NewString()
	_, err := s.store.Execute(s.ctx, sess.ID, noCheck, func(m *models.Session) {
		m.VendorSessionID = vendorID
		m.State = models.StateVendorSessionCreated
		m.DocumentUsed = string(evmodels.DocumentPassport)
	})
	s.Require().NoError(err)

	code := uuid.NewString()
	updated, err := s.store.Execute(s.ctx, sess.ID, noCheck, func(m *models.Session) {
		m.AuthorizationCode = code
		m.AuthorizationCodeExpiry = m.CreatedDate + 600
		m.State = models.StateAuthCodeIssued
	})
	s.Require().NoError(err)
	s.Equal(models.StateAuthCodeIssued, updated.State)

	byVendor, err := s.store.FindByVendorSessionID(s.ctx, vendorID)
	s.Require().NoError(err)
	s.Equal(sess.ID, byVendor.ID)
	s.Equal(string(evmodels.DocumentPassport), byVendor.DocumentUsed)

	byCode, err := s.store.FindByAuthorizationCode(s.ctx, code)
	s.Require().NoError(err)
	s.Equal(sess.ID, byCode.ID)

	s.Run("cleared code no longer resolves", func() {
		_, err := s.store.Execute(s.ctx, sess.ID, noCheck, func(m *models.Session) {
			m.AuthorizationCode = ""
			m.State = models.StateAccessTokenIssued
		})
		s.Require().NoError(err)

		_, err = s.store.FindByAuthorizationCode(s.ctx, code)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *StoreContractSuite) TestExecuteValidationLeavesSessionUntouched() {
	sess := newSession(time.Now().Unix())
	s.Require().NoError(s.store.Create(s.ctx, sess))

	rejected := errors.New("wrong state")
	_, err := s.store.Execute(s.ctx, sess.ID,
		func(*models.Session) error { return rejected },
		func(m *models.Session) { m.State = models.StateAborted },
	)
	s.ErrorIs(err, rejected)

	found, err := s.store.FindByID(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(models.StateCreated, found.State)
}

func (s *StoreContractSuite) TestExecuteMissing() {
	_, err := s.store.Execute(s.ctx, uuid.NewString(), noCheck, func(*models.Session) {})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// Concurrent transitions out of the same state: exactly one wins.
func (s *StoreContractSuite) TestExecuteSingleWinner() {
	sess := newSession(time.Now().Unix())
	s.Require().NoError(s.store.Create(s.ctx, sess))

	res := testutil.RunConcurrent(8, func(int) error {
		_, err := s.store.Execute(s.ctx, sess.ID,
			func(m *models.Session) error {
				if m.State != models.StateCreated {
					return models.ErrIllegalTransition
				}
				return nil
			},
			func(m *models.Session) {
				m.State = models.StateAborted
				m.AttemptCount++
			},
		)
		return err
	}, models.ErrIllegalTransition)

	s.Equal(int32(1), res.Successes)
	s.Equal(int32(7), res.Failures())
	s.Zero(res.Errors, "losers either conflict or see the new state")

	found, err := s.store.FindByID(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(models.StateAborted, found.State)
	s.Equal(1, found.AttemptCount)
}

func (s *StoreContractSuite) TestListByStates() {
	now := time.Now().Unix()
	old := newSession(now - 7200)
	older := newSession(now - 9000)
	fresh := newSession(now)
	notified := newSession(now - 8000)
	aborted := newSession(now - 8000)
	for _, sess := range []*models.Session{old, older, fresh, notified, aborted} {
		s.Require().NoError(s.store.Create(s.ctx, sess))
	}
	for _, id := range []string{old.ID, older.ID, fresh.ID, notified.ID} {
		_, err := s.store.Execute(s.ctx, id, noCheck, func(m *models.Session) {
			m.State = models.StateVendorSessionCreated
		})
		s.Require().NoError(err)
	}
	_, err := s.store.Execute(s.ctx, notified.ID, noCheck, func(m *models.Session) {
		m.ExpiryNotified = true
	})
	s.Require().NoError(err)
	_, err = s.store.Execute(s.ctx, aborted.ID, noCheck, func(m *models.Session) {
		m.State = models.StateAborted
	})
	s.Require().NoError(err)

	got, err := s.store.ListByStates(s.ctx,
		[]models.State{models.StateCreated, models.StateVendorSessionCreated}, now-3600)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(older.ID, got[0].ID)
	s.Equal(old.ID, got[1].ID)
}
