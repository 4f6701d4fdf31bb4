package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/mock/gomock"

	evmodels "f2f-cri/internal/evidence/models"
	"f2f-cri/internal/session/models"
	"f2f-cri/internal/vendor"
	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/platform/audit"
)

const vendorSessionID = "b988e9c8-47c6-430c-9ca3-8cdacd85ee91"

func vendorConfig() *vendor.Configuration {
	return &vendor.Configuration{
		SessionID: vendorSessionID,
		Capture: vendor.Capture{RequiredResources: []vendor.RequiredResource{{
			Type: "ID_DOCUMENT",
			ID:   "requirement-1",
			SupportedCountries: []vendor.SupportedCountry{{
				Code:               "GBR",
				SupportedDocuments: []vendor.SupportedDocument{{Type: "PASSPORT"}},
			}},
		}}},
	}
}

func selectionRequest() *models.DocumentSelectionRequest {
	return &models.DocumentSelectionRequest{
		DocumentSelection: models.DocumentSelection{
			DocumentSelected: models.SelectionUKPassport,
			CountryCode:      "GBR",
		},
		PostOfficeSelection: models.PostOfficeSelection{
			Name:     "Bedrock Post Office",
			Address:  "1 Quarry Road, Bedrock",
			PostCode: "BR1 1AA",
			Location: models.Location{Latitude: 51.5, Longitude: -0.12},
			FadCode:  "1234567",
		},
	}
}

// expectVendorSession sets up the three calls that open a vendor session.
func (s *ServiceSuite) expectVendorSession() {
	gomock.InOrder(
		s.mockVendor.EXPECT().CreateSession(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req vendor.SessionRequest) (*vendor.CreatedSession, error) {
				s.Equal(evmodels.DocumentPassport, req.DocumentType)
				s.Equal("GBR", req.CountryCode)
				s.Equal("Frederick Joseph Flintstone", req.FullName)
				s.Equal("1960-02-02", req.DateOfBirth)
				return &vendor.CreatedSession{SessionID: vendorSessionID}, nil
			}),
		s.mockVendor.EXPECT().GetConfiguration(gomock.Any(), vendorSessionID).Return(vendorConfig(), nil),
		s.mockVendor.EXPECT().PutInstructions(gomock.Any(), vendorSessionID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, in *vendor.Instructions) error {
				s.Equal("Frederick Joseph", in.ContactProfile.FirstName)
				s.Equal("Flintstone", in.ContactProfile.LastName)
				s.Equal("fred@example.com", in.ContactProfile.Email)
				s.Equal("1234567", in.Branch.FadCode)
				s.Require().Len(in.Documents, 1)
				s.Equal("requirement-1", in.Documents[0].RequirementID)
				return nil
			}),
	)
}

func (s *ServiceSuite) TestSelectDocument() {
	sess := s.seed(models.StateCreated)
	s.expectVendorSession()
	s.mockVendor.EXPECT().GetInstructionsPDF(gomock.Any(), vendorSessionID).Return([]byte("%PDF"), nil)
	s.mockArchive.EXPECT().Store(gomock.Any(), sess.ID, []byte("%PDF")).Return(nil)

	var emitted audit.Event
	s.mockAuditor.EXPECT().Emit(gomock.Any(), eventNamed(audit.EventVendorStart)).
		Do(func(_ context.Context, e audit.Event) { emitted = e })

	later := s.now.Add(10 * time.Minute)
	ctx := withTime(s.ctx, later)
	s.Require().NoError(s.service.SelectDocument(ctx, sess.ID, selectionRequest()))

	stored := s.reload(sess.ID)
	s.Equal(models.StateVendorSessionCreated, stored.State)
	s.Equal(vendorSessionID, stored.VendorSessionID)
	s.Equal(string(evmodels.DocumentPassport), stored.DocumentUsed)
	s.Equal(later.Add(time.Hour).Unix(), stored.ExpiryDate)

	s.Equal([]map[string]string{{"txn": vendorSessionID}}, emitted.Extensions["evidence"])
	offices, ok := emitted.Extensions["post_office_details"].([]map[string]any)
	s.Require().True(ok)
	s.Equal("Bedrock Post Office", offices[0]["name"])
	s.Equal("BR1 1AA", offices[0]["post_code"])
	s.Contains(emitted.Restricted, "docName")
}

func (s *ServiceSuite) TestSelectDocumentVendorFailureLeavesSession() {
	cases := []struct {
		name string
		err  error
		code dErrors.Code
	}{
		{"retryable", &vendor.ProviderError{Category: vendor.ErrorUnavailable, Retryable: true}, dErrors.CodeVendorUnavailable},
		{"rejected", &vendor.ProviderError{Category: vendor.ErrorRejected}, dErrors.CodeVendorFailure},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			sess := s.seed(models.StateCreated)
			s.mockVendor.EXPECT().CreateSession(gomock.Any(), gomock.Any()).Return(nil, tc.err)

			err := s.service.SelectDocument(s.ctx, sess.ID, selectionRequest())
			s.True(dErrors.HasCode(err, tc.code), "got %v", err)

			stored := s.reload(sess.ID)
			s.Equal(models.StateCreated, stored.State)
			s.Empty(stored.VendorSessionID)
		})
	}
}

func (s *ServiceSuite) TestSelectDocumentPutInstructionsFailure() {
	sess := s.seed(models.StateCreated)
	s.mockVendor.EXPECT().CreateSession(gomock.Any(), gomock.Any()).Return(&vendor.CreatedSession{SessionID: vendorSessionID}, nil)
	s.mockVendor.EXPECT().GetConfiguration(gomock.Any(), vendorSessionID).Return(vendorConfig(), nil)
	s.mockVendor.EXPECT().PutInstructions(gomock.Any(), vendorSessionID, gomock.Any()).
		Return(&vendor.ProviderError{Category: vendor.ErrorInternal})

	err := s.service.SelectDocument(s.ctx, sess.ID, selectionRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeVendorFailure))
	s.Equal(models.StateCreated, s.reload(sess.ID).State)
}

func (s *ServiceSuite) TestSelectDocumentArchiveFailureIsNotFatal() {
	sess := s.seed(models.StateCreated)
	s.expectVendorSession()
	s.mockVendor.EXPECT().GetInstructionsPDF(gomock.Any(), vendorSessionID).Return([]byte("%PDF"), nil)
	s.mockArchive.EXPECT().Store(gomock.Any(), sess.ID, gomock.Any()).Return(errors.New("bucket missing"))
	s.mockAuditor.EXPECT().Emit(gomock.Any(), eventNamed(audit.EventVendorStart))

	s.Require().NoError(s.service.SelectDocument(s.ctx, sess.ID, selectionRequest()))
	s.Equal(models.StateVendorSessionCreated, s.reload(sess.ID).State)
}

func (s *ServiceSuite) TestSelectDocumentRefused() {
	s.Run("already selected", func() {
		sess := s.seed(models.StateVendorSessionCreated)
		err := s.service.SelectDocument(s.ctx, sess.ID, selectionRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("expired", func() {
		sess := s.seed(models.StateCreated, func(m *models.Session) {
			m.ExpiryDate = s.now.Add(-time.Minute).Unix()
		})
		err := s.service.SelectDocument(s.ctx, sess.ID, selectionRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeSessionExpired))
	})

	s.Run("unknown session", func() {
		err := s.service.SelectDocument(s.ctx, "missing", selectionRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
