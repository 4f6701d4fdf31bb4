package service

import (
	"context"
	"fmt"

	evmodels "f2f-cri/internal/evidence/models"
	"f2f-cri/internal/session/models"
	"f2f-cri/internal/vendor"
	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/platform/audit"
	"f2f-cri/pkg/platform/sentinel"
	"f2f-cri/pkg/requestcontext"
)

// SelectDocument opens the vendor session for the chosen document and branch
// and moves the journey to VENDOR_SESSION_CREATED. The session is written
// only after every vendor call succeeded; a vendor failure leaves it in
// CREATED so the user can retry.
func (s *Service) SelectDocument(ctx context.Context, sessionID string, req *models.DocumentSelectionRequest) error {
	const op = "document_selection"

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return s.sessionError(ctx, op, sessionID, err)
	}
	now := requestcontext.Now(ctx)
	if err := canSelectDocument(session, now.Unix()); err != nil {
		return s.sessionError(ctx, op, sessionID, err)
	}

	docType := req.DocumentSelection.DocumentType()
	name := session.Person.PrimaryName()
	if name == nil {
		return dErrors.New(dErrors.CodeValidation, "session has no claimed name")
	}

	vendorReq := vendor.SessionRequest{
		UserTrackingID: session.ID,
		DocumentType:   docType,
		CountryCode:    req.DocumentSelection.CountryCode,
		FullName:       name.Full(),
		Address:        session.Person.CurrentAddress(),
	}
	if len(session.Person.BirthDates) > 0 {
		vendorReq.DateOfBirth = session.Person.BirthDates[0].Value
	}
	if req.PostalAddress != nil {
		vendorReq.Address = req.PostalAddress
	}

	vendorSessionID, err := s.openVendorSession(ctx, vendorReq, session, name, req.PostOfficeSelection)
	if err != nil {
		return s.vendorError(ctx, op, sessionID, err)
	}

	from := session.State
	updated, err := s.sessions.Execute(ctx, sessionID,
		func(current *models.Session) error {
			return canSelectDocument(current, now.Unix())
		},
		func(current *models.Session) {
			current.State = models.StateVendorSessionCreated
			current.VendorSessionID = vendorSessionID
			current.DocumentUsed = string(docType)
			current.ExpiryDate = now.Add(s.cfg.AuthSessionTTL).Unix()
			current.AttemptCount++
			current.Person.PDFPreference = req.PDFPreference
			current.Person.PostalAddress = req.PostalAddress
		},
	)
	if err != nil {
		return s.sessionError(ctx, op, sessionID, err)
	}
	s.transitioned(ctx, updated, from)

	s.archiveInstructions(ctx, updated.ID, vendorSessionID)

	office := req.PostOfficeSelection
	s.emit(ctx, audit.EventVendorStart, updated,
		map[string]any{
			"name": updated.Person.Names,
			"docName": []map[string]string{{
				"documentType":   string(docType),
				"issuingCountry": req.DocumentSelection.CountryCode,
			}},
		},
		map[string]any{
			"evidence": []map[string]string{{"txn": vendorSessionID}},
			"post_office_details": []map[string]any{{
				"name":      office.Name,
				"address":   office.Address,
				"post_code": office.PostCode,
				"location": []map[string]float64{{
					"latitude":  office.Location.Latitude,
					"longitude": office.Location.Longitude,
				}},
			}},
		},
	)
	return nil
}

func canSelectDocument(session *models.Session, now int64) error {
	if session.State != models.StateCreated || session.VendorSessionID != "" {
		return fmt.Errorf("document selection in %s: %w", session.State, sentinel.ErrInvalidState)
	}
	if now >= session.ExpiryDate {
		return fmt.Errorf("document selection: %w", sentinel.ErrExpired)
	}
	return nil
}

// openVendorSession creates the vendor session, reads which documents it
// will capture and posts the branch instructions. It returns the vendor
// session id.
func (s *Service) openVendorSession(
	ctx context.Context,
	req vendor.SessionRequest,
	session *models.Session,
	name *evmodels.Name,
	office models.PostOfficeSelection,
) (string, error) {
	created, err := s.vendor.CreateSession(ctx, req)
	if err != nil {
		return "", err
	}

	cfg, err := s.vendor.GetConfiguration(ctx, created.SessionID)
	if err != nil {
		return "", err
	}

	instructions, err := vendor.BuildInstructions(cfg,
		vendor.ContactProfile{
			FirstName: name.Given(),
			LastName:  name.Family(),
			Email:     session.Person.EmailAddress,
		},
		vendor.Branch{
			FadCode:  office.FadCode,
			Name:     office.Name,
			Address:  office.Address,
			PostCode: office.PostCode,
			Location: vendor.BranchLocation{
				Latitude:  office.Location.Latitude,
				Longitude: office.Location.Longitude,
			},
		},
	)
	if err != nil {
		return "", err
	}

	if err := s.vendor.PutInstructions(ctx, created.SessionID, instructions); err != nil {
		return "", err
	}
	return created.SessionID, nil
}

// archiveInstructions is best effort: the vendor keeps the original.
func (s *Service) archiveInstructions(ctx context.Context, sessionID, vendorSessionID string) {
	if s.archive == nil {
		return
	}
	pdf, err := s.vendor.GetInstructionsPDF(ctx, vendorSessionID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to fetch instructions pdf",
			"session_id", sessionID,
			"error", err,
		)
		return
	}
	if err := s.archive.Store(ctx, sessionID, pdf); err != nil {
		s.logger.WarnContext(ctx, "failed to archive instructions pdf",
			"session_id", sessionID,
			"error", err,
		)
	}
}
