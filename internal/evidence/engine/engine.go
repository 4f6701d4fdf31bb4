// Package engine turns a completed vendor check-set and the extracted document
// fields into a credential subject and an IdentityCheck evidence block.
//
// Domain Purity: no I/O, no context.Context, no clock. Every rule here is a
// closed table; an unmapped document combination is an error, never a default.
package engine

import (
	"errors"
	"fmt"

	"f2f-cri/internal/evidence/models"
)

var (
	ErrMissingChecks       = errors.New("missing mandatory checks")
	ErrChecksIncomplete    = errors.New("checks not all completed")
	ErrUnsupportedDocument = errors.New("unsupported document type for issuing country")
	ErrMissingName         = errors.New("document fields carry no usable name")
)

// Input is everything the engine reads. FallbackName comes from the identity
// claims captured at session start and fills in name parts the document lacks.
type Input struct {
	DocumentType    models.DocumentType
	IssuingCountry  string
	Checks          []models.CheckResult
	Fields          models.DocumentFields
	VendorSessionID string
	FallbackName    *models.Name
}

type Result struct {
	CredentialSubject models.CredentialSubject
	Evidence          models.Evidence
	RejectionReasons  []models.RejectionReason
}

// Assemble runs the completeness gate, scores the checks and builds the subject.
func Assemble(in Input) (*Result, error) {
	checks, err := mandatoryChecks(in.Checks)
	if err != nil {
		return nil, err
	}
	authenticity := checks[models.CheckDocumentAuthenticity]
	faceMatch := checks[models.CheckFaceMatch]

	chip := ChipValid(in.DocumentType, authenticity)

	strength, err := StrengthScore(in.DocumentType, in.IssuingCountry, chip)
	if err != nil {
		return nil, err
	}
	validity := ValidityScore(authenticity.Recommendation.Value, chip)
	verification := VerificationScore(validity, faceMatch.Recommendation.Value)

	subject, err := BuildSubject(in)
	if err != nil {
		return nil, err
	}

	evidence := models.Evidence{
		Type:              models.EvidenceTypeIdentityCheck,
		Txn:               in.VendorSessionID,
		StrengthScore:     strength,
		ValidityScore:     validity,
		VerificationScore: verification,
	}

	var reasons []models.RejectionReason
	if evidence.Failed() {
		evidence.CI, reasons = CounterIndicators(faceMatch.Recommendation, authenticity.Recommendation)
		evidence.FailedCheckDetails = []models.CheckDetail{
			{CheckMethod: models.CheckMethodVCrypt, IdentityCheckPolicy: models.PolicyPublished},
			{CheckMethod: models.CheckMethodBVR, BiometricVerificationProcessLevel: 3},
		}
	} else {
		evidence.CheckDetails = checkDetails(in.VendorSessionID, chip, faceMatch.Passed(models.SubCheckManualFaceMatch))
	}

	return &Result{
		CredentialSubject: *subject,
		Evidence:          evidence,
		RejectionReasons:  reasons,
	}, nil
}

// mandatoryChecks indexes the five mandatory checks. The first occurrence of a
// type wins when the vendor repeats one.
func mandatoryChecks(all []models.CheckResult) (map[models.CheckType]models.CheckResult, error) {
	found := make(map[models.CheckType]models.CheckResult, len(models.MandatoryChecks))
	for _, c := range all {
		if _, seen := found[c.Type]; !seen {
			found[c.Type] = c
		}
	}

	var missing []models.CheckType
	for _, t := range models.MandatoryChecks {
		if _, ok := found[t]; !ok {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingChecks, missing)
	}

	for _, t := range models.MandatoryChecks {
		if found[t].State != models.CheckStateDone {
			return nil, fmt.Errorf("%w: %s is %s", ErrChecksIncomplete, t, found[t].State)
		}
	}
	return found, nil
}

// ChipValid reports whether the document chip was read and its CSCA trusted.
func ChipValid(docType models.DocumentType, authenticity models.CheckResult) bool {
	if docType != models.DocumentPassport && docType != models.DocumentNationalID {
		return false
	}
	return authenticity.Passed(models.SubCheckChipCSCATrusted)
}

// StrengthScore scores the document by type and issuing country.
func StrengthScore(docType models.DocumentType, issuingCountry string, chip bool) (int, error) {
	if docType == models.DocumentResidencePermit {
		return 4, nil
	}
	if issuingCountry == models.CountryGBR {
		switch docType {
		case models.DocumentPassport:
			return chipScore(chip), nil
		case models.DocumentDrivingLicence:
			return 3, nil
		}
		return 0, fmt.Errorf("%w: %s/%s", ErrUnsupportedDocument, docType, issuingCountry)
	}
	switch docType {
	case models.DocumentPassport, models.DocumentDrivingLicence:
		return 3, nil
	case models.DocumentNationalID:
		return chipScore(chip), nil
	}
	return 0, fmt.Errorf("%w: %s/%s", ErrUnsupportedDocument, docType, issuingCountry)
}

func chipScore(chip bool) int {
	if chip {
		return 4
	}
	return 3
}

// ValidityScore is 3 for an approved chip read, 2 for an approved document, else 0.
func ValidityScore(authenticityRecommendation string, chip bool) int {
	if authenticityRecommendation != models.RecommendationApprove {
		return 0
	}
	if chip {
		return 3
	}
	return 2
}

// VerificationScore never credits a face match against an invalid document.
func VerificationScore(validity int, faceMatchRecommendation string) int {
	if validity == 0 {
		return 0
	}
	if faceMatchRecommendation == models.RecommendationApprove {
		return 3
	}
	return 0
}

func checkDetails(txn string, chip, manualFaceMatch bool) []models.CheckDetail {
	document := models.CheckDetail{
		CheckMethod:         models.CheckMethodVRI,
		IdentityCheckPolicy: models.PolicyPublished,
		Txn:                 txn,
	}
	if chip {
		document.CheckMethod = models.CheckMethodVCrypt
	}

	biometric := models.CheckDetail{Txn: txn}
	if manualFaceMatch {
		biometric.CheckMethod = models.CheckMethodPVR
		biometric.PhotoVerificationProcessLevel = 3
	} else {
		biometric.CheckMethod = models.CheckMethodBVR
		biometric.BiometricVerificationProcessLevel = 3
	}
	return []models.CheckDetail{document, biometric}
}
