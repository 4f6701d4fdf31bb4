package engine_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"f2f-cri/internal/evidence/engine"
	"f2f-cri/internal/evidence/models"
)

const vendorSessionID = "b988e9c8-47c6-430c-9ca3-8cdacd85ee91"

type EngineSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func doneCheck(t models.CheckType, value, reason string, breakdown ...models.SubCheck) models.CheckResult {
	return models.CheckResult{
		Type:           t,
		State:          models.CheckStateDone,
		Recommendation: models.Recommendation{Value: value, Reason: reason},
		Breakdown:      breakdown,
	}
}

func pass(name string) models.SubCheck {
	return models.SubCheck{SubCheck: name, Result: models.SubCheckPass}
}

func approvedChecks() []models.CheckResult {
	return []models.CheckResult{
		doneCheck(models.CheckDocumentAuthenticity, models.RecommendationApprove, ""),
		doneCheck(models.CheckFaceMatch, models.RecommendationApprove, ""),
		doneCheck(models.CheckVisualReview, models.RecommendationApprove, ""),
		doneCheck(models.CheckSchemeValidity, models.RecommendationApprove, ""),
		doneCheck(models.CheckProfileMatch, models.RecommendationApprove, ""),
	}
}

func replaceCheck(checks []models.CheckResult, c models.CheckResult) []models.CheckResult {
	out := make([]models.CheckResult, 0, len(checks))
	for _, existing := range checks {
		if existing.Type == c.Type {
			out = append(out, c)
			continue
		}
		out = append(out, existing)
	}
	return out
}

func passportFields() models.DocumentFields {
	return models.DocumentFields{
		GivenNames:     "Frederick Joseph",
		FamilyName:     "Flintstone",
		DateOfBirth:    "1960-02-02",
		DocumentNumber: "533401372",
		ExpirationDate: "2031-05-01",
		IssuingCountry: "GBR",
	}
}

func passportInput() engine.Input {
	return engine.Input{
		DocumentType:    models.DocumentPassport,
		IssuingCountry:  "GBR",
		Checks:          approvedChecks(),
		Fields:          passportFields(),
		VendorSessionID: vendorSessionID,
	}
}

func (s *EngineSuite) TestCompletenessGate() {
	s.Run("missing check", func() {
		in := passportInput()
		in.Checks = in.Checks[:4]
		_, err := engine.Assemble(in)
		s.ErrorIs(err, engine.ErrMissingChecks)
	})

	s.Run("pending check", func() {
		in := passportInput()
		pending := doneCheck(models.CheckVisualReview, "", "")
		pending.State = models.CheckStatePending
		in.Checks = replaceCheck(in.Checks, pending)
		_, err := engine.Assemble(in)
		s.ErrorIs(err, engine.ErrChecksIncomplete)
	})

	s.Run("first occurrence of a repeated check wins", func() {
		in := passportInput()
		later := doneCheck(models.CheckVisualReview, "", "")
		later.State = models.CheckStatePending
		in.Checks = append(in.Checks, later)
		_, err := engine.Assemble(in)
		s.NoError(err, "a trailing pending duplicate is ignored")

		in = passportInput()
		first := doneCheck(models.CheckVisualReview, "", "")
		first.State = models.CheckStatePending
		in.Checks = append([]models.CheckResult{first}, in.Checks...)
		_, err = engine.Assemble(in)
		s.ErrorIs(err, engine.ErrChecksIncomplete, "a leading pending duplicate shadows the done one")
	})

	s.Run("missing wins over pending", func() {
		in := passportInput()
		in.Checks = in.Checks[1:]
		in.Checks[0].State = models.CheckStatePending
		_, err := engine.Assemble(in)
		s.ErrorIs(err, engine.ErrMissingChecks)
	})
}

func (s *EngineSuite) TestGBRChippedPassport() {
	in := passportInput()
	in.Checks = replaceCheck(in.Checks, doneCheck(models.CheckDocumentAuthenticity, models.RecommendationApprove, "",
		pass(models.SubCheckChipCSCATrusted)))

	res, err := engine.Assemble(in)
	s.Require().NoError(err)

	ev := res.Evidence
	s.Equal(models.EvidenceTypeIdentityCheck, ev.Type)
	s.Equal(vendorSessionID, ev.Txn)
	s.Equal(4, ev.StrengthScore)
	s.Equal(3, ev.ValidityScore)
	s.Equal(3, ev.VerificationScore)
	s.Empty(ev.CI)
	s.Empty(ev.FailedCheckDetails)
	s.Equal([]models.CheckDetail{
		{CheckMethod: "vcrypt", IdentityCheckPolicy: "published", Txn: vendorSessionID},
		{CheckMethod: "bvr", BiometricVerificationProcessLevel: 3, Txn: vendorSessionID},
	}, ev.CheckDetails)
	s.Empty(res.RejectionReasons)
}

func (s *EngineSuite) TestGBRPassportWithoutChip() {
	res, err := engine.Assemble(passportInput())
	s.Require().NoError(err)

	s.Equal(3, res.Evidence.StrengthScore)
	s.Equal(2, res.Evidence.ValidityScore)
	s.Equal(3, res.Evidence.VerificationScore)
	s.Equal("vri", res.Evidence.CheckDetails[0].CheckMethod)
}

func (s *EngineSuite) TestManualFaceMatchUsesPhotoVerification() {
	in := passportInput()
	in.Checks = replaceCheck(in.Checks, doneCheck(models.CheckFaceMatch, models.RecommendationApprove, "",
		pass(models.SubCheckManualFaceMatch)))

	res, err := engine.Assemble(in)
	s.Require().NoError(err)
	s.Equal(models.CheckDetail{CheckMethod: "pvr", PhotoVerificationProcessLevel: 3, Txn: vendorSessionID},
		res.Evidence.CheckDetails[1])
}

func (s *EngineSuite) TestFaceMatchRejected() {
	in := passportInput()
	in.Checks = replaceCheck(in.Checks, doneCheck(models.CheckFaceMatch, models.RecommendationReject, "DIFFERENT_PERSON"))

	res, err := engine.Assemble(in)
	s.Require().NoError(err)

	ev := res.Evidence
	s.Equal(3, ev.StrengthScore)
	s.Equal(2, ev.ValidityScore)
	s.Equal(0, ev.VerificationScore)
	s.Equal([]string{"V01"}, ev.CI)
	s.Empty(ev.CheckDetails)
	s.Equal([]models.CheckDetail{
		{CheckMethod: "vcrypt", IdentityCheckPolicy: "published"},
		{CheckMethod: "bvr", BiometricVerificationProcessLevel: 3},
	}, ev.FailedCheckDetails)
	s.Equal([]models.RejectionReason{{CI: "V01", Reason: "DIFFERENT_PERSON"}}, res.RejectionReasons)
}

func (s *EngineSuite) TestAuthenticityRejectedZeroesVerification() {
	in := passportInput()
	in.Checks = replaceCheck(in.Checks, doneCheck(models.CheckDocumentAuthenticity, models.RecommendationReject, "COUNTERFEIT"))

	res, err := engine.Assemble(in)
	s.Require().NoError(err)
	s.Equal(0, res.Evidence.ValidityScore)
	s.Equal(0, res.Evidence.VerificationScore, "face match approved but document invalid")
	s.Equal([]string{"D14"}, res.Evidence.CI)
	s.NotEmpty(res.Evidence.FailedCheckDetails)
}

func (s *EngineSuite) TestBothRejected() {
	in := passportInput()
	in.Checks = replaceCheck(in.Checks, doneCheck(models.CheckDocumentAuthenticity, models.RecommendationReject, "EXPIRED_DOCUMENT"))
	in.Checks = replaceCheck(in.Checks, doneCheck(models.CheckFaceMatch, models.RecommendationReject, "PHOTO_OF_MASK"))

	res, err := engine.Assemble(in)
	s.Require().NoError(err)
	s.Equal([]string{"V01", "D16"}, res.Evidence.CI)
	s.Equal([]models.RejectionReason{
		{CI: "V01", Reason: "PHOTO_OF_MASK"},
		{CI: "D16", Reason: "EXPIRED_DOCUMENT"},
	}, res.RejectionReasons)
}

func (s *EngineSuite) TestRejectWithUnknownReasonHasNoCI() {
	in := passportInput()
	in.Checks = replaceCheck(in.Checks, doneCheck(models.CheckFaceMatch, models.RecommendationReject, "SOMETHING_NEW"))

	res, err := engine.Assemble(in)
	s.Require().NoError(err)
	s.Equal(0, res.Evidence.VerificationScore)
	s.Nil(res.Evidence.CI)
	s.NotEmpty(res.Evidence.FailedCheckDetails)
}

func (s *EngineSuite) TestUnsupportedDocument() {
	in := passportInput()
	in.DocumentType = models.DocumentNationalID
	_, err := engine.Assemble(in)
	s.ErrorIs(err, engine.ErrUnsupportedDocument)
}

func (s *EngineSuite) TestStrengthScoreTable() {
	cases := []struct {
		doc     models.DocumentType
		country string
		chip    bool
		want    int
	}{
		{models.DocumentPassport, "GBR", true, 4},
		{models.DocumentPassport, "GBR", false, 3},
		{models.DocumentDrivingLicence, "GBR", false, 3},
		{models.DocumentPassport, "FRA", true, 3},
		{models.DocumentDrivingLicence, "DEU", false, 3},
		{models.DocumentNationalID, "NLD", true, 4},
		{models.DocumentNationalID, "NLD", false, 3},
		{models.DocumentResidencePermit, "GBR", false, 4},
		{models.DocumentResidencePermit, "IRL", false, 4},
	}
	for _, tc := range cases {
		got, err := engine.StrengthScore(tc.doc, tc.country, tc.chip)
		s.Require().NoError(err, "%s/%s", tc.doc, tc.country)
		s.Equal(tc.want, got, "%s/%s chip=%v", tc.doc, tc.country, tc.chip)
	}

	_, err := engine.StrengthScore(models.DocumentNationalID, "GBR", true)
	s.ErrorIs(err, engine.ErrUnsupportedDocument)
	_, err = engine.StrengthScore("BUS_PASS", "FRA", false)
	s.ErrorIs(err, engine.ErrUnsupportedDocument)
}

func (s *EngineSuite) TestChipValidOnlyForChippedDocumentTypes() {
	auth := doneCheck(models.CheckDocumentAuthenticity, models.RecommendationApprove, "", pass(models.SubCheckChipCSCATrusted))
	s.True(engine.ChipValid(models.DocumentPassport, auth))
	s.True(engine.ChipValid(models.DocumentNationalID, auth))
	s.False(engine.ChipValid(models.DocumentDrivingLicence, auth))

	failed := doneCheck(models.CheckDocumentAuthenticity, models.RecommendationApprove, "",
		models.SubCheck{SubCheck: models.SubCheckChipCSCATrusted, Result: models.SubCheckFail})
	s.False(engine.ChipValid(models.DocumentPassport, failed))
}

func (s *EngineSuite) TestCounterIndicatorTable() {
	reject := func(reason string) models.Recommendation {
		return models.Recommendation{Value: models.RecommendationReject, Reason: reason}
	}
	approve := models.Recommendation{Value: models.RecommendationApprove}

	for _, reason := range []string{"FACE_NOT_GENUINE", "LARGE_AGE_GAP", "PHOTO_OF_MASK", "PHOTO_OF_PHOTO", "DIFFERENT_PERSON"} {
		cis, _ := engine.CounterIndicators(reject(reason), approve)
		s.Equal([]string{"V01"}, cis, reason)
	}
	for _, reason := range []string{"COUNTERFEIT", "DOC_NUMBER_INVALID", "TAMPERED", "DATA_MISMATCH",
		"CHIP_DATA_INTEGRITY_FAILED", "CHIP_SIGNATURE_VERIFICATION_FAILED", "CHIP_CSCA_VERIFICATION_FAILED"} {
		cis, _ := engine.CounterIndicators(approve, reject(reason))
		s.Equal([]string{"D14"}, cis, reason)
	}

	cis, _ := engine.CounterIndicators(approve, reject("EXPIRED_DOCUMENT"))
	s.Equal([]string{"D16"}, cis)
	cis, _ = engine.CounterIndicators(approve, reject("FRAUD_LIST_MATCH"))
	s.Equal([]string{"F03"}, cis)

	cis, reasons := engine.CounterIndicators(reject("COUNTERFEIT"), approve)
	s.Nil(cis, "face-match table does not know authenticity reasons")
	s.Nil(reasons)
}

func (s *EngineSuite) TestAssembleIsDeterministic() {
	in := passportInput()
	in.Checks = replaceCheck(in.Checks, doneCheck(models.CheckDocumentAuthenticity, models.RecommendationApprove, "",
		pass(models.SubCheckChipCSCATrusted)))

	first, err := engine.Assemble(in)
	s.Require().NoError(err)
	for range 5 {
		again, err := engine.Assemble(in)
		s.Require().NoError(err)
		s.Equal(first, again)
	}

	// Input order of checks does not matter.
	reversed := in
	reversed.Checks = make([]models.CheckResult, len(in.Checks))
	for i, c := range in.Checks {
		reversed.Checks[len(in.Checks)-1-i] = c
	}
	again, err := engine.Assemble(reversed)
	s.Require().NoError(err)
	s.Equal(first, again)
}
