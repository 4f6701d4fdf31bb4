package engine

import (
	"slices"

	"f2f-cri/internal/evidence/models"
)

// Counter-indicator codes.
const (
	CIFaceMismatch       = "V01"
	CIDocumentNotGenuine = "D14"
	CIDocumentExpired    = "D16"
	CIFraudListMatch     = "F03"
)

var faceMatchIndicators = map[string]string{
	"FACE_NOT_GENUINE": CIFaceMismatch,
	"LARGE_AGE_GAP":    CIFaceMismatch,
	"PHOTO_OF_MASK":    CIFaceMismatch,
	"PHOTO_OF_PHOTO":   CIFaceMismatch,
	"DIFFERENT_PERSON": CIFaceMismatch,
}

var authenticityIndicators = map[string]string{
	"COUNTERFEIT":                        CIDocumentNotGenuine,
	"DOC_NUMBER_INVALID":                 CIDocumentNotGenuine,
	"TAMPERED":                           CIDocumentNotGenuine,
	"DATA_MISMATCH":                      CIDocumentNotGenuine,
	"CHIP_DATA_INTEGRITY_FAILED":         CIDocumentNotGenuine,
	"CHIP_SIGNATURE_VERIFICATION_FAILED": CIDocumentNotGenuine,
	"CHIP_CSCA_VERIFICATION_FAILED":      CIDocumentNotGenuine,
	"EXPIRED_DOCUMENT":                   CIDocumentExpired,
	"FRAUD_LIST_MATCH":                   CIFraudListMatch,
}

// CounterIndicators maps rejected face-match and authenticity recommendations to
// CI codes, face match first. Codes and reasons are deduplicated in order.
// Unknown reasons contribute nothing.
func CounterIndicators(faceMatch, authenticity models.Recommendation) ([]string, []models.RejectionReason) {
	var (
		cis     []string
		reasons []models.RejectionReason
	)
	add := func(table map[string]string, rec models.Recommendation) {
		if rec.Value != models.RecommendationReject {
			return
		}
		ci, ok := table[rec.Reason]
		if !ok {
			return
		}
		if !slices.Contains(cis, ci) {
			cis = append(cis, ci)
		}
		if reason := (models.RejectionReason{CI: ci, Reason: rec.Reason}); !slices.Contains(reasons, reason) {
			reasons = append(reasons, reason)
		}
	}
	add(faceMatchIndicators, faceMatch)
	add(authenticityIndicators, authenticity)
	return cis, reasons
}
