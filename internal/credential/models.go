package credential

import (
	"github.com/golang-jwt/jwt/v5"

	evmodels "f2f-cri/internal/evidence/models"
)

var (
	vcContext = []string{
		"https://www.w3.org/2018/credentials/v1",
		"https://vocab.account.gov.uk/contexts/identity-v1.jsonld",
	}
	vcType = []string{"VerifiableCredential", "IdentityCheckCredential"}
)

type VerifiableCredential struct {
	Context           []string                   `json:"@context"`
	Type              []string                   `json:"type"`
	CredentialSubject evmodels.CredentialSubject `json:"credentialSubject"`
	Evidence          []evmodels.Evidence        `json:"evidence"`
}

// Claims is the signed credential payload. jti is a urn:uuid.
type Claims struct {
	VC VerifiableCredential `json:"vc"`
	jwt.RegisteredClaims
}

// DeliveryMessage hands an issued credential to the relying party's queue.
type DeliveryMessage struct {
	Sub           string   `json:"sub"`
	State         string   `json:"state"`
	CredentialJWT []string `json:"https://vocab.account.gov.uk/v1/credentialJWT"`
}

// ExpiryNotice tells the relying party the user never completed the branch visit.
type ExpiryNotice struct {
	Sub              string `json:"sub"`
	State            string `json:"state"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

const expiredDescription = "Time given to visit PO has expired"

func NewExpiryNotice(sub, state string) ExpiryNotice {
	return ExpiryNotice{
		Sub:              sub,
		State:            state,
		Error:            "access_denied",
		ErrorDescription: expiredDescription,
	}
}

// auditEvidence is the evidence block as the audit stream sees it.
type auditEvidence struct {
	evmodels.Evidence
	CIReasons []evmodels.RejectionReason `json:"ciReasons,omitempty"`
}
