package models

// CreateSessionResult is the response of POST /session.
type CreateSessionResult struct {
	SessionID   string `json:"session_id"`
	State       string `json:"state"`
	RedirectURI string `json:"redirect_uri"`
}

type AuthorizationCode struct {
	Value string `json:"value"`
}

// AuthorizationResult is the response of GET /authorization.
type AuthorizationResult struct {
	AuthorizationCode AuthorizationCode `json:"authorizationCode"`
	RedirectURI       string            `json:"redirect_uri"`
	State             string            `json:"state"`
}

// TokenResult is the response of POST /token.
type TokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// AbortResult is the response of POST /abort. Location duplicates the header.
type AbortResult struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// CredentialJWTClaim is the claim name the relying party reads the VC from.
const CredentialJWTClaim = "https://vocab.account.gov.uk/v1/credentialJWT"

// UserInfoResult is the response of POST /userinfo once a VC exists.
// Pending is set when the vendor has not completed yet.
type UserInfoResult struct {
	Sub           string   `json:"sub"`
	CredentialJWT []string `json:"https://vocab.account.gov.uk/v1/credentialJWT,omitempty"`
	Pending       bool     `json:"-"`
}

// SessionConfigResult is the response of GET /session-configuration. The
// front end uses it to decide which documents to offer.
type SessionConfigResult struct {
	EvidenceRequested *EvidenceRequested `json:"evidence_requested,omitempty"`
	DocumentTypes     []string           `json:"document_types"`
}
