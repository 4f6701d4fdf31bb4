package testutil

import (
	"time"

	"github.com/google/uuid"

	evmodels "f2f-cri/internal/evidence/models"
	"f2f-cri/internal/session/models"
)

// Defaults shared by session fixtures.
const (
	TestClientID    = "ipv-core"
	TestRedirectURI = "https://core.example/callback"
	TestOAuthState  = "xyz"
)

// TestPerson is the identity fixtures claim: Frederick Joseph Flintstone,
// born 1960-02-02.
func TestPerson() models.PersonIdentity {
	return models.PersonIdentity{
		Names: []evmodels.Name{{NameParts: []evmodels.NamePart{
			{Type: evmodels.NamePartGiven, Value: "Frederick"},
			{Type: evmodels.NamePartGiven, Value: "Joseph"},
			{Type: evmodels.NamePartFamily, Value: "Flintstone"},
		}}},
		BirthDates:   []evmodels.BirthDate{{Value: "1960-02-02"}},
		EmailAddress: "fred@example.com",
	}
}

// SessionBuilder provides a fluent interface for building test sessions.
type SessionBuilder struct {
	session *models.Session
}

// NewSessionBuilder creates a CREATED session, created now and open for an hour.
func NewSessionBuilder() *SessionBuilder {
	now := time.Now().Unix()
	return &SessionBuilder{
		session: &models.Session{
			ID:                  uuid.NewString(),
			ClientID:            TestClientID,
			ClientSessionID:     uuid.NewString(),
			State:               models.StateCreated,
			RedirectURI:         TestRedirectURI,
			OAuthState:          TestOAuthState,
			Subject:             "urn:fdc:gov.uk:2022:" + uuid.NewString(),
			PersistentSessionID: uuid.NewString(),
			ClientIPAddress:     "10.0.0.1",
			CreatedDate:         now,
			ExpiryDate:          now + 3600,
			Person:              TestPerson(),
		},
	}
}

func (b *SessionBuilder) WithID(id string) *SessionBuilder {
	b.session.ID = id
	return b
}

func (b *SessionBuilder) WithClient(clientID, redirectURI string) *SessionBuilder {
	b.session.ClientID = clientID
	b.session.RedirectURI = redirectURI
	return b
}

func (b *SessionBuilder) WithSubject(sub string) *SessionBuilder {
	b.session.Subject = sub
	return b
}

func (b *SessionBuilder) WithJourneyID(id string) *SessionBuilder {
	b.session.ClientSessionID = id
	return b
}

func (b *SessionBuilder) InState(state models.State) *SessionBuilder {
	b.session.State = state
	return b
}

// CreatedAt sets the creation time and an expiry an hour later.
func (b *SessionBuilder) CreatedAt(unix int64) *SessionBuilder {
	b.session.CreatedDate = unix
	b.session.ExpiryDate = unix + 3600
	return b
}

func (b *SessionBuilder) ExpiresAt(unix int64) *SessionBuilder {
	b.session.ExpiryDate = unix
	return b
}

func (b *SessionBuilder) WithVendorSession(id string, doc evmodels.DocumentType) *SessionBuilder {
	b.session.VendorSessionID = id
	b.session.DocumentUsed = string(doc)
	return b
}

func (b *SessionBuilder) WithAuthorizationCode(code string, expiry int64) *SessionBuilder {
	b.session.AuthorizationCode = code
	b.session.AuthorizationCodeExpiry = expiry
	return b
}

func (b *SessionBuilder) WithAccessToken(token string, expiry int64) *SessionBuilder {
	b.session.AccessToken = token
	b.session.AccessTokenExpiry = expiry
	return b
}

func (b *SessionBuilder) WithPerson(p models.PersonIdentity) *SessionBuilder {
	b.session.Person = p
	return b
}

func (b *SessionBuilder) WithEvidenceRequested(strength int) *SessionBuilder {
	b.session.EvidenceRequested = &models.EvidenceRequested{StrengthScore: strength}
	return b
}

func (b *SessionBuilder) Build() *models.Session {
	return b.session
}
