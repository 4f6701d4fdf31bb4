// Package models holds the session aggregate and the journey state machine.
package models

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	evmodels "f2f-cri/internal/evidence/models"
)

// State is a step of the branch-visit journey.
type State string

const (
	StateCreated              State = "CREATED"
	StateVendorSessionCreated State = "VENDOR_SESSION_CREATED"
	StateAuthCodeIssued       State = "AUTH_CODE_ISSUED"
	StateAccessTokenIssued    State = "ACCESS_TOKEN_ISSUED"
	StateAborted              State = "ABORTED"
)

var transitions = map[State][]State{
	StateCreated:              {StateVendorSessionCreated, StateAborted},
	StateVendorSessionCreated: {StateAuthCodeIssued, StateAborted},
	StateAuthCodeIssued:       {StateAccessTokenIssued, StateAborted},
}

// CanTransitionTo is total: unknown and terminal states allow nothing.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s State) IsValid() bool {
	switch s {
	case StateCreated, StateVendorSessionCreated, StateAuthCodeIssued, StateAccessTokenIssued, StateAborted:
		return true
	}
	return false
}

func (s State) String() string {
	return string(s)
}

// ErrIllegalTransition is returned when a transition is not in the table.
var ErrIllegalTransition = errors.New("illegal state transition")

// EvidenceRequested narrows what the relying party will accept.
type EvidenceRequested struct {
	StrengthScore int `json:"strengthScore,omitempty"`
}

// PersonIdentity is the identity claimed by the relying party at session start,
// plus the user's contact choices from document selection.
type PersonIdentity struct {
	Names         []evmodels.Name      `json:"name"`
	BirthDates    []evmodels.BirthDate `json:"birthDate,omitempty"`
	Addresses     []evmodels.Address   `json:"address,omitempty"`
	EmailAddress  string               `json:"emailAddress,omitempty"`
	PDFPreference string               `json:"pdfPreference,omitempty"`
	PostalAddress *evmodels.Address    `json:"postalAddress,omitempty"`
}

// PrimaryName is the first claimed name, or nil when none was claimed.
func (p PersonIdentity) PrimaryName() *evmodels.Name {
	if len(p.Names) == 0 {
		return nil
	}
	n := p.Names[0]
	return &n
}

// CurrentAddress is the address without a validUntil, falling back to the first.
func (p PersonIdentity) CurrentAddress() *evmodels.Address {
	for i := range p.Addresses {
		if p.Addresses[i].ValidUntil == "" {
			a := p.Addresses[i]
			return &a
		}
	}
	if len(p.Addresses) > 0 {
		a := p.Addresses[0]
		return &a
	}
	return nil
}

// Session is the durable record of one journey. Times are epoch seconds.
type Session struct {
	ID                      string             `json:"sessionId" db:"session_id"`
	ClientID                string             `json:"clientId" db:"client_id"`
	ClientSessionID         string             `json:"clientSessionId" db:"client_session_id"`
	State                   State              `json:"authSessionState" db:"state"`
	RedirectURI             string             `json:"redirectUri" db:"redirect_uri"`
	OAuthState              string             `json:"state" db:"oauth_state"`
	Subject                 string             `json:"subject" db:"subject"`
	PersistentSessionID     string             `json:"persistentSessionId,omitempty" db:"persistent_session_id"`
	ClientIPAddress         string             `json:"clientIpAddress,omitempty" db:"client_ip_address"`
	CreatedDate             int64              `json:"createdDate" db:"created_date"`
	ExpiryDate              int64              `json:"expiryDate" db:"expiry_date"`
	AuthorizationCode       string             `json:"authorizationCode,omitempty" db:"authorization_code"`
	AuthorizationCodeExpiry int64              `json:"authorizationCodeExpiryDate,omitempty" db:"authorization_code_expiry"`
	AccessToken             string             `json:"accessToken,omitempty" db:"access_token"`
	AccessTokenExpiry       int64              `json:"accessTokenExpiryDate,omitempty" db:"access_token_expiry"`
	VendorSessionID         string             `json:"vendorSessionId,omitempty" db:"vendor_session_id"`
	DocumentUsed            string             `json:"documentUsed,omitempty" db:"document_used"`
	EvidenceRequested       *EvidenceRequested `json:"evidenceRequested,omitempty" db:"-"`
	AttemptCount            int                `json:"attemptCount" db:"attempt_count"`
	ExpiryNotified          bool               `json:"expiryNotified,omitempty" db:"expiry_notified"`
	Person                  PersonIdentity     `json:"personIdentity" db:"-"`
}

// IsExpired reports whether access is refused at now. A session is usable
// only while now is strictly before ExpiryDate.
func (s *Session) IsExpired(now time.Time) bool {
	return now.Unix() >= s.ExpiryDate
}

// Transition moves the session to next if the table allows it.
func (s *Session) Transition(next State) error {
	if !s.State.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.State, next)
	}
	s.State = next
	return nil
}

// AbortRedirect is the redirect URI with error=access_denied and the OAuth state
// appended, using & when the URI already carries a query.
func (s *Session) AbortRedirect() string {
	sep := "?"
	if strings.Contains(s.RedirectURI, "?") {
		sep = "&"
	}
	return s.RedirectURI + sep + "error=access_denied&state=" + url.QueryEscape(s.OAuthState)
}

// Clone returns a deep enough copy for stores that hand out snapshots.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.EvidenceRequested != nil {
		er := *s.EvidenceRequested
		c.EvidenceRequested = &er
	}
	c.Person.Names = make([]evmodels.Name, len(s.Person.Names))
	for i, n := range s.Person.Names {
		c.Person.Names[i].NameParts = append([]evmodels.NamePart(nil), n.NameParts...)
	}
	c.Person.BirthDates = append([]evmodels.BirthDate(nil), s.Person.BirthDates...)
	c.Person.Addresses = append([]evmodels.Address(nil), s.Person.Addresses...)
	if s.Person.PostalAddress != nil {
		pa := *s.Person.PostalAddress
		c.Person.PostalAddress = &pa
	}
	return &c
}
