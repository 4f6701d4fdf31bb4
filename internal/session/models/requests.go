package models

import (
	"strings"

	evmodels "f2f-cri/internal/evidence/models"
	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/validation"
)

// CreateSessionRequest is the body of POST /session. Request is a JWT signed
// by the client carrying SessionRequestClaims.
type CreateSessionRequest struct {
	ClientID string `json:"client_id" validate:"required,max=100"`
	Request  string `json:"request" validate:"required,max=16384"`
}

func (r *CreateSessionRequest) Normalize() {
	r.ClientID = strings.TrimSpace(r.ClientID)
	r.Request = strings.TrimSpace(r.Request)
}

func (r *CreateSessionRequest) Validate() error {
	return validation.Validate(r)
}

// SharedClaims is the identity the relying party asserts about the user.
type SharedClaims struct {
	Name         []evmodels.Name      `json:"name" validate:"required,min=1,dive"`
	BirthDate    []evmodels.BirthDate `json:"birthDate,omitempty"`
	Address      []evmodels.Address   `json:"address,omitempty"`
	EmailAddress string               `json:"emailAddress" validate:"required,email,max=254"`
}

// SessionRequestClaims are the verified contents of the client's request JWT.
type SessionRequestClaims struct {
	ClientID             string             `json:"client_id"`
	Subject              string             `json:"sub" validate:"required"`
	State                string             `json:"state" validate:"required,max=500"`
	RedirectURI          string             `json:"redirect_uri" validate:"required,url,max=2048"`
	GovukSigninJourneyID string             `json:"govuk_signin_journey_id" validate:"required,max=128"`
	PersistentSessionID  string             `json:"persistent_session_id,omitempty" validate:"max=128"`
	SharedClaims         SharedClaims       `json:"shared_claims"`
	EvidenceRequested    *EvidenceRequested `json:"evidence_requested,omitempty"`
}

// Validate fails closed on malformed identity claims: every name needs at least
// one given and one family part made of name characters, and every address
// needs a postcode.
func (c *SessionRequestClaims) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	for _, n := range c.SharedClaims.Name {
		if err := validateName(n); err != nil {
			return err
		}
	}
	for _, a := range c.SharedClaims.Address {
		if strings.TrimSpace(a.PostalCode) == "" {
			return dErrors.New(dErrors.CodeValidation, "address postal_code is required")
		}
		if strings.TrimSpace(a.BuildingNumber) == "" && strings.TrimSpace(a.BuildingName) == "" &&
			strings.TrimSpace(a.SubBuildingName) == "" {
			return dErrors.New(dErrors.CodeValidation, "address building_number or building_name is required")
		}
	}
	return nil
}

func validateName(n evmodels.Name) error {
	var given, family bool
	for _, p := range n.NameParts {
		switch p.Type {
		case evmodels.NamePartGiven:
			given = true
		case evmodels.NamePartFamily:
			family = true
		default:
			return dErrors.New(dErrors.CodeValidation, "name part type is invalid")
		}
		if err := validation.Var("name_part", p.Value, "required,max=100,personname"); err != nil {
			return err
		}
	}
	if !given || !family {
		return dErrors.New(dErrors.CodeValidation, "name requires given and family parts")
	}
	return nil
}

// Selection vocabulary offered by the front end.
const (
	SelectionUKPassport      = "ukPassport"
	SelectionNonUKPassport   = "nonUkPassport"
	SelectionUKPhotocardDL   = "ukPhotocardDl"
	SelectionEUPhotocardDL   = "euPhotocardDl"
	SelectionEEAIdentityCard = "eeaIdentityCard"
	SelectionBRP             = "brp"
)

var selectionDocuments = map[string]evmodels.DocumentType{
	SelectionUKPassport:      evmodels.DocumentPassport,
	SelectionNonUKPassport:   evmodels.DocumentPassport,
	SelectionUKPhotocardDL:   evmodels.DocumentDrivingLicence,
	SelectionEUPhotocardDL:   evmodels.DocumentDrivingLicence,
	SelectionEEAIdentityCard: evmodels.DocumentNationalID,
	SelectionBRP:             evmodels.DocumentResidencePermit,
}

type DocumentSelection struct {
	DocumentSelected string `json:"document_selected" validate:"required,oneof=ukPassport nonUkPassport ukPhotocardDl euPhotocardDl eeaIdentityCard brp"`
	CountryCode      string `json:"country_code" validate:"required,len=3,alpha"`
}

// SelectableDocuments lists the document_selected values a user may pick.
func SelectableDocuments() []string {
	return []string{
		SelectionUKPassport,
		SelectionNonUKPassport,
		SelectionUKPhotocardDL,
		SelectionEUPhotocardDL,
		SelectionEEAIdentityCard,
		SelectionBRP,
	}
}

// DocumentType maps the selection to the vendor's document type.
func (d DocumentSelection) DocumentType() evmodels.DocumentType {
	return selectionDocuments[d.DocumentSelected]
}

type Location struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

type PostOfficeSelection struct {
	Name     string   `json:"name" validate:"required,max=200"`
	Address  string   `json:"address" validate:"required,max=500"`
	PostCode string   `json:"post_code" validate:"required,max=16"`
	Location Location `json:"location"`
	FadCode  string   `json:"fad_code,omitempty" validate:"max=16"`
}

// DocumentSelectionRequest is the body of POST /documentSelection.
type DocumentSelectionRequest struct {
	DocumentSelection   DocumentSelection   `json:"document_selection"`
	PostOfficeSelection PostOfficeSelection `json:"post_office_selection"`
	PDFPreference       string              `json:"pdf_preference,omitempty" validate:"omitempty,oneof=email letter"`
	PostalAddress       *evmodels.Address   `json:"postal_address,omitempty"`
}

func (r *DocumentSelectionRequest) Normalize() {
	r.DocumentSelection.CountryCode = strings.ToUpper(strings.TrimSpace(r.DocumentSelection.CountryCode))
	r.PostOfficeSelection.PostCode = strings.TrimSpace(r.PostOfficeSelection.PostCode)
	r.PDFPreference = strings.ToLower(strings.TrimSpace(r.PDFPreference))
}

// Validate requires a postal code and a building number or name on any
// postal address supplied for the printed letter.
func (r *DocumentSelectionRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	if a := r.PostalAddress; a != nil {
		if strings.TrimSpace(a.PostalCode) == "" ||
			(strings.TrimSpace(a.BuildingNumber) == "" && strings.TrimSpace(a.BuildingName) == "") {
			return dErrors.New(dErrors.CodeValidation, "postal_address requires postal_code and building_number or building_name")
		}
	}
	return nil
}

// AbortRequest is the optional body of POST /abort.
type AbortRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=256"`
}

func (r *AbortRequest) Validate() error {
	return validation.Validate(r)
}

// TokenRequest is the form body of POST /token.
type TokenRequest struct {
	GrantType           string `validate:"required,eq=authorization_code"`
	Code                string `validate:"required,uuid"`
	RedirectURI         string `validate:"required,url"`
	ClientAssertionType string `validate:"required,eq=urn:ietf:params:oauth:client-assertion-type:jwt-bearer"`
	ClientAssertion     string `validate:"required"`
}

func (r *TokenRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return dErrors.New(dErrors.CodeInvalidRequest, err.Error())
	}
	return nil
}

// CallbackRequest is the vendor's completion notification.
type CallbackRequest struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
	Topic     string `json:"topic" validate:"required,max=64"`
}

func (r *CallbackRequest) Validate() error {
	return validation.Validate(r)
}

// Vendor callback topics.
const (
	TopicSessionCompletion = "session_completion"
	TopicThankYouEmail     = "thank_you_email_requested"
)
