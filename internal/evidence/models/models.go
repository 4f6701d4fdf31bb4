// Package models holds the vendor check inputs and the credential vocabulary
// (names, addresses, document blocks, evidence) shared by issuance and sessions.
package models

import "strings"

type DocumentType string

const (
	DocumentPassport        DocumentType = "PASSPORT"
	DocumentDrivingLicence  DocumentType = "DRIVING_LICENCE"
	DocumentNationalID      DocumentType = "NATIONAL_ID"
	DocumentResidencePermit DocumentType = "RESIDENCE_PERMIT"
)

func (d DocumentType) IsValid() bool {
	switch d {
	case DocumentPassport, DocumentDrivingLicence, DocumentNationalID, DocumentResidencePermit:
		return true
	}
	return false
}

// CountryGBR is the ICAO code that switches document handling to UK rules.
const CountryGBR = "GBR"

type CheckType string

const (
	CheckDocumentAuthenticity CheckType = "ID_DOCUMENT_AUTHENTICITY"
	CheckFaceMatch            CheckType = "ID_DOCUMENT_FACE_MATCH"
	CheckVisualReview         CheckType = "IBV_VISUAL_REVIEW_CHECK"
	CheckSchemeValidity       CheckType = "DOCUMENT_SCHEME_VALIDITY_CHECK"
	CheckProfileMatch         CheckType = "PROFILE_DOCUMENT_MATCH"
)

// MandatoryChecks must all be present and DONE before evidence is assembled.
var MandatoryChecks = []CheckType{
	CheckDocumentAuthenticity,
	CheckFaceMatch,
	CheckVisualReview,
	CheckSchemeValidity,
	CheckProfileMatch,
}

type CheckState string

const (
	CheckStatePending CheckState = "PENDING"
	CheckStateDone    CheckState = "DONE"
)

const (
	RecommendationApprove = "APPROVE"
	RecommendationReject  = "REJECT"
)

const (
	SubCheckPass = "PASS"
	SubCheckFail = "FAIL"

	SubCheckChipCSCATrusted = "chip_csca_trusted"
	SubCheckManualFaceMatch = "manual_face_match"
)

type Recommendation struct {
	Value  string `json:"value"`
	Reason string `json:"reason,omitempty"`
}

type SubCheck struct {
	SubCheck string `json:"sub_check"`
	Result   string `json:"result"`
}

// CheckResult is one vendor check as reported on a completed session.
type CheckResult struct {
	Type           CheckType      `json:"type"`
	State          CheckState     `json:"state"`
	Recommendation Recommendation `json:"recommendation"`
	Breakdown      []SubCheck     `json:"breakdown"`
}

// Passed reports whether the breakdown holds name with a PASS result.
func (c CheckResult) Passed(name string) bool {
	for _, sc := range c.Breakdown {
		if sc.SubCheck == name && sc.Result == SubCheckPass {
			return true
		}
	}
	return false
}

type StructuredPostalAddress struct {
	AddressFormat    int    `json:"address_format,omitempty"`
	BuildingNumber   string `json:"building_number,omitempty"`
	AddressLine1     string `json:"address_line1,omitempty"`
	TownCity         string `json:"town_city,omitempty"`
	PostalCode       string `json:"postal_code,omitempty"`
	CountryISO       string `json:"country_iso,omitempty"`
	Country          string `json:"country,omitempty"`
	FormattedAddress string `json:"formatted_address,omitempty"`
}

// DocumentFields is the text extracted from the scanned document.
type DocumentFields struct {
	FullName                string                   `json:"full_name,omitempty"`
	GivenNames              string                   `json:"given_names,omitempty"`
	FamilyName              string                   `json:"family_name,omitempty"`
	DateOfBirth             string                   `json:"date_of_birth,omitempty"`
	DocumentType            string                   `json:"document_type,omitempty"`
	DocumentNumber          string                   `json:"document_number,omitempty"`
	ExpirationDate          string                   `json:"expiration_date,omitempty"`
	DateOfIssue             string                   `json:"date_of_issue,omitempty"`
	IssuingCountry          string                   `json:"issuing_country,omitempty"`
	IssuingAuthority        string                   `json:"issuing_authority,omitempty"`
	PlaceOfIssue            string                   `json:"place_of_issue,omitempty"`
	FormattedAddress        string                   `json:"formatted_address,omitempty"`
	StructuredPostalAddress *StructuredPostalAddress `json:"structured_postal_address,omitempty"`
}

// Address returns the free-text address, preferring the top-level field.
func (f DocumentFields) Address() string {
	if f.FormattedAddress != "" {
		return f.FormattedAddress
	}
	if f.StructuredPostalAddress != nil {
		return f.StructuredPostalAddress.FormattedAddress
	}
	return ""
}

const (
	NamePartGiven  = "GivenName"
	NamePartFamily = "FamilyName"
)

type NamePart struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Name struct {
	NameParts []NamePart `json:"nameParts"`
}

// Given joins the GivenName parts with single spaces.
func (n Name) Given() string {
	return n.join(NamePartGiven)
}

// Family joins the FamilyName parts with single spaces.
func (n Name) Family() string {
	return n.join(NamePartFamily)
}

// Full is the given names followed by the family name.
func (n Name) Full() string {
	return strings.TrimSpace(n.Given() + " " + n.Family())
}

func (n Name) join(kind string) string {
	var parts []string
	for _, p := range n.NameParts {
		if p.Type == kind && p.Value != "" {
			parts = append(parts, p.Value)
		}
	}
	return strings.Join(parts, " ")
}

type BirthDate struct {
	Value string `json:"value"`
}

// Address is the structured postal address vocabulary used both in shared
// claims and in the credential subject.
type Address struct {
	UPRN              string `json:"uprn,omitempty"`
	SubBuildingName   string `json:"subBuildingName,omitempty"`
	BuildingName      string `json:"buildingName,omitempty"`
	BuildingNumber    string `json:"buildingNumber,omitempty"`
	StreetName        string `json:"streetName,omitempty"`
	AddressLocality   string `json:"addressLocality,omitempty"`
	PostalCode        string `json:"postalCode,omitempty"`
	AddressCountry    string `json:"addressCountry,omitempty"`
	PreferredAddress  bool   `json:"preferredAddress,omitempty"`
	ValidFrom         string `json:"validFrom,omitempty"`
	ValidUntil        string `json:"validUntil,omitempty"`
	DepartmentName    string `json:"departmentName,omitempty"`
	OrganisationName  string `json:"organisationName,omitempty"`
	DependentLocality string `json:"dependentAddressLocality,omitempty"`
}

type Passport struct {
	DocumentNumber string `json:"documentNumber"`
	ExpiryDate     string `json:"expiryDate,omitempty"`
	ICAOIssuerCode string `json:"icaoIssuerCode,omitempty"`
}

type DrivingPermit struct {
	PersonalNumber string `json:"personalNumber"`
	ExpiryDate     string `json:"expiryDate,omitempty"`
	IssueDate      string `json:"issueDate,omitempty"`
	IssuedBy       string `json:"issuedBy,omitempty"`
	FullAddress    string `json:"fullAddress,omitempty"`
}

type IDCard struct {
	DocumentNumber string `json:"documentNumber"`
	ExpiryDate     string `json:"expiryDate,omitempty"`
	IssueDate      string `json:"issueDate,omitempty"`
	ICAOIssuerCode string `json:"icaoIssuerCode,omitempty"`
}

type ResidencePermit struct {
	DocumentNumber string `json:"documentNumber"`
	ExpiryDate     string `json:"expiryDate,omitempty"`
	IssueDate      string `json:"issueDate,omitempty"`
	ICAOIssuerCode string `json:"icaoIssuerCode,omitempty"`
}

// CredentialSubject carries exactly one of the document blocks.
type CredentialSubject struct {
	Name            []Name            `json:"name"`
	BirthDate       []BirthDate       `json:"birthDate"`
	Address         []Address         `json:"address,omitempty"`
	Passport        []Passport        `json:"passport,omitempty"`
	DrivingPermit   []DrivingPermit   `json:"drivingPermit,omitempty"`
	IDCard          []IDCard          `json:"idCard,omitempty"`
	ResidencePermit []ResidencePermit `json:"residencePermit,omitempty"`
}

// DocumentBlock returns the JSON name and value of the populated document block.
func (c CredentialSubject) DocumentBlock() (string, any) {
	switch {
	case len(c.Passport) > 0:
		return "passport", c.Passport
	case len(c.DrivingPermit) > 0:
		return "drivingPermit", c.DrivingPermit
	case len(c.IDCard) > 0:
		return "idCard", c.IDCard
	case len(c.ResidencePermit) > 0:
		return "residencePermit", c.ResidencePermit
	}
	return "", nil
}

const EvidenceTypeIdentityCheck = "IdentityCheck"

const (
	CheckMethodVCrypt = "vcrypt"
	CheckMethodVRI    = "vri"
	CheckMethodBVR    = "bvr"
	CheckMethodPVR    = "pvr"

	PolicyPublished = "published"
)

type CheckDetail struct {
	CheckMethod                       string `json:"checkMethod"`
	IdentityCheckPolicy               string `json:"identityCheckPolicy,omitempty"`
	Txn                               string `json:"txn,omitempty"`
	BiometricVerificationProcessLevel int    `json:"biometricVerificationProcessLevel,omitempty"`
	PhotoVerificationProcessLevel     int    `json:"photoVerificationProcessLevel,omitempty"`
}

// Evidence has exactly one of CheckDetails or FailedCheckDetails.
type Evidence struct {
	Type               string        `json:"type"`
	Txn                string        `json:"txn"`
	StrengthScore      int           `json:"strengthScore"`
	ValidityScore      int           `json:"validityScore"`
	VerificationScore  int           `json:"verificationScore"`
	CI                 []string      `json:"ci,omitempty"`
	CheckDetails       []CheckDetail `json:"checkDetails,omitempty"`
	FailedCheckDetails []CheckDetail `json:"failedCheckDetails,omitempty"`
}

// Failed reports whether any score is zero.
func (e Evidence) Failed() bool {
	return e.StrengthScore == 0 || e.ValidityScore == 0 || e.VerificationScore == 0
}

// RejectionReason explains one counter-indicator.
type RejectionReason struct {
	CI     string `json:"ci"`
	Reason string `json:"reason"`
}
