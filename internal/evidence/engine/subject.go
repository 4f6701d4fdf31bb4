package engine

import (
	"fmt"
	"strings"
	"unicode"

	"f2f-cri/internal/evidence/models"
)

// BuildSubject assembles name, birth date, optional address and the single
// document block for the input's document type and issuing country.
func BuildSubject(in Input) (*models.CredentialSubject, error) {
	name, err := SubjectName(in.Fields, in.FallbackName)
	if err != nil {
		return nil, err
	}

	subject := &models.CredentialSubject{
		Name:      []models.Name{name},
		BirthDate: []models.BirthDate{{Value: in.Fields.DateOfBirth}},
	}
	if addr, ok := SubjectAddress(in.Fields.StructuredPostalAddress); ok {
		subject.Address = []models.Address{addr}
	}
	if err := attachDocument(subject, in.DocumentType, in.IssuingCountry, in.Fields); err != nil {
		return nil, err
	}
	return subject, nil
}

// SubjectName splits given names on whitespace into GivenName parts followed by
// one FamilyName part. A part missing from the document is taken from fallback.
func SubjectName(fields models.DocumentFields, fallback *models.Name) (models.Name, error) {
	given := strings.TrimSpace(fields.GivenNames)
	family := strings.TrimSpace(fields.FamilyName)

	if given == "" || family == "" {
		if fallback == nil {
			return models.Name{}, ErrMissingName
		}
		if given == "" {
			given = fallback.Given()
		}
		if family == "" {
			family = fallback.Family()
		}
	}
	if given == "" || family == "" {
		return models.Name{}, ErrMissingName
	}

	var parts []models.NamePart
	for _, g := range strings.Fields(given) {
		parts = append(parts, models.NamePart{Type: models.NamePartGiven, Value: g})
	}
	parts = append(parts, models.NamePart{Type: models.NamePartFamily, Value: family})
	return models.Name{NameParts: parts}, nil
}

// SubjectAddress maps the document's postal address. Without an explicit
// building number, a leading number on the first address line is split off
// as the building number and the rest becomes the street name.
func SubjectAddress(a *models.StructuredPostalAddress) (models.Address, bool) {
	if a == nil {
		return models.Address{}, false
	}

	line := strings.TrimSpace(a.AddressLine1)
	building := strings.TrimSpace(a.BuildingNumber)
	street := line
	if building == "" {
		building, street = splitBuildingNumber(line)
	} else if rest, ok := strings.CutPrefix(line, building); ok && (rest == "" || rest[0] == ' ' || rest[0] == ',') {
		street = strings.TrimLeft(rest, " ,")
	}

	country := a.CountryISO
	if country == "" {
		country = a.Country
	}
	return models.Address{
		BuildingNumber:  building,
		StreetName:      street,
		AddressLocality: a.TownCity,
		PostalCode:      a.PostalCode,
		AddressCountry:  country,
	}, true
}

// splitBuildingNumber turns "14a Grove Avenue" into ("14a", "Grove Avenue").
// A line without a leading digit is all street.
func splitBuildingNumber(line string) (string, string) {
	if line == "" || !unicode.IsDigit(rune(line[0])) {
		return "", line
	}
	token, rest, _ := strings.Cut(line, " ")
	token = strings.TrimRight(token, ",")
	return token, strings.TrimLeft(rest, " ,")
}

func attachDocument(s *models.CredentialSubject, docType models.DocumentType, country string, f models.DocumentFields) error {
	switch docType {
	case models.DocumentPassport:
		s.Passport = []models.Passport{{
			DocumentNumber: f.DocumentNumber,
			ExpiryDate:     f.ExpirationDate,
			ICAOIssuerCode: f.IssuingCountry,
		}}
	case models.DocumentDrivingLicence:
		permit := models.DrivingPermit{
			PersonalNumber: f.DocumentNumber,
			ExpiryDate:     f.ExpirationDate,
			IssueDate:      f.DateOfIssue,
			IssuedBy:       f.IssuingCountry,
		}
		if country == models.CountryGBR {
			permit.IssuedBy = f.IssuingAuthority
			permit.FullAddress = f.Address()
		}
		s.DrivingPermit = []models.DrivingPermit{permit}
	case models.DocumentNationalID:
		if country == models.CountryGBR {
			return fmt.Errorf("%w: %s/%s", ErrUnsupportedDocument, docType, country)
		}
		s.IDCard = []models.IDCard{{
			DocumentNumber: f.DocumentNumber,
			ExpiryDate:     f.ExpirationDate,
			IssueDate:      f.DateOfIssue,
			ICAOIssuerCode: f.IssuingCountry,
		}}
	case models.DocumentResidencePermit:
		s.ResidencePermit = []models.ResidencePermit{{
			DocumentNumber: f.DocumentNumber,
			ExpiryDate:     f.ExpirationDate,
			IssueDate:      f.DateOfIssue,
			ICAOIssuerCode: f.IssuingCountry,
		}}
	default:
		return fmt.Errorf("%w: %s/%s", ErrUnsupportedDocument, docType, country)
	}
	return nil
}
