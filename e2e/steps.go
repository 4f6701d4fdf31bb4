package e2e

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"f2f-cri/internal/session/models"
	"f2f-cri/pkg/platform/audit"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Journey steps
	ctx.Step(`^the relying party starts a session for "([^"]*)"$`, tc.startSession)
	ctx.Step(`^the relying party starts a session for "([^"]*)" without an email address$`, tc.startSessionWithoutEmail)
	ctx.Step(`^the user selects a "([^"]*)" issued by "([^"]*)"$`, tc.selectDocument)
	ctx.Step(`^the front end requests authorization$`, tc.requestAuthorization)
	ctx.Step(`^the front end requests authorization without a session header$`, tc.requestAuthorizationWithoutHeader)
	ctx.Step(`^the front end requests authorization with session header "([^"]*)"$`, tc.requestAuthorizationWithHeader)
	ctx.Step(`^the relying party exchanges the authorization code$`, tc.exchangeCode)
	ctx.Step(`^the relying party requests the credential$`, tc.requestUserInfo)
	ctx.Step(`^the vendor reports the branch visit complete$`, tc.vendorCompletes)
	ctx.Step(`^the user aborts the journey$`, tc.abort)
	ctx.Step(`^the front end reads the session configuration$`, tc.readSessionConfiguration)
	ctx.Step(`^the relying party fetches the published keys$`, tc.fetchKeys)

	// Assertion steps
	ctx.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.responseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, tc.responseFieldShouldEqual)
	ctx.Step(`^the response should carry a credential for the user$`, tc.responseShouldCarryCredential)
	ctx.Step(`^the credential should score strength (\d+), validity (\d+) and verification (\d+)$`, tc.credentialShouldScore)
	ctx.Step(`^the redirect location should contain "([^"]*)"$`, tc.locationShouldContain)
	ctx.Step(`^(\d+) credentials? should have been delivered$`, tc.credentialsDelivered)
	ctx.Step(`^the audit trail should contain (\d+) "([^"]*)" events?$`, tc.auditEventsShouldBe)
}

func (tc *TestContext) requestObject(subject string, shared map[string]any) (string, error) {
	claims := jwt.MapClaims{
		"iss":                     clientID,
		"client_id":               clientID,
		"aud":                     issuerID,
		"exp":                     time.Now().Add(5 * time.Minute).Unix(),
		"sub":                     subject,
		"state":                   "e2e-state",
		"redirect_uri":            redirectURI,
		"govuk_signin_journey_id": uuid.NewString(),
		"shared_claims":           shared,
	}
	return jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(tc.clientKey)
}

func sharedClaims() map[string]any {
	return map[string]any{
		"name": []any{map[string]any{"nameParts": []any{
			map[string]any{"type": "GivenName", "value": "Frederick"},
			map[string]any{"type": "GivenName", "value": "Joseph"},
			map[string]any{"type": "FamilyName", "value": "Flintstone"},
		}}},
		"birthDate":    []any{map[string]any{"value": "1960-02-02"}},
		"emailAddress": "fred@example.com",
	}
}

func (tc *TestContext) createSession(subject string, shared map[string]any) error {
	request, err := tc.requestObject(subject, shared)
	if err != nil {
		return err
	}
	tc.Subject = subject
	if err := tc.POST("/session", map[string]string{
		"client_id": clientID,
		"request":   request,
	}, nil); err != nil {
		return err
	}
	if tc.LastResponse.StatusCode != 200 {
		return nil
	}
	id, err := tc.GetResponseField("session_id")
	if err != nil {
		return err
	}
	tc.SessionID, _ = id.(string)
	return nil
}

func (tc *TestContext) startSession(ctx context.Context, subject string) error {
	return tc.createSession(subject, sharedClaims())
}

func (tc *TestContext) startSessionWithoutEmail(ctx context.Context, subject string) error {
	shared := sharedClaims()
	delete(shared, "emailAddress")
	return tc.createSession(subject, shared)
}

func (tc *TestContext) selectDocument(ctx context.Context, selection, country string) error {
	body := map[string]any{
		"document_selection": map[string]string{
			"document_selected": selection,
			"country_code":      country,
		},
		"post_office_selection": map[string]any{
			"name":      "Bedrock Post Office",
			"address":   "1 Quarry Road, Bedrock",
			"post_code": "BR1 1AA",
			"location":  map[string]float64{"latitude": 51.5, "longitude": -0.12},
			"fad_code":  "1234567",
		},
	}
	return tc.POST("/documentSelection", body, tc.sessionHeader())
}

func (tc *TestContext) requestAuthorization(ctx context.Context) error {
	if err := tc.GET("/authorization", tc.sessionHeader()); err != nil {
		return err
	}
	if tc.LastResponse.StatusCode != 200 {
		return nil
	}
	code, err := tc.GetResponseField("authorizationCode")
	if err != nil {
		return err
	}
	value, _ := code.(map[string]any)["value"].(string)
	if value == "" {
		return fmt.Errorf("authorization code missing from %s", tc.LastResponseBody)
	}
	tc.AuthCode = value
	return nil
}

func (tc *TestContext) readSessionConfiguration(ctx context.Context) error {
	return tc.GET("/session-configuration", tc.sessionHeader())
}

func (tc *TestContext) fetchKeys(ctx context.Context) error {
	return tc.GET("/.well-known/jwks.json", nil)
}

func (tc *TestContext) requestAuthorizationWithoutHeader(ctx context.Context) error {
	return tc.GET("/authorization", nil)
}

func (tc *TestContext) requestAuthorizationWithHeader(ctx context.Context, value string) error {
	return tc.GET("/authorization", map[string]string{"session-id": value})
}

func (tc *TestContext) exchangeCode(ctx context.Context) error {
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.RegisteredClaims{
		Issuer:    clientID,
		Subject:   clientID,
		Audience:  jwt.ClaimStrings{issuerID},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
		ID:        uuid.NewString(),
	}).SignedString(tc.clientKey)
	if err != nil {
		return err
	}
	form := url.Values{
		"grant_type":            {"authorization_code"},
		"code":                  {tc.AuthCode},
		"redirect_uri":          {redirectURI},
		"client_assertion_type": {"urn:ietf:params:oauth:client-assertion-type:jwt-bearer"},
		"client_assertion":      {assertion},
	}
	if err := tc.POSTForm("/token", form); err != nil {
		return err
	}
	if tc.LastResponse.StatusCode != 200 {
		return nil
	}
	token, err := tc.GetResponseField("access_token")
	if err != nil {
		return err
	}
	tc.AccessToken, _ = token.(string)
	return nil
}

func (tc *TestContext) requestUserInfo(ctx context.Context) error {
	return tc.POST("/userinfo", nil, map[string]string{"Authorization": "Bearer " + tc.AccessToken})
}

func (tc *TestContext) vendorCompletes(ctx context.Context) error {
	vendorSessionID, ok := tc.vendor.complete()
	if !ok {
		return fmt.Errorf("no vendor session was opened")
	}
	return tc.POST("/callback", map[string]string{
		"session_id": vendorSessionID,
		"topic":      models.TopicSessionCompletion,
	}, nil)
}

func (tc *TestContext) abort(ctx context.Context) error {
	return tc.POST("/abort", nil, tc.sessionHeader())
}

func (tc *TestContext) responseStatusShouldBe(ctx context.Context, expected int) error {
	if tc.LastResponse == nil {
		return fmt.Errorf("no response received")
	}
	if tc.LastResponse.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, tc.LastResponse.StatusCode, tc.LastResponseBody)
	}
	return nil
}

func (tc *TestContext) responseShouldContain(ctx context.Context, text string) error {
	if !strings.Contains(string(tc.LastResponseBody), text) {
		return fmt.Errorf("response does not contain %q: %s", text, tc.LastResponseBody)
	}
	return nil
}

func (tc *TestContext) responseFieldShouldEqual(ctx context.Context, field, expected string) error {
	value, err := tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(value) != expected {
		return fmt.Errorf("expected %s to be %q, got %q", field, expected, fmt.Sprint(value))
	}
	return nil
}

// responseShouldCarryCredential checks the userinfo body names the user and
// holds one signed credential.
func (tc *TestContext) responseShouldCarryCredential(ctx context.Context) error {
	if err := tc.responseFieldShouldEqual(ctx, "sub", tc.Subject); err != nil {
		return err
	}
	raw, err := tc.GetResponseField(models.CredentialJWTClaim)
	if err != nil {
		return err
	}
	list, ok := raw.([]any)
	if !ok || len(list) != 1 {
		return fmt.Errorf("expected one credential, got %v", raw)
	}
	vc, _ := list[0].(string)
	if strings.Count(vc, ".") != 2 {
		return fmt.Errorf("credential is not a compact JWT: %q", vc)
	}
	tc.Credential = vc
	return nil
}

// credentialShouldScore reads the evidence block of the last credential. The
// signature is covered by unit tests; here only the payload matters.
func (tc *TestContext) credentialShouldScore(ctx context.Context, strength, validity, verification int) error {
	parts := strings.Split(tc.Credential, ".")
	if len(parts) != 3 {
		return fmt.Errorf("no credential captured")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return fmt.Errorf("decode credential payload: %w", err)
	}
	var claims struct {
		VC struct {
			Evidence []struct {
				StrengthScore      int   `json:"strengthScore"`
				ValidityScore      int   `json:"validityScore"`
				VerificationScore  int   `json:"verificationScore"`
				CheckDetails       []any `json:"checkDetails"`
				FailedCheckDetails []any `json:"failedCheckDetails"`
			} `json:"evidence"`
		} `json:"vc"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return fmt.Errorf("unmarshal credential payload: %w", err)
	}
	if len(claims.VC.Evidence) != 1 {
		return fmt.Errorf("expected one evidence block, got %d", len(claims.VC.Evidence))
	}
	ev := claims.VC.Evidence[0]
	if ev.StrengthScore != strength || ev.ValidityScore != validity || ev.VerificationScore != verification {
		return fmt.Errorf("scores %d/%d/%d, want %d/%d/%d",
			ev.StrengthScore, ev.ValidityScore, ev.VerificationScore, strength, validity, verification)
	}
	if len(ev.CheckDetails) == 0 || len(ev.FailedCheckDetails) != 0 {
		return fmt.Errorf("expected checkDetails only, got %d passed and %d failed", len(ev.CheckDetails), len(ev.FailedCheckDetails))
	}
	return nil
}

func (tc *TestContext) locationShouldContain(ctx context.Context, text string) error {
	location := tc.LastResponse.Header.Get("Location")
	if !strings.Contains(location, text) {
		return fmt.Errorf("location %q does not contain %q", location, text)
	}
	return nil
}

func (tc *TestContext) credentialsDelivered(ctx context.Context, expected int) error {
	if got := tc.delivered.count(deliveryTopic); got != expected {
		return fmt.Errorf("expected %d deliveries, got %d", expected, got)
	}
	return nil
}

func (tc *TestContext) auditEventsShouldBe(ctx context.Context, expected int, name string) error {
	if got := tc.audited.count(audit.EventName(name)); got != expected {
		return fmt.Errorf("expected %d %s events, got %d", expected, name, got)
	}
	return nil
}
