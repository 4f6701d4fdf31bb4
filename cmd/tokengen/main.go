// Package main provides a CLI tool for producing the client-side JWTs a
// relying party sends to the F2F issuer: session request objects and
// private_key_jwt client assertions. Keys it generates are for local use only.
package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	jwttoken "f2f-cri/internal/jwt_token"
)

const (
	defaultClientID    = "ipv-core"
	defaultAudience    = "https://review-f.account.gov.uk"
	defaultRedirectURI = "http://localhost:8085/callback"
	defaultTokenTTL    = 5 * time.Minute
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	keygenCmd := flag.NewFlagSet("keygen", flag.ExitOnError)
	requestCmd := flag.NewFlagSet("request", flag.ExitOnError)
	assertionCmd := flag.NewFlagSet("assertion", flag.ExitOnError)

	keygenOut := keygenCmd.String("out", "client-key.pem", "Where to write the private key PEM")

	requestKey := requestCmd.String("key", "client-key.pem", "Client private key PEM")
	requestClientID := requestCmd.String("client-id", defaultClientID, "Client ID registered with the issuer")
	requestAudience := requestCmd.String("aud", defaultAudience, "Issuer audience")
	requestRedirect := requestCmd.String("redirect-uri", defaultRedirectURI, "Registered redirect URI")
	requestSubject := requestCmd.String("sub", "", "User subject. Generated if empty.")
	requestState := requestCmd.String("state", "local-state", "OAuth state echoed on redirect")
	requestGiven := requestCmd.String("given", "Frederick Joseph", "Given names")
	requestFamily := requestCmd.String("family", "Flintstone", "Family name (the vendor stub reacts to Unavailable, Rejected, Pending)")
	requestDOB := requestCmd.String("birth-date", "1960-02-02", "Birth date")
	requestEmail := requestCmd.String("email", "fred@example.com", "Email address")
	requestTTL := requestCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	requestJSON := requestCmd.Bool("json", false, "Output as JSON")

	assertionKey := assertionCmd.String("key", "client-key.pem", "Client private key PEM")
	assertionClientID := assertionCmd.String("client-id", defaultClientID, "Client ID registered with the issuer")
	assertionAudience := assertionCmd.String("aud", defaultAudience, "Issuer audience")
	assertionTTL := assertionCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	assertionJSON := assertionCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "keygen":
		keygenCmd.Parse(os.Args[2:])
		generateKey(*keygenOut)
	case "request":
		requestCmd.Parse(os.Args[2:])
		signer := loadSigner(*requestKey, *requestClientID)
		generateRequest(signer, requestParams{
			clientID:    *requestClientID,
			audience:    *requestAudience,
			redirectURI: *requestRedirect,
			subject:     *requestSubject,
			state:       *requestState,
			given:       *requestGiven,
			family:      *requestFamily,
			birthDate:   *requestDOB,
			email:       *requestEmail,
			ttl:         *requestTTL,
		}, *requestJSON)
	case "assertion":
		assertionCmd.Parse(os.Args[2:])
		signer := loadSigner(*assertionKey, *assertionClientID)
		generateAssertion(signer, *assertionClientID, *assertionAudience, *assertionTTL, *assertionJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate relying party JWTs for the F2F issuer

WARNING: Only use generated keys for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  keygen     Create a P-256 client key and print the public key for clients.yaml
  request    Sign a session request object for POST /session
  assertion  Sign a private_key_jwt client assertion for POST /token

Examples:
  # Create a client key pair
  tokengen keygen -out client-key.pem

  # Request object for a user the vendor stub will reject
  tokengen request -family Rejected

  # Client assertion as JSON
  tokengen assertion -json

Use "tokengen <command> -h" for more information about a command.`)
}

func generateKey(out string) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		fail("generate key", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		fail("encode private key", err)
	}
	if err := os.WriteFile(out, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), 0o600); err != nil {
		fail("write private key", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		fail("encode public key", err)
	}
	fmt.Printf("Private key written to %s\n\n", out)
	fmt.Println("Public key (paste under public_key in clients.yaml):")
	fmt.Print(string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub})))
}

func loadSigner(path, clientID string) *jwttoken.Signer {
	key, err := jwttoken.LoadSigningKey(path)
	if err != nil {
		fail("load client key", err)
	}
	// The client signs as itself; no kid is registered for it.
	return jwttoken.NewSigner(key, "", clientID)
}

type requestParams struct {
	clientID, audience, redirectURI string
	subject, state                  string
	given, family, birthDate, email string
	ttl                             time.Duration
}

func generateRequest(signer *jwttoken.Signer, p requestParams, jsonOutput bool) {
	if p.subject == "" {
		p.subject = "urn:fdc:gov.uk:2022:" + uuid.NewString()
	}
	var parts []any
	for _, g := range strings.Fields(p.given) {
		parts = append(parts, map[string]any{"type": "GivenName", "value": g})
	}
	parts = append(parts, map[string]any{"type": "FamilyName", "value": p.family})

	claims := jwt.MapClaims{
		"iss":                     p.clientID,
		"client_id":               p.clientID,
		"aud":                     p.audience,
		"exp":                     time.Now().Add(p.ttl).Unix(),
		"sub":                     p.subject,
		"state":                   p.state,
		"redirect_uri":            p.redirectURI,
		"govuk_signin_journey_id": uuid.NewString(),
		"shared_claims": map[string]any{
			"name":         []any{map[string]any{"nameParts": parts}},
			"birthDate":    []any{map[string]any{"value": p.birthDate}},
			"emailAddress": p.email,
		},
	}
	token, err := signer.Sign(claims)
	if err != nil {
		fail("sign request", err)
	}

	body := map[string]string{"client_id": p.clientID, "request": token}
	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Type:      "request_object",
			ExpiresIn: p.ttl.String(),
			Claims:    map[string]any{"sub": p.subject, "state": p.state},
			Usage:     map[string]string{"endpoint": "POST /session", "body": mustJSON(body)},
		})
		return
	}
	fmt.Println("Session Request Object")
	fmt.Println("======================")
	fmt.Printf("Client ID:   %s\n", p.clientID)
	fmt.Printf("Subject:     %s\n", p.subject)
	fmt.Printf("Expires In:  %s\n", p.ttl)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -X POST -H 'Content-Type: application/json' -d '%s' http://localhost:8080/session\n", mustJSON(body))
}

func generateAssertion(signer *jwttoken.Signer, clientID, audience string, ttl time.Duration, jsonOutput bool) {
	jti := uuid.NewString()
	token, err := signer.Sign(jwt.RegisteredClaims{
		Issuer:    clientID,
		Subject:   clientID,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		ID:        jti,
	})
	if err != nil {
		fail("sign assertion", err)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Type:      "client_assertion",
			ExpiresIn: ttl.String(),
			Claims:    map[string]any{"iss": clientID, "aud": audience, "jti": jti},
			Usage: map[string]string{
				"endpoint":              "POST /token",
				"client_assertion_type": "urn:ietf:params:oauth:client-assertion-type:jwt-bearer",
			},
		})
		return
	}
	fmt.Println("Client Assertion (private_key_jwt)")
	fmt.Println("==================================")
	fmt.Printf("Client ID:   %s\n", clientID)
	fmt.Printf("Audience:    %s\n", audience)
	fmt.Printf("JTI:         %s\n", jti)
	fmt.Printf("Expires In:  %s\n", ttl)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -X POST http://localhost:8080/token \\")
	fmt.Println("    -d grant_type=authorization_code -d code=<code> -d redirect_uri=<uri> \\")
	fmt.Println("    -d client_assertion_type=urn:ietf:params:oauth:client-assertion-type:jwt-bearer \\")
	fmt.Println("    -d client_assertion=<token>")
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		fail("encode json", err)
	}
	return string(b)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("encode json", err)
	}
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", what, err)
	os.Exit(1)
}
