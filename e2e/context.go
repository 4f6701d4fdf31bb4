package e2e

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"f2f-cri/internal/client"
	"f2f-cri/internal/credential"
	jwttoken "f2f-cri/internal/jwt_token"
	"f2f-cri/internal/platform/metrics"
	"f2f-cri/internal/platform/middleware"
	"f2f-cri/internal/session/handler"
	"f2f-cri/internal/session/service"
	"f2f-cri/internal/session/store"
	"f2f-cri/pkg/validation"
)

const (
	issuerID      = "https://review-f.account.gov.uk"
	clientID      = "ipv-core"
	redirectURI   = "https://ipv.example/callback"
	deliveryTopic = "f2f-delivery"
)

// TestContext holds state between test steps. Each scenario gets its own
// in-process stack behind an httptest server.
type TestContext struct {
	server     *httptest.Server
	HTTPClient *http.Client

	vendor    *stubVendor
	delivered *recordingPublisher
	audited   *recordingAuditor
	clientKey *ecdsa.PrivateKey

	LastResponse     *http.Response
	LastResponseBody []byte

	Subject     string
	SessionID   string
	AuthCode    string
	AccessToken string
	Credential  string
}

// NewTestContext wires the session service the way the serve command does,
// with an in-memory store and a stubbed vendor.
func NewTestContext() (*TestContext, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	signingKey, err := jwttoken.LoadSigningKey("")
	if err != nil {
		return nil, err
	}
	signer := jwttoken.NewSigner(signingKey, "e2e", issuerID)

	clientKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	registryYAML, err := registryFor(&clientKey.PublicKey)
	if err != nil {
		return nil, err
	}
	registry, err := client.Parse(registryYAML)
	if err != nil {
		return nil, err
	}

	m := metrics.NewWith(prometheus.NewRegistry())
	delivered := &recordingPublisher{}
	audited := &recordingAuditor{}
	vendor := newStubVendor()
	issuer := credential.NewIssuer(signer, credential.NewInMemoryGuard(),
		credential.WithAuditor(audited),
		credential.WithDelivery(delivered, deliveryTopic),
		credential.WithMetrics(m),
		credential.WithLogger(logger),
	)

	svc, err := service.New(store.NewInMemory(), vendor, issuer, registry, signer,
		service.Config{
			IssuerID:      issuerID,
			DeliveryTopic: deliveryTopic,
		},
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithAuditor(audited),
		service.WithNotifier(delivered),
	)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.BodyLimit(validation.MaxBodySize))
	handler.New(svc, signer, logger).Register(r)

	return &TestContext{
		server: httptest.NewServer(r),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		vendor:    vendor,
		delivered: delivered,
		audited:   audited,
		clientKey: clientKey,
	}, nil
}

func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
	}
}

func registryFor(pub *ecdsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	block := strings.TrimSpace(string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})))
	indented := "      " + strings.ReplaceAll(block, "\n", "\n      ")
	return []byte("clients:\n" +
		"  - client_id: " + clientID + "\n" +
		"    redirect_uri: " + redirectURI + "\n" +
		"    public_key: |\n" + indented + "\n"), nil
}

// POST sends body as JSON. A nil body sends no content.
func (tc *TestContext) POST(path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, tc.server.URL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return tc.do(req, headers)
}

// POSTForm sends form as application/x-www-form-urlencoded.
func (tc *TestContext) POSTForm(path string, form url.Values) error {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, tc.server.URL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return tc.do(req, nil)
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, tc.server.URL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return tc.do(req, headers)
}

func (tc *TestContext) do(req *http.Request, headers map[string]string) error {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// GetResponseField extracts a top-level field from the JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var data map[string]any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	value, ok := data[field]
	if !ok {
		return nil, fmt.Errorf("field %s not found in response", field)
	}
	return value, nil
}

func (tc *TestContext) sessionHeader() map[string]string {
	return map[string]string{middleware.SessionHeader: tc.SessionID}
}

func (tc *TestContext) lastStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}
