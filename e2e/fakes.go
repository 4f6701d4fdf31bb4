package e2e

import (
	"context"
	"sync"

	"github.com/google/uuid"

	evmodels "f2f-cri/internal/evidence/models"
	"f2f-cri/internal/vendor"
	"f2f-cri/pkg/platform/audit"
)

// stubVendor plays the document-check vendor. Sessions stay incomplete until
// complete is called for them.
type stubVendor struct {
	mu        sync.Mutex
	sessions  []string
	completed map[string]bool
}

func newStubVendor() *stubVendor {
	return &stubVendor{completed: make(map[string]bool)}
}

func (v *stubVendor) CreateSession(_ context.Context, _ vendor.SessionRequest) (*vendor.CreatedSession, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := uuid.NewString()
	v.sessions = append(v.sessions, id)
	return &vendor.CreatedSession{SessionID: id}, nil
}

func (v *stubVendor) GetConfiguration(_ context.Context, sessionID string) (*vendor.Configuration, error) {
	return &vendor.Configuration{
		SessionID: sessionID,
		Capture: vendor.Capture{RequiredResources: []vendor.RequiredResource{{
			Type: "ID_DOCUMENT",
			ID:   "requirement-1",
			SupportedCountries: []vendor.SupportedCountry{{
				Code:               "GBR",
				SupportedDocuments: []vendor.SupportedDocument{{Type: "PASSPORT"}},
			}},
		}}},
	}, nil
}

func (v *stubVendor) PutInstructions(context.Context, string, *vendor.Instructions) error {
	return nil
}

func (v *stubVendor) GetInstructionsPDF(context.Context, string) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

func (v *stubVendor) GetCompletedSession(_ context.Context, sessionID string) (*vendor.CompletedSession, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.completed[sessionID] {
		return nil, vendor.ErrSessionNotCompleted
	}
	kinds := []evmodels.CheckType{
		evmodels.CheckDocumentAuthenticity,
		evmodels.CheckFaceMatch,
		evmodels.CheckVisualReview,
		evmodels.CheckSchemeValidity,
		evmodels.CheckProfileMatch,
	}
	checks := make([]evmodels.CheckResult, 0, len(kinds))
	for _, k := range kinds {
		c := evmodels.CheckResult{
			Type:           k,
			State:          evmodels.CheckStateDone,
			Recommendation: evmodels.Recommendation{Value: evmodels.RecommendationApprove},
		}
		if k == evmodels.CheckDocumentAuthenticity {
			c.Breakdown = []evmodels.SubCheck{{SubCheck: evmodels.SubCheckChipCSCATrusted, Result: evmodels.SubCheckPass}}
		}
		checks = append(checks, c)
	}
	return &vendor.CompletedSession{
		SessionID:      sessionID,
		DocumentType:   evmodels.DocumentPassport,
		IssuingCountry: "GBR",
		MediaID:        "media-1",
		Checks:         checks,
	}, nil
}

func (v *stubVendor) GetMediaContent(context.Context, string, string) (*evmodels.DocumentFields, error) {
	return &evmodels.DocumentFields{
		GivenNames:     "Frederick Joseph",
		FamilyName:     "Flintstone",
		DateOfBirth:    "1960-02-02",
		DocumentNumber: "533401372",
		ExpirationDate: "2031-05-01",
		IssuingCountry: "GBR",
	}, nil
}

// complete marks the most recent vendor session finished and returns its id.
func (v *stubVendor) complete() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.sessions) == 0 {
		return "", false
	}
	id := v.sessions[len(v.sessions)-1]
	v.completed[id] = true
	return id, true
}

type published struct {
	Topic string
	Key   string
	Value any
}

// recordingPublisher stands in for the Kafka delivery queue.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []published
}

func (p *recordingPublisher) PublishJSON(_ context.Context, topic, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{Topic: topic, Key: key, Value: v})
	return nil
}

func (p *recordingPublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, m := range p.messages {
		if m.Topic == topic {
			n++
		}
	}
	return n
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *recordingAuditor) Emit(_ context.Context, e audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *recordingAuditor) count(name audit.EventName) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, e := range a.events {
		if e.EventName == name {
			n++
		}
	}
	return n
}
