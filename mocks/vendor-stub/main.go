package main

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultPort          = "8082"
	defaultLatencyMs     = "50"
	defaultCompleteAfter = "0"
)

// Magic family names steer the stub, so e2e journeys can pick an outcome
// through the shared claims they send.
const (
	familyUnavailable = "Unavailable" // session create answers 503
	familyRejected    = "Rejected"    // authenticity check recommends REJECT
	familyPending     = "Pending"     // visual review never finishes
)

type session struct {
	ID             string
	UserTrackingID string
	FullName       string
	DateOfBirth    string
	CountryCode    string
	DocumentType   string
	Callback       string
	Completed      bool
	Instructions   json.RawMessage
}

type createRequest struct {
	UserTrackingID string `json:"user_tracking_id"`
	Notifications  struct {
		Endpoint string `json:"endpoint"`
	} `json:"notifications"`
	RequiredDocuments []struct {
		Filter struct {
			Documents []struct {
				CountryCodes  []string `json:"country_codes"`
				DocumentTypes []string `json:"document_types"`
			} `json:"documents"`
		} `json:"filter"`
	} `json:"required_documents"`
	Resources struct {
		ApplicantProfile struct {
			FullName    string `json:"full_name"`
			DateOfBirth string `json:"date_of_birth"`
		} `json:"applicant_profile"`
	} `json:"resources"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

var (
	sdkID         = getEnv("SDK_ID", "")
	latencyMs     = getEnvInt("LATENCY_MS", defaultLatencyMs)
	completeAfter = time.Duration(getEnvInt("COMPLETE_AFTER_SECONDS", defaultCompleteAfter)) * time.Second

	mu       sync.Mutex
	sessions = map[string]*session{}
)

func main() {
	port := getEnv("PORT", defaultPort)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("POST /sessions", handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", handleGetSession)
	mux.HandleFunc("GET /sessions/{id}/configuration", handleConfiguration)
	mux.HandleFunc("PUT /sessions/{id}/instructions", handlePutInstructions)
	mux.HandleFunc("GET /sessions/{id}/instructions/pdf", handleInstructionsPDF)
	mux.HandleFunc("GET /sessions/{id}/media/{media}/content", handleMediaContent)
	// Not part of the vendor API: finishes the branch visit on demand.
	mux.HandleFunc("POST /admin/sessions/{id}/complete", handleComplete)

	log.Printf("Mock document vendor starting on port %s", port)
	log.Printf("Simulated latency: %dms", latencyMs)
	if completeAfter > 0 {
		log.Printf("Sessions complete %s after instructions are posted", completeAfter)
	}

	if err := http.ListenAndServe(":"+port, withLatency(withSDKCheck(mux))); err != nil {
		log.Fatal(err)
	}
}

func withLatency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if latencyMs > 0 && r.URL.Path != "/health" {
			time.Sleep(time.Duration(latencyMs) * time.Millisecond)
		}
		next.ServeHTTP(w, r)
	})
}

func withSDKCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sdkID != "" && strings.HasPrefix(r.URL.Path, "/sessions") && r.URL.Query().Get("sdkId") != sdkID {
			writeError(w, http.StatusUnauthorized, "unauthorized", "unknown sdk id")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "vendor-stub",
	})
}

func handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid session payload")
		return
	}
	if strings.HasSuffix(req.Resources.ApplicantProfile.FullName, familyUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "simulated outage")
		return
	}

	s := &session{
		ID:             newID(),
		UserTrackingID: req.UserTrackingID,
		FullName:       req.Resources.ApplicantProfile.FullName,
		DateOfBirth:    req.Resources.ApplicantProfile.DateOfBirth,
		Callback:       req.Notifications.Endpoint,
		CountryCode:    "GBR",
		DocumentType:   "PASSPORT",
	}
	if len(req.RequiredDocuments) > 0 && len(req.RequiredDocuments[0].Filter.Documents) > 0 {
		doc := req.RequiredDocuments[0].Filter.Documents[0]
		if len(doc.CountryCodes) > 0 {
			s.CountryCode = doc.CountryCodes[0]
		}
		if len(doc.DocumentTypes) > 0 {
			s.DocumentType = doc.DocumentTypes[0]
		}
	}

	mu.Lock()
	sessions[s.ID] = s
	mu.Unlock()

	log.Printf("session %s opened for %s (%s %s)", s.ID, s.UserTrackingID, s.CountryCode, s.DocumentType)
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id":               s.ID,
		"client_session_token":     newID(),
		"client_session_token_ttl": 864000,
	})
}

func handleConfiguration(w http.ResponseWriter, r *http.Request) {
	s, ok := lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":               s.ID,
		"client_session_token_ttl": 864000,
		"capture": map[string]any{
			"required_resources": []any{map[string]any{
				"type":  "ID_DOCUMENT",
				"id":    "requirement-" + s.ID[:8],
				"state": "REQUIRED",
				"supported_countries": []any{map[string]any{
					"code":                s.CountryCode,
					"supported_documents": []any{map[string]string{"type": s.DocumentType}},
				}},
			}},
		},
	})
}

func handlePutInstructions(w http.ResponseWriter, r *http.Request) {
	s, ok := lookup(w, r)
	if !ok {
		return
	}
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid instructions")
		return
	}
	mu.Lock()
	s.Instructions = raw
	mu.Unlock()

	if completeAfter > 0 {
		time.AfterFunc(completeAfter, func() { complete(s.ID) })
	}
	w.WriteHeader(http.StatusOK)
}

func handleInstructionsPDF(w http.ResponseWriter, r *http.Request) {
	s, ok := lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%%PDF-1.4\n%% branch visit instructions for session %s\n%%%%EOF\n", s.ID)
}

func handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := lookup(w, r)
	if !ok {
		return
	}
	mu.Lock()
	completed := s.Completed
	mu.Unlock()

	if !completed {
		writeJSON(w, http.StatusOK, map[string]any{
			"session_id":       s.ID,
			"state":            "ONGOING",
			"user_tracking_id": s.UserTrackingID,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":       s.ID,
		"state":            "COMPLETED",
		"user_tracking_id": s.UserTrackingID,
		"resources": map[string]any{
			"id_documents": []any{map[string]any{
				"id":              "doc-" + s.ID[:8],
				"document_type":   s.DocumentType,
				"issuing_country": s.CountryCode,
				"tasks": []any{map[string]string{
					"type":  "ID_DOCUMENT_TEXT_DATA_EXTRACTION",
					"state": "DONE",
				}},
				"document_fields": map[string]any{
					"media": map[string]string{"id": "media-" + s.ID[:8]},
				},
			}},
		},
		"checks": checksFor(s),
	})
}

func checksFor(s *session) []any {
	authenticity := "APPROVE"
	if strings.HasSuffix(s.FullName, familyRejected) {
		authenticity = "REJECT"
	}
	visualState := "DONE"
	if strings.HasSuffix(s.FullName, familyPending) {
		visualState = "PENDING"
	}
	check := func(kind, state, recommendation string) map[string]any {
		return map[string]any{
			"type":  kind,
			"state": state,
			"report": map[string]any{
				"recommendation": map[string]string{"value": recommendation},
				"breakdown":      []any{},
			},
		}
	}
	return []any{
		check("ID_DOCUMENT_AUTHENTICITY", "DONE", authenticity),
		check("ID_DOCUMENT_FACE_MATCH", "DONE", "APPROVE"),
		check("IBV_VISUAL_REVIEW_CHECK", visualState, "APPROVE"),
		check("DOCUMENT_SCHEME_VALIDITY_CHECK", "DONE", "APPROVE"),
		check("PROFILE_DOCUMENT_MATCH", "DONE", "APPROVE"),
	}
}

func handleMediaContent(w http.ResponseWriter, r *http.Request) {
	s, ok := lookup(w, r)
	if !ok {
		return
	}
	given, family := splitName(s.FullName)
	writeJSON(w, http.StatusOK, map[string]any{
		"full_name":       s.FullName,
		"given_names":     given,
		"family_name":     family,
		"date_of_birth":   s.DateOfBirth,
		"document_type":   s.DocumentType,
		"document_number": "533401372",
		"expiration_date": time.Now().AddDate(5, 0, 0).Format("2006-01-02"),
		"issuing_country": s.CountryCode,
	})
}

func handleComplete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !complete(id) {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id, "state": "COMPLETED"})
}

// complete marks the session finished and notifies the callback endpoint.
func complete(id string) bool {
	mu.Lock()
	s, ok := sessions[id]
	if ok {
		s.Completed = true
	}
	mu.Unlock()
	if !ok {
		return false
	}

	if s.Callback == "" {
		return true
	}
	body, _ := json.Marshal(map[string]string{"session_id": id, "topic": "session_completion"})
	resp, err := http.Post(s.Callback, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("callback for %s failed: %v", id, err)
		return true
	}
	resp.Body.Close()
	log.Printf("callback for %s answered %d", id, resp.StatusCode)
	return true
}

func lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	mu.Lock()
	s, ok := sessions[r.PathValue("id")]
	mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
	}
	return s, ok
}

func splitName(full string) (given, family string) {
	i := strings.LastIndex(full, " ")
	if i < 0 {
		return "", full
	}
	return full[:i], full[i+1:]
}

func newID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	h := hex.EncodeToString(b)
	return h[:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message, Code: status})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key, defaultValue string) int {
	value := getEnv(key, defaultValue)
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, value, defaultValue)
		n, _ = strconv.Atoi(defaultValue)
	}
	return n
}
