package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/api"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/domain"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/match"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/service"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/storage/memory"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/validation"
)

// testServer creates a test server with in-memory storage
type testServer struct {
	handler      http.Handler
	store        *memory.Store
	bootstrapKey string
}

func newTestServer() *testServer {
	store := memory.New()
	bootstrapKey := "test-bootstrap-key"

	switcher := service.New(store, match.Matcher{}, zap.NewNop())
	handler := api.NewRouter(store, switcher, bootstrapKey, zap.NewNop())

	return &testServer{
		handler:      handler,
		store:        store,
		bootstrapKey: bootstrapKey,
	}
}

func (ts *testServer) request(method, path string, body any, apiKey string) *httptest.ResponseRecorder {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewReader(jsonBytes)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func exampleSetRequest() domain.CreateVariantSetRequest {
	return domain.CreateVariantSetRequest{
		Variants: []domain.Variant{
			{Name: "Live", Protocol: "https", Domain: "example.com"},
			{Name: "Test", Protocol: "https", Domain: "test.example.com"},
		},
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer()

	rr := ts.request("GET", "/health", nil, "")

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	var resp map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("Expected status ok, got %s", resp["status"])
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer()

	// Request without auth header
	rr := ts.request("GET", "/api/v1/collection", nil, "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}

	// Request with invalid auth header format
	req := httptest.NewRequest("GET", "/api/v1/collection", nil)
	req.Header.Set("Authorization", "Basic invalid")
	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}

	// Request with invalid API key
	rr = ts.request("GET", "/api/v1/collection", nil, "invalid-key")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}
}

func TestAPIKeyLifecycle(t *testing.T) {
	ts := newTestServer()

	// Create API key using bootstrap key
	createReq := domain.CreateAPIKeyRequest{Name: "Popup Key"}
	rr := ts.request("POST", "/api/v1/keys", createReq, ts.bootstrapKey)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var createResp domain.CreateAPIKeyResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &createResp)
	if createResp.Key == "" {
		t.Error("Expected key to be returned on creation")
	}

	// Use the new API key
	rr = ts.request("GET", "/api/v1/collection", nil, createResp.Key)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200 with new API key, got %d", rr.Code)
	}

	// List API keys
	rr = ts.request("GET", "/api/v1/keys", nil, createResp.Key)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	var keys []*domain.APIKey
	_ = json.Unmarshal(rr.Body.Bytes(), &keys)
	if len(keys) != 1 {
		t.Errorf("Expected 1 key, got %d", len(keys))
	}

	// Delete API key
	rr = ts.request("DELETE", "/api/v1/keys/"+createResp.ID, nil, createResp.Key)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rr.Code)
	}
}

func TestAddSetAndMatch(t *testing.T) {
	ts := newTestServer()

	rr := ts.request("POST", "/api/v1/collection/sets", exampleSetRequest(), ts.bootstrapKey)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created domain.VariantSet
	_ = json.Unmarshal(rr.Body.Bytes(), &created)
	if created.ID == "" {
		t.Error("Expected created set to have an ID")
	}

	// The tab on the live domain matches the set and is offered the other
	// variant.
	rr = ts.request("POST", "/api/v1/match", domain.MatchRequest{URL: "https://example.com/page?x=1"}, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var matched domain.MatchResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &matched)
	if matched.Matched == nil || matched.Matched.ID != created.ID {
		t.Errorf("Expected the created set to match, got %+v", matched.Matched)
	}
	if len(matched.Others) != 1 || matched.Others[0].Name != "Test" {
		t.Errorf("Expected one other variant named Test, got %+v", matched.Others)
	}

	// An unrelated tab matches nothing; 200 with matched null.
	rr = ts.request("POST", "/api/v1/match", domain.MatchRequest{URL: "https://unrelated.com"}, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &matched)
	if matched.Matched != nil {
		t.Errorf("Expected no match for unrelated.com, got %+v", matched.Matched)
	}
}

func TestAddSetValidation(t *testing.T) {
	ts := newTestServer()

	req := domain.CreateVariantSetRequest{
		Variants: []domain.Variant{
			{Name: "Live", Protocol: "https", Domain: "example.com"},
			{Name: "Bad", Protocol: "https", Domain: "http://example.com"},
		},
	}
	rr := ts.request("POST", "/api/v1/collection/sets", req, ts.bootstrapKey)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}

	var verr validation.ValidationError
	_ = json.Unmarshal(rr.Body.Bytes(), &verr)
	if verr.Field != "variants[2].domain" {
		t.Errorf("Expected the failing field to be reported by 1-based position, got %q", verr.Field)
	}

	// The failed add must not have persisted anything.
	rr = ts.request("GET", "/api/v1/collection", nil, ts.bootstrapKey)
	var c domain.Collection
	_ = json.Unmarshal(rr.Body.Bytes(), &c)
	if len(c.Sets) != 0 {
		t.Errorf("Expected an empty collection after a rejected add, got %d sets", len(c.Sets))
	}
}

func TestSwitchEndpoint(t *testing.T) {
	ts := newTestServer()

	req := domain.SwitchRequest{
		URL:      "https://example.com/orders/42?tab=items#top",
		Protocol: "https",
		Domain:   "test.example.com",
	}
	rr := ts.request("POST", "/api/v1/switch", req, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp domain.SwitchResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.URL != "https://test.example.com/orders/42?tab=items#top" {
		t.Errorf("Expected path, query and fragment to survive the switch, got %q", resp.URL)
	}

	// A bad target protocol is a validation error.
	req.Protocol = "ftp"
	rr = ts.request("POST", "/api/v1/switch", req, ts.bootstrapKey)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a bad protocol, got %d", rr.Code)
	}
}

func TestDeleteMatchedAndReset(t *testing.T) {
	ts := newTestServer()

	rr := ts.request("POST", "/api/v1/collection/sets", exampleSetRequest(), ts.bootstrapKey)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rr.Code)
	}
	other := domain.CreateVariantSetRequest{
		Variants: []domain.Variant{{Name: "Docs", Protocol: "https", Domain: "docs.example.com"}},
	}
	rr = ts.request("POST", "/api/v1/collection/sets", other, ts.bootstrapKey)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rr.Code)
	}

	// Deleting the matched set removes exactly that set.
	rr = ts.request("POST", "/api/v1/collection/sets/delete-matched",
		domain.DeleteMatchedRequest{URL: "https://test.example.com/x"}, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = ts.request("GET", "/api/v1/collection", nil, ts.bootstrapKey)
	var c domain.Collection
	_ = json.Unmarshal(rr.Body.Bytes(), &c)
	if len(c.Sets) != 1 || c.Sets[0].Variants[0].Name != "Docs" {
		t.Errorf("Expected only the Docs set to remain, got %+v", c.Sets)
	}

	// Deleting the matched set for a tab that matches nothing is a 404.
	rr = ts.request("POST", "/api/v1/collection/sets/delete-matched",
		domain.DeleteMatchedRequest{URL: "https://unrelated.com"}, ts.bootstrapKey)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}

	// Reset empties everything.
	rr = ts.request("POST", "/api/v1/collection/reset", nil, ts.bootstrapKey)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rr.Code)
	}
	rr = ts.request("GET", "/api/v1/collection", nil, ts.bootstrapKey)
	_ = json.Unmarshal(rr.Body.Bytes(), &c)
	if len(c.Sets) != 0 {
		t.Errorf("Expected an empty collection after reset, got %d sets", len(c.Sets))
	}
}

func TestProfilesAreIsolated(t *testing.T) {
	ts := newTestServer()

	req := httptest.NewRequest("POST", "/api/v1/collection/sets", bytes.NewReader(mustJSON(exampleSetRequest())))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.bootstrapKey)
	req.Header.Set("X-Profile-ID", "work")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rr.Code)
	}

	// The default profile sees nothing.
	rr2 := ts.request("GET", "/api/v1/collection", nil, ts.bootstrapKey)
	var c domain.Collection
	_ = json.Unmarshal(rr2.Body.Bytes(), &c)
	if len(c.Sets) != 0 {
		t.Errorf("Expected the default profile to be empty, got %d sets", len(c.Sets))
	}
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
