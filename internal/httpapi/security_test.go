package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smartquote/backend/internal/domain"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if got := res.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options nosniff, got %q", got)
	}
	if got := res.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := res.Header().Get("Referrer-Policy"); got == "" {
		t.Fatalf("expected Referrer-Policy to be set")
	}
}

func TestOptionsPreflightReturns204(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/quotes", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", res.Code)
	}
	if got := res.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected CORS origin header, got %q", got)
	}
}

func TestLoginRateLimitReturns429(t *testing.T) {
	api := newTestAPI(t)
	body, _ := json.Marshal(domain.LoginRequest{Username: "admin", Password: "wrong-pass"})

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "127.0.0.1:5000"
		res := httptest.NewRecorder()

		api.Handler().ServeHTTP(res, req)

		if i < 5 && res.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d expected 401 before limit, got %d", i+1, res.Code)
		}
		if i == 5 && res.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt 6 expected 429, got %d", res.Code)
		}
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	api := newTestAPI(t)
	veryLong := strings.Repeat("a", (1<<20)+1024)
	body := fmt.Sprintf(`{"username":"%s","password":"x"}`, veryLong)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too large body, got %d", res.Code)
	}
}

func TestMutatingRequestWithoutCSRFRejected(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "customer", "customer123")

	body, _ := json.Marshal(domain.QuoteCreateRequest{CustomerID: "cust-adi", AreaCodes: []string{"JKT"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without a CSRF token, got %d", res.Code)
	}
}

func TestApprovalPINRateLimitReturns429(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "admin", "admin123")
	csrf := fetchCSRFToken(t, api)

	body, _ := json.Marshal(domain.QuoteStatusUpdateRequest{
		Status:      "approved",
		ApprovalPIN: "000000",
	})

	for i := 0; i < 9; i++ {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/quotes/sq-nonexistent/status", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-CSRF-Token", csrf)
		req.RemoteAddr = "127.0.0.1:5001"
		res := httptest.NewRecorder()

		api.Handler().ServeHTTP(res, req)

		if i < 8 && res.Code != http.StatusForbidden {
			t.Fatalf("attempt %d expected 403 before pin limit, got %d", i+1, res.Code)
		}
		if i == 8 && res.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt 9 expected 429, got %d", res.Code)
		}
	}
}

func TestCSRFTokenValidatesWithinWindow(t *testing.T) {
	api := newTestAPI(t)

	token := api.generateCSRFToken()
	if !api.validateCSRFToken(token) {
		t.Fatalf("expected freshly issued token to validate")
	}
	if api.validateCSRFToken("") {
		t.Fatalf("expected empty token to fail")
	}
	if api.validateCSRFToken("deadbeef") {
		t.Fatalf("expected forged token to fail")
	}
}

func TestParsePositiveLimitCaps(t *testing.T) {
	if got := parsePositiveLimit("9999", 50, 200); got != 200 {
		t.Fatalf("expected capped limit 200, got %d", got)
	}
	if got := parsePositiveLimit("", 50, 200); got != 50 {
		t.Fatalf("expected fallback limit 50, got %d", got)
	}
	if got := parsePositiveLimit("invalid", 50, 200); got != 50 {
		t.Fatalf("expected fallback on invalid input, got %d", got)
	}
}

// fetchCSRFToken calls the CSRF token endpoint and returns the token string.
func fetchCSRFToken(t *testing.T, api *API) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/csrf-token", nil)
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("csrf-token endpoint returned status %d", res.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode csrf-token response failed: %v", err)
	}
	tok := payload["csrf_token"]
	if strings.TrimSpace(tok) == "" {
		t.Fatalf("expected non-empty csrf_token in response")
	}
	return tok
}
