package httpapi

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"smartquote/backend/internal/domain"
	"smartquote/backend/internal/ranking"
	"smartquote/backend/internal/service"
	"smartquote/backend/internal/store"
)

type API struct {
	service        *service.Service
	auth           *AuthManager
	allowedOrigin  string
	loginLimiter   *attemptLimiter
	pinLimiter     *attemptLimiter
	csrfSecret     []byte
	metricsHandler http.Handler
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string, metricsHandler http.Handler) *API {
	csrfSecret := make([]byte, 32)
	if _, err := rand.Read(csrfSecret); err != nil {
		// Fall back to a deterministic secret if crypto/rand fails (should not happen in practice).
		csrfSecret = []byte("csrf-fallback-secret-change-me!!")
	}
	return &API{
		service:        svc,
		auth:           auth,
		allowedOrigin:  allowedOrigin,
		loginLimiter:   newAttemptLimiter(5, time.Minute),
		pinLimiter:     newAttemptLimiter(8, time.Minute),
		csrfSecret:     csrfSecret,
		metricsHandler: metricsHandler,
	}
}

// csrfTokenForHour computes an HMAC-SHA256 token for the given hour bucket
// (expressed as Unix time truncated to the hour). The token is hex-encoded.
func (a *API) csrfTokenForHour(hourBucket int64) string {
	h := hmac.New(sha256.New, a.csrfSecret)
	fmt.Fprintf(h, "%d", hourBucket)
	return hex.EncodeToString(h.Sum(nil))
}

// generateCSRFToken returns a token valid for the current hour bucket.
func (a *API) generateCSRFToken() string {
	now := time.Now().UTC()
	bucket := now.Truncate(time.Hour).Unix()
	return a.csrfTokenForHour(bucket)
}

// validateCSRFToken checks whether the provided token matches the current or
// previous hour bucket, giving a 2-hour validity window.
func (a *API) validateCSRFToken(token string) bool {
	if token == "" {
		return false
	}
	now := time.Now().UTC()
	currentBucket := now.Truncate(time.Hour).Unix()
	prevBucket := currentBucket - 3600

	expected1 := a.csrfTokenForHour(currentBucket)
	expected2 := a.csrfTokenForHour(prevBucket)

	return hmac.Equal([]byte(token), []byte(expected1)) ||
		hmac.Equal([]byte(token), []byte(expected2))
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)
	mux.HandleFunc("/api/v1/auth/csrf-token", a.handleCSRFToken)
	if a.metricsHandler != nil {
		mux.Handle("/metrics", a.metricsHandler)
	}

	mux.HandleFunc("/api/v1/quotes", a.requireAuth(a.handleQuotes, "customer", "admin"))
	mux.HandleFunc("/api/v1/quotes/", a.requireAuth(a.handleQuoteActions, "customer", "admin"))
	mux.HandleFunc("/api/v1/results", a.requireAuth(a.handleResults, "customer", "admin"))
	mux.HandleFunc("/api/v1/results/reveal", a.requireAuth(a.handleReveal, "customer", "admin"))
	mux.HandleFunc("/api/v1/suppliers/", a.requireAuth(a.handleSupplierContact, "customer", "admin"))

	mux.HandleFunc("/api/v1/supplier/inbox", a.requireAuth(a.handleSupplierInbox, "supplier", "admin"))
	mux.HandleFunc("/api/v1/responses", a.requireAuth(a.handleResponses, "supplier", "admin"))

	mux.HandleFunc("/api/v1/tokens/balance", a.requireAuth(a.handleTokenBalance))
	mux.HandleFunc("/api/v1/tokens/add", a.requireAuth(a.handleTokenAdd, "admin"))
	mux.HandleFunc("/api/v1/tokens/consume", a.requireAuth(a.handleTokenConsume, "customer", "admin"))

	mux.HandleFunc("/api/v1/master/areas", a.requireAuth(a.handleAreas))
	mux.HandleFunc("/api/v1/master/categories", a.requireAuth(a.handleCategories))
	mux.HandleFunc("/api/v1/master/subcategories", a.requireAuth(a.handleSubcategories))
	mux.HandleFunc("/api/v1/master/units", a.requireAuth(a.handleUnits))
	mux.HandleFunc("/api/v1/master/suppliers", a.requireAuth(a.handleSuppliers))
	mux.HandleFunc("/api/v1/master/customers", a.requireAuth(a.handleCustomers))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleCSRFToken returns a stateless CSRF token valid for the current hour bucket.
// Clients must include this token in the X-CSRF-Token header for all mutating requests.
func (a *API) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": a.generateCSRFToken(),
	})
}

// csrfExemptPaths lists paths that are exempt from CSRF validation. Login is
// excluded because it is called without a prior CSRF token fetch.
var csrfExemptPaths = []string{
	"/api/v1/auth/login",
}

// checkCSRF enforces CSRF token validation for state-changing methods (POST/PUT/PATCH).
// Returns false and writes an error response if validation fails.
func (a *API) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	method := r.Method
	if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch {
		return true
	}
	for _, exempt := range csrfExemptPaths {
		if r.URL.Path == exempt {
			return true
		}
	}
	token := strings.TrimSpace(r.Header.Get("X-CSRF-Token"))
	if !a.validateCSRFToken(token) {
		writeError(w, http.StatusForbidden, errors.New("missing or invalid CSRF token"))
		return false
	}
	return true
}

func (a *API) handleQuotes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := parsePositiveLimit(r.URL.Query().Get("limit"), 50, 200)
		quotes, err := a.service.ListQuotes(r.Context(), r.URL.Query().Get("customer_id"), r.URL.Query().Get("status"), limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"quotes": quotes})
	case http.MethodPost:
		var req domain.QuoteCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		quote, err := a.service.CreateQuote(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"quote": quote})
	default:
		writeMethodNotAllowed(w)
	}
}

// handleQuoteActions routes /api/v1/quotes/{id}, /api/v1/quotes/{id}/items
// and /api/v1/quotes/{id}/status.
func (a *API) handleQuoteActions(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/quotes/"), "/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, errors.New("quote id required"))
		return
	}

	quoteID := rest
	action := ""
	if idx := strings.Index(rest, "/"); idx > 0 {
		quoteID = rest[:idx]
		action = rest[idx+1:]
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		quote, err := a.service.GetQuote(r.Context(), quoteID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"quote": quote})
	case "items":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req domain.QuoteItemCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		item, err := a.service.AddQuoteItem(r.Context(), quoteID, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"item": item})
	case "status":
		a.handleQuoteStatus(w, r, quoteID)
	default:
		writeError(w, http.StatusBadRequest, errors.New("invalid quote action path"))
	}
}

// handleQuoteStatus approves or rejects a quote. Admin only, and the approval
// PIN must match so a leaked admin token alone cannot release distributions.
func (a *API) handleQuoteStatus(w http.ResponseWriter, r *http.Request, quoteID string) {
	if r.Method != http.MethodPatch {
		writeMethodNotAllowed(w)
		return
	}

	actor, ok := service.ActorFromContext(r.Context())
	if !ok || actor.Role != "admin" {
		writeError(w, http.StatusForbidden, errors.New("forbidden role"))
		return
	}

	var req domain.QuoteStatusUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !a.pinLimiter.Allow("pin:status:" + clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many approval pin attempts"))
		return
	}
	if !a.auth.ValidateApprovalPIN(req.ApprovalPIN) {
		writeError(w, http.StatusForbidden, errors.New("invalid approval pin"))
		return
	}

	resp, err := a.service.UpdateQuoteStatus(r.Context(), quoteID, req.Status, req.UpdatedBy)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	query := r.URL.Query()
	mode, ok := ranking.ParseMode(query.Get("mode"))
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("invalid mode"))
		return
	}
	policy, ok := ranking.ParsePolicy(query.Get("policy"))
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("invalid policy"))
		return
	}
	topN := 3
	if raw := strings.TrimSpace(query.Get("top")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid top"))
			return
		}
		topN = parsed
	}

	resp, err := a.service.Results(r.Context(), query.Get("customer_id"), query.Get("quote_id"), mode, policy, topN)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleReveal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.RevealRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.RevealContact(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSupplierContact serves /api/v1/suppliers/{id}/contact. The quote and
// product group the reveal was bought for come in as query parameters.
func (a *API) handleSupplierContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	prefix := "/api/v1/suppliers/"
	if !strings.HasPrefix(r.URL.Path, prefix) || !strings.HasSuffix(r.URL.Path, "/contact") {
		writeError(w, http.StatusBadRequest, errors.New("invalid supplier action path"))
		return
	}
	supplierID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, prefix), "/contact")
	supplierID = strings.TrimSpace(strings.Trim(supplierID, "/"))
	if supplierID == "" {
		writeError(w, http.StatusBadRequest, errors.New("supplier id required"))
		return
	}

	resp, err := a.service.SupplierContact(r.Context(), supplierID, r.URL.Query().Get("quote_id"), r.URL.Query().Get("group_key"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleSupplierInbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	entries, err := a.service.SupplierInbox(r.Context(), r.URL.Query().Get("supplier_id"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inbox": entries})
}

func (a *API) handleResponses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.ResponseCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.SubmitResponse(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"response": resp})
}

func (a *API) handleTokenBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	resp, err := a.service.TokenBalance(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleTokenAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.TokenMutationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.AddTokens(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleTokenConsume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.TokenMutationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.ConsumeTokens(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleAreas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	areas, err := a.service.ListAreas(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"areas": areas})
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	categories, err := a.service.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (a *API) handleSubcategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	subcategories, err := a.service.ListSubcategories(r.Context(), r.URL.Query().Get("category_code"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subcategories": subcategories})
}

func (a *API) handleUnits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	units, err := a.service.ListUnits(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"units": units})
}

func (a *API) handleSuppliers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	suppliers, err := a.service.ListSuppliers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suppliers": suppliers})
}

func (a *API) handleCustomers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	customers, err := a.service.ListCustomers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Enforce CSRF protection for all state-changing requests.
		if !a.checkCSRF(w, r) {
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// writeServiceError maps the store sentinel errors onto HTTP statuses.
// Insufficient tokens gets 402 so clients can prompt a top-up instead of a
// generic retry.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, store.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, store.ErrInsufficientTokens):
		status = http.StatusPaymentRequired
	case errors.Is(err, store.ErrInconsistentState):
		status = http.StatusConflict
	}
	writeError(w, status, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	// For 5xx responses, return a generic message to avoid leaking internal
	// implementation details (stack traces, SQL errors, file paths, etc.).
	// 4xx responses are user-facing so we return the original error message.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
