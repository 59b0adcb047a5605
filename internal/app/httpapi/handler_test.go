package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jarvisfi/jarvisfi/internal/app/services/admin"
	"github.com/jarvisfi/jarvisfi/internal/app/services/auth"
	"github.com/jarvisfi/jarvisfi/internal/app/services/chat"
	"github.com/jarvisfi/jarvisfi/internal/app/services/community"
	"github.com/jarvisfi/jarvisfi/internal/app/services/farmer"
	financesvc "github.com/jarvisfi/jarvisfi/internal/app/services/finance"
	"github.com/jarvisfi/jarvisfi/internal/app/services/translate"
	"github.com/jarvisfi/jarvisfi/internal/app/services/voice"
	"github.com/jarvisfi/jarvisfi/internal/app/storage/memory"
	"github.com/jarvisfi/jarvisfi/internal/middleware"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

func quietLogger() *logger.Logger {
	log := logger.NewDefault("httpapi-test")
	log.SetOutput(io.Discard)
	return log
}

// newTestAPI assembles the handler over in-memory storage with the auth
// middleware in front, mirroring the production chain.
func newTestAPI(t *testing.T) http.Handler {
	t.Helper()

	store := memory.New()
	log := quietLogger()

	authSvc := auth.New(store, store, auth.Config{
		JWTSecret:  "test-secret-0123456789abcdef",
		AdminEmail: "admin@jarvisfi.dev",
	}, log)

	services := Services{
		Auth:      authSvc,
		Chat:      chat.New(store, nil, log),
		Finance:   financesvc.New(store, log),
		Translate: translate.New(nil, nil, log),
		Voice:     voice.New(nil, log),
		Farmer:    farmer.New(nil, nil, log),
		Community: community.New(store, log),
		Admin:     admin.New(store, store, store, store, store, log),
		Alerts:    store,
	}

	handler := NewHandler(
		AppInfo{Name: "jarvisfi", Version: "test"},
		Features{Farmer: true, Community: true},
		Backends{Database: "memory", Cache: "memory", Advisor: "fallback", Translation: "catalog", Voice: "disabled"},
		services,
		NewAuditLog(16),
		log,
	)

	authMW := middleware.NewAuth(authSvc, SkipAuthPaths())
	return handler.Audit().Middleware(authMW.Handler(handler.Router()))
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func registerAndLogin(t *testing.T, h http.Handler, email string) string {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":    email,
		"password": "s3cretpass",
		"name":     "Test User",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "s3cretpass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, rec, &resp)
	if resp.AccessToken == "" {
		t.Fatalf("login returned empty token")
	}
	return resp.AccessToken
}

func TestHealthEndpointOpen(t *testing.T) {
	h := newTestAPI(t)

	rec := doJSON(t, h, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Status   string          `json:"status"`
		Features map[string]bool `json:"features"`
	}
	decodeBody(t, rec, &resp)
	if resp.Status != "ok" {
		t.Fatalf("expected ok status, got %q", resp.Status)
	}
	if resp.Features["voice"] {
		t.Fatalf("voice should report unavailable without a processor")
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	h := newTestAPI(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/chat/conversations", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var resp struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Error || resp.Message == "" {
		t.Fatalf("expected error body, got %s", rec.Body.String())
	}
}

func TestChatRoundTripOverAPI(t *testing.T) {
	h := newTestAPI(t)
	token := registerAndLogin(t, h, "chat@example.com")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/chat/conversations", token, map[string]string{
		"title": "Savings questions",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create conversation: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var conv struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &conv)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/chat/conversations/"+conv.ID+"/messages", token, map[string]string{
		"content": "How does a SIP work?",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var reply struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	decodeBody(t, rec, &reply)
	if reply.Role != "assistant" || reply.Content == "" {
		t.Fatalf("expected assistant reply, got %+v", reply)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/chat/conversations/"+conv.ID+"/messages", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rec.Code)
	}
	var msgs []struct {
		Role string `json:"role"`
	}
	decodeBody(t, rec, &msgs)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages in history, got %d", len(msgs))
	}
}

func TestCalculatorEndpoint(t *testing.T) {
	h := newTestAPI(t)
	token := registerAndLogin(t, h, "calc@example.com")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/financial/calculators/emi", token, map[string]interface{}{
		"principal":   1000000,
		"annual_rate": 8.5,
		"term_months": 240,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Monthly float64 `json:"monthly_emi"`
	}
	decodeBody(t, rec, &resp)
	if resp.Monthly < 8600 || resp.Monthly > 8700 {
		t.Fatalf("unexpected EMI %v", resp.Monthly)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/financial/calculators/nonsense", token, map[string]interface{}{})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown calculator, got %d", rec.Code)
	}

	// Unknown fields are rejected.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/financial/calculators/emi", token, map[string]interface{}{
		"principal": 1000, "bogus": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestBudgetAndGoalFlow(t *testing.T) {
	h := newTestAPI(t)
	token := registerAndLogin(t, h, "budget@example.com")

	month := time.Now().UTC().Format("2006-01")
	rec := doJSON(t, h, http.MethodPost, "/api/v1/financial/budgets", token, map[string]interface{}{
		"month":          month,
		"monthly_income": 60000,
		"limits":         map[string]float64{"food": 9000},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var budget struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &budget)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/financial/budgets/"+budget.ID+"/spend", token, map[string]interface{}{
		"category": "food",
		"amount":   2500,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("spend: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	target := time.Now().UTC().AddDate(1, 0, 0)
	rec = doJSON(t, h, http.MethodPost, "/api/v1/financial/goals", token, map[string]interface{}{
		"name":          "Emergency fund",
		"target_amount": 120000,
		"target_date":   target,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/financial/goals", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list goals: expected 200, got %d", rec.Code)
	}
	var goals []struct {
		Name string `json:"name"`
	}
	decodeBody(t, rec, &goals)
	if len(goals) != 1 || goals[0].Name != "Emergency fund" {
		t.Fatalf("unexpected goals %+v", goals)
	}
}

func TestVoiceUnavailableWithoutProcessor(t *testing.T) {
	h := newTestAPI(t)
	token := registerAndLogin(t, h, "voice@example.com")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/voice/synthesize", token, map[string]string{
		"text": "hello", "language": "en",
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestFarmerSchemesAndEligibility(t *testing.T) {
	h := newTestAPI(t)
	token := registerAndLogin(t, h, "farmer@example.com")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/farmer/schemes", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("schemes: expected 200, got %d", rec.Code)
	}
	var schemes []struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &schemes)
	if len(schemes) == 0 {
		t.Fatalf("expected scheme catalog")
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/farmer/loan-eligibility", token, map[string]interface{}{
		"land_acres":    4,
		"annual_income": 300000,
		"amount":        150000,
		"term_months":   36,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("eligibility: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCommunityFlow(t *testing.T) {
	h := newTestAPI(t)
	token := registerAndLogin(t, h, "forum@example.com")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/community/posts", token, map[string]string{
		"topic": "Savings",
		"title": "Best emergency fund size?",
		"body":  "How many months of expenses should I keep aside?",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var post struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &post)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/community/posts/"+post.ID+"/replies", token, map[string]string{
		"body": "Six months is the usual guidance.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("reply: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/community/posts/"+post.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get post: expected 200, got %d", rec.Code)
	}
	var detail struct {
		Replies []json.RawMessage `json:"replies"`
	}
	decodeBody(t, rec, &detail)
	if len(detail.Replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(detail.Replies))
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	h := newTestAPI(t)
	userToken := registerAndLogin(t, h, "plain@example.com")
	adminToken := registerAndLogin(t, h, "admin@jarvisfi.dev")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/admin/stats", userToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for regular user, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/admin/stats", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
	var ov struct {
		Users int `json:"users"`
	}
	decodeBody(t, rec, &ov)
	if ov.Users < 2 {
		t.Fatalf("expected at least 2 users in overview, got %d", ov.Users)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/admin/stats", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", rec.Code)
	}
}

func TestAuditLogRecordsRequests(t *testing.T) {
	h := newTestAPI(t)
	token := registerAndLogin(t, h, "audit@example.com")
	adminToken := registerAndLogin(t, h, "admin@jarvisfi.dev")

	doJSON(t, h, http.MethodGet, "/api/v1/financial/budgets", token, nil)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/admin/audit", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit: expected 200, got %d", rec.Code)
	}
	var entries []AuditEntry
	decodeBody(t, rec, &entries)

	found := false
	for _, e := range entries {
		if e.Path == "/api/v1/financial/budgets" && e.Method == http.MethodGet {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected budgets request in audit log, got %+v", entries)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	h := newTestAPI(t)
	token := registerAndLogin(t, h, "bye@example.com")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestAuditLogRing(t *testing.T) {
	log := NewAuditLog(2)
	for i := 0; i < 3; i++ {
		log.Record(AuditEntry{Path: fmt.Sprintf("/p%d", i)})
	}

	entries := log.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Path != "/p1" || entries[1].Path != "/p2" {
		t.Fatalf("expected oldest-first ring contents, got %+v", entries)
	}
}
