package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"preventivi/internal/auth"
	"preventivi/internal/directory"
	"preventivi/internal/directory/memory"
	"preventivi/internal/services"
	"preventivi/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	clients := memory.New([]directory.Client{
		{Name: "Acme Srl", Email: "ufficio@acme.example", Phone: "055 123456"},
	})

	srv := NewServer(":0",
		services.NewBudgetService(repo, nil),
		services.NewReportService(repo),
		clients,
		repo,
		auth.NewManager("segretissimo-di-test", time.Hour),
	)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
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
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, srv *Server) string {
	t.Helper()

	creds := map[string]string{
		"username":  "mario",
		"password":  "passwordsegreta",
		"full_name": "Mario Rossi",
	}
	if rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", creds); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", creds)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token")
	}
	return resp.Token
}

func budgetPayload() map[string]any {
	return map[string]any{
		"client_name":      "Acme Srl",
		"client_email":     "ufficio@acme.example",
		"design_fee":       "50.00",
		"publication_date": "2026-03-14T00:00:00Z",
		"lines": []map[string]any{
			{
				"vendor_name":       "Gazzetta",
				"unit_rate":         "10.00",
				"format_multiplier": "2.0",
				"include_in_total":  true,
			},
		},
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/budgets", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("missing WWW-Authenticate header")
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/budgets", "token-non-valido", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status with bad token = %d, want 401", rec.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "mario",
		"password": "sbagliata",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login with wrong password = %d, want 401", rec.Code)
	}
}

func TestBudgetLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/budgets", token, budgetPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID         int64  `json:"id"`
		TotalValue string `json:"total_value"`
		Sequence   int64  `json:"sequence_number"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created budget: %v", err)
	}
	if created.TotalValue != "70.00" {
		t.Fatalf("total = %s, want 70.00", created.TotalValue)
	}
	if created.Sequence != 1 {
		t.Fatalf("sequence = %d, want 1", created.Sequence)
	}

	rec = doJSON(t, srv, http.MethodPatch, "/api/budgets/1/approve", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"approved":true`) {
		t.Fatalf("approve response missing status: %s", rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/budgets/1/invoice", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("invoice status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "FAT-000001") {
		t.Fatalf("invoice response missing number: %s", rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/budgets/1", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/budgets/1", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", rec.Code)
	}
}

func TestInvoiceRequiresApproval(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	if rec := doJSON(t, srv, http.MethodPost, "/api/budgets", token, budgetPayload()); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/budgets/1/invoice", token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("invoice on pending budget = %d, want 409", rec.Code)
	}
}

func TestCreateBudgetValidation(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	payload := budgetPayload()
	payload["client_name"] = "   "
	rec := doJSON(t, srv, http.MethodPost, "/api/budgets", token, payload)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("create with empty name = %d, want 422", rec.Code)
	}

	// Failures without a dedicated sentinel are still bad input, not a
	// server fault.
	payload = budgetPayload()
	payload["design_fee"] = "-50.00"
	rec = doJSON(t, srv, http.MethodPost, "/api/budgets", token, payload)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("create with negative fee = %d, want 422", rec.Code)
	}
}

func TestExportCSVDownload(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	if rec := doJSON(t, srv, http.MethodPost, "/api/budgets", token, budgetPayload()); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/reports/export?mode=clients&format=csv", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %s", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\xef\xbb\xbf")) {
		t.Fatalf("csv missing BOM")
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/reports/export?mode=vendors&format=xlsx", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("xlsx export status = %d", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatalf("xlsx export is not a zip archive")
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/reports/export?mode=bogus", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus mode status = %d, want 400", rec.Code)
	}
}

func TestClientSearch(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/clients?q=acme", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Acme Srl") {
		t.Fatalf("search response missing client: %s", rec.Body.String())
	}
}
