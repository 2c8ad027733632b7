package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mergington/announcements/internal/services"
	"github.com/mergington/announcements/internal/store"
	"github.com/mergington/announcements/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type testAPI struct {
	router *chi.Mux
	repo   *store.MemoryAnnouncementRepository
}

func newTestAPI(t *testing.T, tokens *services.TokenIssuer) *testAPI {
	t.Helper()
	hash, err := services.HashPassword("art123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	teachers := store.NewMemoryTeacherRepository(types.Teacher{
		Username:     "mrodriguez",
		DisplayName:  "Ms. Rodriguez",
		Role:         "teacher",
		PasswordHash: hash,
	})
	repo := store.NewMemoryAnnouncementRepository()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	announcements := services.NewAnnouncementService(repo, services.WithClock(func() time.Time { return now }))

	authHandler := NewAuthHandler(services.NewAuthenticator(teachers, nil, tokens), nil)
	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/announcements", func(r chi.Router) {
		AnnouncementRouter(r, NewAnnouncementHandler(announcements, nil), authHandler.RequireAuth)
	})
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authHandler)
	})
	return &testAPI{router: router, repo: repo}
}

func bearer(identity, secret string) string {
	return "Bearer " + base64.StdEncoding.EncodeToString([]byte(identity+":"+secret))
}

func (api *testAPI) do(t *testing.T, method, path, auth, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	return rec
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp.Detail
}

func (api *testAPI) seed(t *testing.T, title, expiration, createdAt string) primitive.ObjectID {
	t.Helper()
	id, err := api.repo.Insert(context.Background(), types.Announcement{
		Title:          title,
		Message:        "message",
		ExpirationDate: expiration,
		CreatedBy:      "mrodriguez",
		CreatedAt:      createdAt,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return id
}

func TestListActiveIsPublic(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed(t, "expired", "2024-02-01T00:00:00", "2024-01-01T00:00:00.000000")
	api.seed(t, "older", "2024-05-01T00:00:00", "2024-01-02T00:00:00.000000")
	api.seed(t, "newer", "2024-05-01T00:00:00", "2024-01-03T00:00:00.000000")

	rec := api.do(t, http.MethodGet, "/announcements", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var items []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 || items[0]["title"] != "newer" || items[1]["title"] != "older" {
		t.Fatalf("unexpected items %v", items)
	}
	if id, ok := items[0]["_id"].(string); !ok || len(id) != 24 {
		t.Fatalf("_id should be a 24 character hex string, got %v", items[0]["_id"])
	}
	if _, ok := items[0]["start_date"]; !ok {
		t.Fatalf("start_date key should be present even when null")
	}
}

func TestListActiveEmptyIsArray(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/announcements", "", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("got %d %q, want 200 []", rec.Code, rec.Body.String())
	}
}

func TestListAllRequiresAuth(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed(t, "expired", "2024-02-01T00:00:00", "2024-01-01T00:00:00.000000")

	rec := api.do(t, http.MethodGet, "/announcements/all", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := decodeDetail(t, rec); got != "Not authenticated" {
		t.Fatalf("detail = %q", got)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("missing WWW-Authenticate header")
	}

	rec = api.do(t, http.MethodGet, "/announcements/all", bearer("mrodriguez", "art123"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var items []types.Announcement
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Title != "expired" {
		t.Fatalf("expired announcement should be in list-all, got %+v", items)
	}
}

func TestAuthFailures(t *testing.T) {
	api := newTestAPI(t, nil)

	tests := []struct {
		name   string
		auth   string
		status int
		detail string
	}{
		{name: "basic scheme", auth: "Basic abc", status: http.StatusUnauthorized, detail: "Not authenticated"},
		{name: "bad base64", auth: "Bearer !!!", status: http.StatusUnauthorized, detail: "Invalid token encoding"},
		{name: "no colon", auth: "Bearer " + base64.StdEncoding.EncodeToString([]byte("mrodriguez")), status: http.StatusUnauthorized, detail: "Token format invalid"},
		{name: "wrong secret", auth: bearer("mrodriguez", "nope"), status: http.StatusUnauthorized, detail: "Invalid credentials"},
		{name: "unknown identity", auth: bearer("ghost", "art123"), status: http.StatusUnauthorized, detail: "Invalid credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/announcements", tt.auth, `{"title":"t","message":"m","expiration_date":"2024-04-01"}`)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decodeDetail(t, rec); got != tt.detail {
				t.Fatalf("detail = %q, want %q", got, tt.detail)
			}
		})
	}
}

func TestCreateUpdateDeleteFlow(t *testing.T) {
	api := newTestAPI(t, nil)
	auth := bearer("mrodriguez", "art123")

	rec := api.do(t, http.MethodPost, "/announcements", auth,
		`{"title":"Art show","message":"Gallery opens Friday","start_date":"2024-03-02T08:00:00","expiration_date":"2024-03-10T17:00:00Z"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created types.Announcement
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.CreatedBy != "mrodriguez" || created.CreatedAt != "2024-03-01T12:00:00.000000" {
		t.Fatalf("unexpected created record %+v", created)
	}

	rec = api.do(t, http.MethodPut, "/announcements/"+created.ID.Hex(), auth, `{"title":"Art show (moved)"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated types.Announcement
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Title != "Art show (moved)" || updated.Message != "Gallery opens Friday" {
		t.Fatalf("unexpected updated record %+v", updated)
	}

	rec = api.do(t, http.MethodDelete, "/announcements/"+created.ID.Hex(), auth, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body %s", rec.Code, rec.Body.String())
	}
	var msg MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode delete: %v", err)
	}
	if msg.Message != "Announcement deleted successfully" {
		t.Fatalf("message = %q", msg.Message)
	}

	rec = api.do(t, http.MethodDelete, "/announcements/"+created.ID.Hex(), auth, "")
	if rec.Code != http.StatusNotFound || decodeDetail(t, rec) != "Announcement not found" {
		t.Fatalf("second delete = %d %s", rec.Code, rec.Body.String())
	}
}

func TestWriteErrors(t *testing.T) {
	api := newTestAPI(t, nil)
	auth := bearer("mrodriguez", "art123")
	id := api.seed(t, "t", "2024-05-01", "2024-01-01T00:00:00.000000").Hex()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		detail string
	}{
		{name: "create bad json", method: http.MethodPost, path: "/announcements", body: `{"title":`, status: http.StatusBadRequest, detail: "Invalid request body"},
		{name: "create bad expiration", method: http.MethodPost, path: "/announcements", body: `{"title":"t","message":"m","expiration_date":"whenever"}`, status: http.StatusBadRequest, detail: "Invalid expiration_date format"},
		{name: "create bad start", method: http.MethodPost, path: "/announcements", body: `{"title":"t","message":"m","start_date":"2024-02-30","expiration_date":"2024-04-01"}`, status: http.StatusBadRequest, detail: "Invalid start_date format"},
		{name: "update bad id", method: http.MethodPut, path: "/announcements/nope", body: `{"title":"x"}`, status: http.StatusBadRequest, detail: "Invalid announcement ID"},
		{name: "update unknown id", method: http.MethodPut, path: "/announcements/" + primitive.NewObjectID().Hex(), body: `{"title":"x"}`, status: http.StatusNotFound, detail: "Announcement not found"},
		{name: "update empty", method: http.MethodPut, path: "/announcements/" + id, body: `{}`, status: http.StatusBadRequest, detail: "No fields to update"},
		{name: "update bad expiration", method: http.MethodPut, path: "/announcements/" + id, body: `{"expiration_date":"later"}`, status: http.StatusBadRequest, detail: "Invalid expiration_date format"},
		{name: "delete bad id", method: http.MethodDelete, path: "/announcements/123", status: http.StatusBadRequest, detail: "Invalid announcement ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, tt.method, tt.path, auth, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if got := decodeDetail(t, rec); got != tt.detail {
				t.Fatalf("detail = %q, want %q", got, tt.detail)
			}
		})
	}
}

func TestLoginAndMe(t *testing.T) {
	api := newTestAPI(t, services.NewTokenIssuer("handler-secret", time.Hour))

	rec := api.do(t, http.MethodPost, "/auth/login", "", `{"username":"mrodriguez","password":"nope"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", rec.Code)
	}

	rec = api.do(t, http.MethodPost, "/auth/login", "", `{"username":"mrodriguez","password":"art123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var login LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.Token == "" || login.Teacher.Username != "mrodriguez" {
		t.Fatalf("unexpected login response %+v", login)
	}
	if strings.Contains(rec.Body.String(), `"password`) {
		t.Fatalf("login response leaks the password hash: %s", rec.Body.String())
	}

	rec = api.do(t, http.MethodGet, "/auth/me", "Bearer "+login.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, body %s", rec.Code, rec.Body.String())
	}
	var me types.Teacher
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.DisplayName != "Ms. Rodriguez" {
		t.Fatalf("unexpected teacher %+v", me)
	}
}

func TestLoginDisabledWithoutTokens(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/auth/login", "", `{"username":"mrodriguez","password":"art123"}`)
	if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("login should not be routed, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}
