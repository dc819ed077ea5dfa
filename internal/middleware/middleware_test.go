package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"rentflow-backend/internal/auth"
	"rentflow-backend/internal/config"
	"rentflow-backend/internal/upstream"

	"github.com/golang-jwt/jwt/v5"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	locks   map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string][]byte{}, locks: map[string]bool{}}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.entries[key]
	return data, ok, nil
}

func (s *memoryStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = data
	return nil
}

func (s *memoryStore) Lock(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[key] {
		return false, nil
	}
	s.locks[key] = true
	return true, nil
}

func (s *memoryStore) Unlock(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, key)
	return nil
}

func withUser(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), UserIDKey, id))
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))

	for i := 0; i < 2; i++ {
		req := withUser(httptest.NewRequest(http.MethodPost, "/pay", nil), "u1")
		req.Header.Set("Idempotency-Key", "k1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: status = %d", i, rec.Code)
		}
		if rec.Body.String() != `{"ok":true}` {
			t.Fatalf("attempt %d: body = %q", i, rec.Body.String())
		}
		if i == 1 && rec.Header().Get("Idempotent-Replayed") != "true" {
			t.Error("second response should be marked as replayed")
		}
	}
	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
	if _, ok := store.entries["u1:k1"]; !ok {
		t.Error("entry should be scoped to the user")
	}
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/pay", nil)
		req.Header.Set("Idempotency-Key", "k1")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Errorf("handler called %d times, want 2", calls)
	}
}

func TestIdempotencySkipsReadsAndKeylessRequests(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	get := httptest.NewRequest(http.MethodGet, "/x", nil)
	get.Header.Set("Idempotency-Key", "k")
	h.ServeHTTP(httptest.NewRecorder(), get)
	h.ServeHTTP(httptest.NewRecorder(), get)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", nil))

	if calls != 4 {
		t.Errorf("handler called %d times, want 4", calls)
	}
	if len(store.entries) != 0 {
		t.Errorf("nothing should be stored, got %d entries", len(store.entries))
	}
}

func TestIdempotencyConflictWhileInFlight(t *testing.T) {
	store := newMemoryStore()
	store.locks["u1:k1"] = true

	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run while the key is locked")
	}))

	req := withUser(httptest.NewRequest(http.MethodPost, "/pay", nil), "u1")
	req.Header.Set("Idempotency-Key", "k1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestIdempotencyNilStore(t *testing.T) {
	called := false
	h := Idempotency(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(http.MethodPost, "/pay", nil)
	req.Header.Set("Idempotency-Key", "k1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Error("nil store should pass through")
	}
}

func newAuth(t *testing.T) (*AuthMiddleware, func(jwt.MapClaims) string) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	sign := func(claims jwt.MapClaims) string {
		if _, ok := claims["exp"]; !ok {
			claims["exp"] = time.Now().Add(time.Hour).Unix()
		}
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	return NewAuthMiddleware(auth.NewJWTManager(cfg)), sign
}

func TestAuthenticate(t *testing.T) {
	m, sign := newAuth(t)
	token := sign(jwt.MapClaims{"user_id": 9, "role": "tenant"})

	var gotUser, gotRole, gotToken string
	h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = GetUserIDFromContext(r.Context())
		gotRole, _ = GetRoleFromContext(r.Context())
		gotToken, _ = upstream.TokenFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tenant/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotUser != "9" || gotRole != "tenant" {
		t.Errorf("actor = %q/%q", gotUser, gotRole)
	}
	if gotToken != token {
		t.Error("raw token should be forwarded to upstream calls")
	}
}

func TestAuthenticateRejects(t *testing.T) {
	m, _ := newAuth(t)
	h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	for _, header := range []string{"", "Token abc", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/tenant/dashboard", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%q: status = %d, want 401", header, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "error") {
			t.Errorf("%q: body = %q", header, rec.Body.String())
		}
	}
}

func TestAuthenticateWebsocketQueryToken(t *testing.T) {
	m, sign := newAuth(t)
	token := sign(jwt.MapClaims{"user_id": "u2", "role": "landlord"})

	ok := false
	h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	req.Header.Set("Upgrade", "websocket")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !ok {
		t.Error("websocket upgrade should accept the query token")
	}

	ok = false
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x?token="+token, nil))
	if ok || rec.Code != http.StatusUnauthorized {
		t.Error("query token should only be accepted on websocket upgrades")
	}
}

func TestRequireRole(t *testing.T) {
	m, _ := newAuth(t)
	h := m.RequireRole("landlord", "admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		role string
		want int
	}{
		{"landlord", http.StatusNoContent},
		{"admin", http.StatusNoContent},
		{"tenant", http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), RoleKey, tt.role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("role %q: status = %d, want %d", tt.role, rec.Code, tt.want)
		}
	}
}

func TestPanicRecovery(t *testing.T) {
	h := PanicRecovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	if ip := getClientIP(req); ip != "10.0.0.1" {
		t.Errorf("ip = %q", ip)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:5555"
	if ip := getClientIP(req); ip != "192.168.1.5" {
		t.Errorf("ip = %q", ip)
	}
}
