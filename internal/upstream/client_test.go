package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"rentflow-backend/internal/apperrors"
)

func TestClientForwardsTokenAndIdempotencyKey(t *testing.T) {
	var gotAuth, gotKey, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("Idempotency-Key")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "payment_id": "p-1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 5*time.Second)
	ctx := WithToken(context.Background(), "abc123")

	var out map[string]interface{}
	if err := c.Post(ctx, "/api/v1/payments/rent/manual/record/", map[string]string{"unit_id": "7"}, &out, WithIdempotencyKey("key-1")); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if gotAuth != "Bearer abc123" {
		t.Errorf("Authorization = %q, want Bearer abc123", gotAuth)
	}
	if gotKey != "key-1" {
		t.Errorf("Idempotency-Key = %q, want key-1", gotKey)
	}
	if out["payment_id"] != "p-1" {
		t.Errorf("payment_id = %v, want p-1", out["payment_id"])
	}

	if err := c.Get(ctx, "/api/v1/payments/rent/schedule/", url.Values{"unit_id": {"7"}}, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotQuery != "unit_id=7" {
		t.Errorf("query = %q, want unit_id=7", gotQuery)
	}
}

func TestClientWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, time.Second).Get(context.Background(), "/x/", nil, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestClientErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"detail", http.StatusForbidden, `{"detail": "Not your unit"}`, "Not your unit"},
		{"error", http.StatusBadRequest, `{"error": "Insufficient funds"}`, "Insufficient funds"},
		{"field list", http.StatusBadRequest, `{"amount": ["Ensure this value is greater than 0."]}`, "amount: Ensure this value is greater than 0."},
		{"plain text", http.StatusBadGateway, `upstream down`, "upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewClient(srv.URL, time.Second).Get(context.Background(), "/api/v1/payments/", nil, nil)
			var httpErr *apperrors.HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected *HTTPError, got %T: %v", err, err)
			}
			if httpErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", httpErr.StatusCode, tt.status)
			}
			if httpErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", httpErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestClientTimeoutIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, 20*time.Millisecond).Get(context.Background(), "/slow/", nil, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if kind := apperrors.Classify(err).Kind; kind != apperrors.KindTimeout {
		t.Errorf("Kind = %s, want %s", kind, apperrors.KindTimeout)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/api/v1/payments/rent/manual/confirm/42/": "/api/v1/payments/rent/manual/confirm/:id/",
		"/api/v1/payments/rent/schedule/":          "/api/v1/payments/rent/schedule/",
	}
	for in, want := range tests {
		if got := routeLabel(in); got != want {
			t.Errorf("routeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
