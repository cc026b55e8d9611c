package directory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL, ServiceToken: "svc-token"}, testLogger())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client, srv
}

// ---------------------------------------------------------------------------
// Config tests
// ---------------------------------------------------------------------------

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{BaseURL: "https://directory.example.com"}
	cfg.ApplyDefaults()

	if cfg.ConnectTimeout != 10*time.Second {
		t.Errorf("ConnectTimeout = %v, want 10s", cfg.ConnectTimeout)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}

	cfg2 := Config{BaseURL: "x", RequestTimeout: 3 * time.Second}
	cfg2.ApplyDefaults()
	if cfg2.RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %v, want 3s (preserved)", cfg2.RequestTimeout)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for missing BaseURL")
	}
	cfg.BaseURL = "https://directory.example.com"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

// ---------------------------------------------------------------------------
// VerifyToken
// ---------------------------------------------------------------------------

func TestVerifyToken_Success(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/identity/verify" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer svc-token" {
			t.Errorf("Authorization = %q, want service bearer token", got)
		}
		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Token != "user-token" {
			t.Errorf("token = %q, want %q", req.Token, "user-token")
		}
		json.NewEncoder(w).Encode(Identity{
			UserID:      "user_1",
			Email:       "dev@example.com",
			DisplayName: "Dev One",
			Provider:    "github",
			Roles:       []string{"member"},
		})
	}))

	identity, err := client.VerifyToken(context.Background(), "user-token")
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if identity.UserID != "user_1" {
		t.Errorf("UserID = %q, want user_1", identity.UserID)
	}
	if identity.DisplayName != "Dev One" {
		t.Errorf("DisplayName = %q, want Dev One", identity.DisplayName)
	}
}

func TestVerifyToken_MissingTokenSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := client.VerifyToken(context.Background(), "   ")
	if !errors.Is(err, ErrTokenMissing) {
		t.Errorf("error = %v, want ErrTokenMissing", err)
	}
	if calls.Load() != 0 {
		t.Errorf("server calls = %d, want 0", calls.Load())
	}
}

func TestVerifyToken_InvalidShape(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())

	_, err := client.VerifyToken(context.Background(), "tok\x00en")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyToken_Unauthorized(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"expired", `{"reason":"expired"}`, ErrTokenExpired},
		{"invalid", `{"reason":"invalid"}`, ErrTokenInvalid},
		{"no body", ``, ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, tt.body)
			}))

			_, err := client.VerifyToken(context.Background(), "some-token")
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVerifyToken_ServerErrorIsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.VerifyToken(context.Background(), "some-token")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestVerifyToken_TransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // refuse connections

	client, err := NewClient(Config{BaseURL: srv.URL}, testLogger())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.VerifyToken(context.Background(), "some-token")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

// ---------------------------------------------------------------------------
// ActiveNetwork
// ---------------------------------------------------------------------------

func TestActiveNetwork_Success(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/users/user_1/network" {
			t.Errorf("path = %q, want /v1/users/user_1/network", r.URL.Path)
		}
		json.NewEncoder(w).Encode(networkResponse{NetworkID: "net_42"})
	}))

	got, err := client.ActiveNetwork(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("ActiveNetwork() error = %v", err)
	}
	if got != "net_42" {
		t.Errorf("network = %q, want net_42", got)
	}
}

func TestActiveNetwork_NotFoundMeansNoNetwork(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	got, err := client.ActiveNetwork(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("ActiveNetwork() error = %v, want nil for 404", err)
	}
	if got != "" {
		t.Errorf("network = %q, want empty", got)
	}
}

func TestActiveNetwork_ServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.ActiveNetwork(context.Background(), "user_1")
	if err == nil {
		t.Fatal("ActiveNetwork() = nil, want error for 500")
	}
	if !errors.Is(err, ErrServer) {
		t.Errorf("error = %v, want ErrServer match", err)
	}
}

// ---------------------------------------------------------------------------
// APIError
// ---------------------------------------------------------------------------

func TestAPIError_Is(t *testing.T) {
	err := &APIError{StatusCode: 503, Message: "down"}
	if !errors.Is(err, ErrServer) {
		t.Error("503 should match ErrServer")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("503 should not match ErrNotFound")
	}
	if !errors.Is(&APIError{StatusCode: 404}, ErrNotFound) {
		t.Error("404 should match ErrNotFound")
	}
}
