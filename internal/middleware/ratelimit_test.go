package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  RateLimitConfig
		wantErr bool
	}{
		{"valid", RateLimitConfig{RequestsPerWindow: 10, WindowDuration: time.Minute}, false},
		{"zero requests", RateLimitConfig{RequestsPerWindow: 0, WindowDuration: time.Minute}, true},
		{"zero window", RateLimitConfig{RequestsPerWindow: 10, WindowDuration: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInMemoryStoreAllowsWithinLimit(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 3, WindowDuration: time.Minute}

	for i := 0; i < 3; i++ {
		allowed, _ := store.Allow(context.Background(), "tenant:t1", config)
		if !allowed {
			t.Fatalf("request %d blocked within limit", i+1)
		}
	}

	allowed, retryAfter := store.Allow(context.Background(), "tenant:t1", config)
	if allowed {
		t.Error("request over limit allowed")
	}
	if retryAfter <= 0 {
		t.Errorf("retryAfter = %d, want positive", retryAfter)
	}

	// A different key has its own bucket.
	if allowed, _ := store.Allow(context.Background(), "tenant:t2", config); !allowed {
		t.Error("independent key blocked")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}
	handler := RateLimiter(store, config, IPKeyFunc())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/network/discovery", nil)
	req.RemoteAddr = "10.0.0.1:4242"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("no Retry-After header on 429")
	}
}

func TestTenantKeyFunc(t *testing.T) {
	keyFunc := TenantKeyFunc()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4242"
	if key := keyFunc(req); key != "ip:10.0.0.1" {
		t.Errorf("unauthenticated key = %s, want ip:10.0.0.1", key)
	}

	req = req.WithContext(SetViewerTenant(req.Context(), "tenant-1"))
	if key := keyFunc(req); key != "tenant:tenant-1" {
		t.Errorf("authenticated key = %s, want tenant:tenant-1", key)
	}
}

func TestIPKeyFuncForwardedFor(t *testing.T) {
	keyFunc := IPKeyFunc()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if key := keyFunc(req); key != "203.0.113.9" {
		t.Errorf("key = %s, want first forwarded IP", key)
	}
}
