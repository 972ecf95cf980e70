package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name        string
		allowed     string
		origin      string
		method      string
		preflight   bool
		wantStatus  int
		wantAllowed string
	}{
		{name: "disabled", allowed: "", origin: "https://app.example.com", method: http.MethodGet, wantStatus: http.StatusTeapot},
		{name: "foreign origin", allowed: "https://app.example.com", origin: "https://evil.example.com", method: http.MethodGet, wantStatus: http.StatusTeapot},
		{name: "allowed origin", allowed: "https://app.example.com/", origin: "https://app.example.com", method: http.MethodGet, wantStatus: http.StatusTeapot, wantAllowed: "https://app.example.com"},
		{name: "preflight", allowed: "https://app.example.com", origin: "https://app.example.com", method: http.MethodOptions, preflight: true, wantStatus: http.StatusNoContent, wantAllowed: "https://app.example.com"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/books", nil)
			req.Header.Set("Origin", tc.origin)
			if tc.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			WithCORS(tc.allowed)(next).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantAllowed {
				t.Fatalf("allow origin = %q, want %q", got, tc.wantAllowed)
			}
			if tc.wantAllowed != "" && rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
				t.Fatalf("expected credentials to be allowed")
			}
		})
	}
}
