package checker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDefaultRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"httpbin origin", `{"origin": "198.51.100.7, 10.0.0.1"}`, "198.51.100.7"},
		{"ipify json", `{"ip": "198.51.100.8"}`, "198.51.100.8"},
		{"plain text", "198.51.100.9\n", "198.51.100.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			got, err := DefaultRequest(context.Background(), server.URL, "", time.Second)
			if err != nil {
				t.Fatalf("DefaultRequest returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("DefaultRequest returned %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultRequestFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"hello":"world"}`)
	}))
	defer server.Close()

	if _, err := DefaultRequest(context.Background(), server.URL+"/down", "", time.Second); err == nil {
		t.Fatal("expected error for non-2xx lookup")
	}
	if _, err := DefaultRequest(context.Background(), server.URL, "", time.Second); err == nil {
		t.Fatal("expected error for lookup without an ip")
	}
}

func TestDefaultRequestIgnoresProxyEnvironment(t *testing.T) {
	t.Setenv("HTTP_PROXY", "http://127.0.0.1:1")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"origin":"203.0.113.1"}`)
	}))
	defer server.Close()

	got, err := DefaultRequest(context.Background(), server.URL, "", time.Second)
	if err != nil {
		t.Fatalf("DefaultRequest returned error: %v", err)
	}
	if got != "203.0.113.1" {
		t.Fatalf("DefaultRequest returned %q", got)
	}
}
