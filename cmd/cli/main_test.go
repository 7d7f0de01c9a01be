package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/smallwat3r/longerlogin/internal/auth"
	"github.com/smallwat3r/longerlogin/internal/domain"
	"github.com/smallwat3r/longerlogin/internal/utility"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	os.Stdout = oldStdout
	return buf.String()
}

func TestShowExpiration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/expiration" {
			t.Errorf("Expected to request '/api/expiration', got: %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("Expected 'GET' method, got: %s", r.Method)
		}
		c, err := r.Cookie(auth.CookieName)
		if err != nil || c.Value != "session-cookie" {
			t.Errorf("Expected session cookie to be forwarded, got: %v", c)
		}
		json.NewEncoder(w).Encode(domain.ExpirationRes{
			Option:  domain.ExpirationOption,
			Value:   "604800",
			Seconds: 604800,
			Label:   "1 Week",
		})
	}))
	defer server.Close()

	out := captureStdout(t, func() { showExpiration(server.URL, "session-cookie") })

	for _, want := range []string{"Stored: 604800", "Lifetime: 168h0m0s", "Preset: 1 Week"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %q", want, out)
		}
	}
}

func TestShowExpiration_NotSet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.ExpirationRes{
			Option:  domain.ExpirationOption,
			Seconds: domain.RememberedLifetime,
		})
	}))
	defer server.Close()

	out := captureStdout(t, func() { showExpiration(server.URL, "") })

	if !strings.Contains(out, "Stored: (not set)") {
		t.Errorf("Expected unset marker, got %q", out)
	}
	if strings.Contains(out, "Preset:") {
		t.Errorf("Expected no preset line, got %q", out)
	}
}

func TestSetExpiration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("Expected 'PUT' method, got: %s", r.Method)
		}
		var req struct {
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		value := req.Value
		if !utility.IsNumeric(value) {
			value = "1210000"
		}
		json.NewEncoder(w).Encode(domain.ExpirationRes{
			Option:  domain.ExpirationOption,
			Value:   value,
			Seconds: utility.ToSeconds(value),
		})
	}))
	defer server.Close()

	out := captureStdout(t, func() { setExpiration(server.URL, "c", "86400") })
	if !strings.Contains(out, "Lifetime: 24h0m0s") {
		t.Errorf("Expected 24h lifetime, got %q", out)
	}

	out = captureStdout(t, func() { setExpiration(server.URL, "c", "forever") })
	if !strings.Contains(out, "not a number") {
		t.Errorf("Expected fallback notice, got %q", out)
	}
}

func TestDoRequestWithRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		if string(body) != "payload" {
			t.Errorf("Expected body to be resent, got %q", body)
		}
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodPut, server.URL, strings.NewReader("payload"))
	resp, err := doRequestWithRetry(req)
	if err != nil {
		t.Fatalf("doRequestWithRetry() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestHashPassword(t *testing.T) {
	utility.FastHashingForTest(t)

	out := strings.TrimSpace(captureStdout(t, func() { hashPassword("swordfish") }))

	ok, err := utility.VerifyPassword(out, "swordfish")
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if !ok {
		t.Error("printed hash does not verify")
	}
}

func TestPrintPresets(t *testing.T) {
	out := captureStdout(t, printPresets)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 10 {
		t.Fatalf("Expected 10 presets, got %d", len(lines))
	}
	if !strings.Contains(lines[4], "1210000") || !strings.Contains(lines[4], "2 Weeks (Default)") {
		t.Errorf("Expected default preset on line 5, got %q", lines[4])
	}
}

func TestPrintUsage(t *testing.T) {
	out := captureStdout(t, printUsage)

	for _, want := range []string{"Usage:", "hash", "presets", "status", "set", "help"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %q", want, out)
		}
	}
}
