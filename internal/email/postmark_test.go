package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendActivation(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com",
		"https://app.test/activate/{{token}}", "https://app.test/reset/{{token}}")
	client.httpClient = &http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, target: server.URL}}

	err := client.SendActivation("alice@example.com", "abc123")
	if err != nil {
		t.Fatalf("send activation: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "alice@example.com" {
		t.Errorf("To = %q, want %q", received.To, "alice@example.com")
	}
	if received.From != "noreply@example.com" {
		t.Errorf("From = %q, want %q", received.From, "noreply@example.com")
	}
	if !strings.Contains(received.TextBody, "https://app.test/activate/abc123") {
		t.Errorf("TextBody = %q, want activation link with token substituted", received.TextBody)
	}
}

func TestSendPasswordReset(t *testing.T) {
	var received postmarkEmail

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com",
		"https://app.test/activate/{{token}}", "https://app.test/reset/{{token}}")
	client.httpClient = &http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, target: server.URL}}

	err := client.SendPasswordReset("bob@example.com", "xyz789")
	if err != nil {
		t.Fatalf("send password reset: %v", err)
	}

	if received.Subject != "Reset your password" {
		t.Errorf("Subject = %q, want reset subject", received.Subject)
	}
	if !strings.Contains(received.HtmlBody, "https://app.test/reset/xyz789") {
		t.Errorf("HtmlBody = %q, want reset link with token substituted", received.HtmlBody)
	}
}

func TestSendVideoStatus(t *testing.T) {
	var received postmarkEmail

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "", "")
	client.httpClient = &http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, target: server.URL}}

	if err := client.SendVideoStatus("alice@example.com", "My trip", true); err != nil {
		t.Fatalf("send video status: %v", err)
	}
	if received.Subject != "Your video has been published" {
		t.Errorf("Subject = %q, want published subject", received.Subject)
	}

	if err := client.SendVideoStatus("alice@example.com", "", false); err != nil {
		t.Fatalf("send video status: %v", err)
	}
	if received.Subject != "Your video has been unpublished" {
		t.Errorf("Subject = %q, want unpublished subject", received.Subject)
	}
	if !strings.Contains(received.TextBody, "Your video") {
		t.Errorf("TextBody = %q, want fallback title", received.TextBody)
	}
}

func TestSendNotConfigured(t *testing.T) {
	client := NewClient("", "noreply@example.com", "", "")

	if err := client.SendActivation("alice@example.com", "abc123"); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

func TestSendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "", "")
	client.httpClient = &http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, target: server.URL}}

	if err := client.SendActivation("alice@example.com", "abc123"); err == nil {
		t.Fatal("expected error for API failure")
	}
}

func TestConfigured(t *testing.T) {
	c1 := NewClient("token", "from@test.com", "", "")
	if !c1.Configured() {
		t.Error("expected Configured() = true")
	}

	c2 := NewClient("", "from@test.com", "", "")
	if c2.Configured() {
		t.Error("expected Configured() = false")
	}
}

// rewriteTransport redirects all requests to a test server URL.
type rewriteTransport struct {
	base   http.RoundTripper
	target string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = t.target[len("http://"):]
	return t.base.RoundTrip(req)
}
