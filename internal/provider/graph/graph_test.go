package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shineum/reply-composer/internal/email"
	"github.com/shineum/reply-composer/internal/provider"
)

func newTokenServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int32(1)
		if calls != nil {
			n = calls.Add(1)
		}
		writeToken(w, "token-"+string(rune('0'+n)), 3600)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestProvider(cfg Config, graphURL, tokenURL string, client *http.Client) *Provider {
	p := newWithOverrides(cfg, graphURL, tokenURL, client)
	p.retryDelay = time.Millisecond
	return p
}

func testDraft() *email.Email {
	return email.Draft{Recipient: "user@example.com", Body: "Hi user@example.com"}.Message("", "Re: Test")
}

func TestBuildMessage_TextBody(t *testing.T) {
	t.Parallel()

	m := buildMessage(&email.Email{
		To:       []string{"alice@example.com", "bob@example.com"},
		Subject:  "Test Subject",
		TextBody: "Hello, World!",
	})

	if m.Subject != "Test Subject" {
		t.Errorf("Subject: got %q, want %q", m.Subject, "Test Subject")
	}
	if m.Body.ContentType != "text" || m.Body.Content != "Hello, World!" {
		t.Errorf("Body: got %+v", m.Body)
	}
	if len(m.ToRecipients) != 2 {
		t.Fatalf("ToRecipients count: got %d, want 2", len(m.ToRecipients))
	}
	if m.ToRecipients[1].EmailAddress.Address != "bob@example.com" {
		t.Errorf("ToRecipients[1]: got %q, want %q", m.ToRecipients[1].EmailAddress.Address, "bob@example.com")
	}
	if len(m.CcRecipients) != 0 {
		t.Errorf("CcRecipients: got %d, want 0", len(m.CcRecipients))
	}
}

func TestBuildMessage_HTMLFallback(t *testing.T) {
	t.Parallel()

	m := buildMessage(&email.Email{To: []string{"u@example.com"}, HtmlBody: "<p>hi</p>"})
	if m.Body.ContentType != "html" || m.Body.Content != "<p>hi</p>" {
		t.Errorf("Body: got %+v, want html <p>hi</p>", m.Body)
	}
}

func TestBuildMessage_JSONShape(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(&sendMailRequest{
		Message:         buildMessage(&email.Email{To: []string{"u@example.com"}, Subject: "S", TextBody: "B"}),
		SaveToSentItems: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(data)
	for _, want := range []string{
		`"toRecipients":[{"emailAddress":{"address":"u@example.com"}}]`,
		`"saveToSentItems":true`,
		`"contentType":"text"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON %s missing %s", s, want)
		}
	}
	if strings.Contains(s, "ccRecipients") {
		t.Errorf("JSON should omit empty ccRecipients: %s", s)
	}
}

func TestProvider_Name(t *testing.T) {
	t.Parallel()

	p := New(Config{TenantID: "t", Sender: "s@example.com"})
	if p.Name() != "msgraph" {
		t.Errorf("Name: got %q, want %q", p.Name(), "msgraph")
	}
	if p.mode != ModeSend {
		t.Errorf("default mode: got %q, want %q", p.mode, ModeSend)
	}
	var _ provider.Provider = p
}

func TestProvider_SendMail(t *testing.T) {
	t.Parallel()

	tokenServer := newTokenServer(t, nil)
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/sender@example.com/sendMail" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token-1" {
			t.Errorf("Authorization header: got %q, want %q", r.Header.Get("Authorization"), "Bearer token-1")
		}
		var body sendMailRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if body.Message.Body.Content != "Hi user@example.com" {
			t.Errorf("body: got %q", body.Message.Body.Content)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer graphServer.Close()

	p := newTestProvider(Config{Sender: "sender@example.com"}, graphServer.URL, tokenServer.URL, graphServer.Client())
	if err := p.Send(context.Background(), testDraft()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProvider_DraftMode(t *testing.T) {
	t.Parallel()

	tokenServer := newTokenServer(t, nil)
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/sender@example.com/messages" {
			t.Errorf("path: got %q, want messages endpoint", r.URL.Path)
		}
		var body message
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if body.Subject != "Re: Test" {
			t.Errorf("Subject: got %q, want %q", body.Subject, "Re: Test")
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"AAMk"}`))
	}))
	defer graphServer.Close()

	p := newTestProvider(Config{Sender: "sender@example.com", Mode: ModeDraft}, graphServer.URL, tokenServer.URL, graphServer.Client())
	if err := p.Send(context.Background(), testDraft()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProvider_PermanentError(t *testing.T) {
	t.Parallel()

	tokenServer := newTokenServer(t, nil)
	var graphCalls atomic.Int32
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		graphCalls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"ErrorInvalidRecipients","message":"bad recipient"}}`))
	}))
	defer graphServer.Close()

	p := newTestProvider(Config{Sender: "s@example.com"}, graphServer.URL, tokenServer.URL, graphServer.Client())
	err := p.Send(context.Background(), testDraft())
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "bad recipient") {
		t.Errorf("error: got %q, want to contain %q", err.Error(), "bad recipient")
	}
	if graphCalls.Load() != 1 {
		t.Errorf("graph calls: got %d, want 1", graphCalls.Load())
	}
}

func TestProvider_RetryOn5xx(t *testing.T) {
	t.Parallel()

	tokenServer := newTokenServer(t, nil)
	var graphCalls atomic.Int32
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if graphCalls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer graphServer.Close()

	p := newTestProvider(Config{Sender: "s@example.com"}, graphServer.URL, tokenServer.URL, graphServer.Client())
	if err := p.Send(context.Background(), testDraft()); err != nil {
		t.Fatalf("expected success after retries, got: %v", err)
	}
	if graphCalls.Load() != 3 {
		t.Errorf("graph calls: got %d, want 3", graphCalls.Load())
	}
}

func TestProvider_RetriesExhausted(t *testing.T) {
	t.Parallel()

	tokenServer := newTokenServer(t, nil)
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer graphServer.Close()

	p := newTestProvider(Config{Sender: "s@example.com"}, graphServer.URL, tokenServer.URL, graphServer.Client())
	err := p.Send(context.Background(), testDraft())
	if err == nil || !strings.Contains(err.Error(), "after 3 retries") {
		t.Fatalf("expected retries exhausted error, got %v", err)
	}
}

func TestProvider_RetryOn401WithTokenRefresh(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int32
	tokenServer := newTokenServer(t, &tokenCalls)

	var graphCalls atomic.Int32
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if graphCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"InvalidAuthenticationToken","message":"Token expired"}}`))
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-2" {
			t.Errorf("Authorization after refresh: got %q, want %q", got, "Bearer token-2")
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer graphServer.Close()

	p := newTestProvider(Config{Sender: "s@example.com"}, graphServer.URL, tokenServer.URL, graphServer.Client())
	if err := p.Send(context.Background(), testDraft()); err != nil {
		t.Fatalf("expected success after token refresh, got: %v", err)
	}
	if graphCalls.Load() != 2 {
		t.Errorf("graph calls: got %d, want 2", graphCalls.Load())
	}
	if tokenCalls.Load() != 2 {
		t.Errorf("token calls: got %d, want 2", tokenCalls.Load())
	}
}

func TestProvider_RateLimitWithRetryAfter(t *testing.T) {
	t.Parallel()

	tokenServer := newTokenServer(t, nil)
	var graphCalls atomic.Int32
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if graphCalls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer graphServer.Close()

	p := newTestProvider(Config{Sender: "s@example.com"}, graphServer.URL, tokenServer.URL, graphServer.Client())
	start := time.Now()
	if err := p.Send(context.Background(), testDraft()); err != nil {
		t.Fatalf("expected success after rate limit, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Errorf("Retry-After not honoured: elapsed %v", elapsed)
	}
}

func TestProvider_ContextCancellation(t *testing.T) {
	t.Parallel()

	tokenServer := newTokenServer(t, nil)
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer graphServer.Close()

	p := newTestProvider(Config{Sender: "s@example.com"}, graphServer.URL, tokenServer.URL, graphServer.Client())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := p.Send(ctx, testDraft()); err == nil {
		t.Fatal("expected error when context is cancelled")
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status    int
		permanent bool
		transient bool
	}{
		{http.StatusBadRequest, true, false},
		{http.StatusForbidden, true, false},
		{http.StatusNotFound, true, false},
		{http.StatusUnauthorized, false, true},
		{http.StatusTooManyRequests, false, true},
		{http.StatusInternalServerError, false, true},
		{http.StatusServiceUnavailable, false, true},
	}

	for _, tt := range tests {
		err := classifyError(tt.status, "msg", "")
		if err.permanent != tt.permanent || err.transient != tt.transient {
			t.Errorf("classifyError(%d): got permanent=%v transient=%v, want %v/%v",
				tt.status, err.permanent, err.transient, tt.permanent, tt.transient)
		}
	}
}

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
	}
	for _, tt := range tests {
		if got := backoffDelay(time.Second, tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(%d): got %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestSendError_Error(t *testing.T) {
	t.Parallel()

	err := &sendError{message: "Not found", statusCode: 404}
	if got := err.Error(); got != "Graph API error (HTTP 404): Not found" {
		t.Errorf("Error(): got %q", got)
	}
}
