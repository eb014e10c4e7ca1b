package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testClient(attempts int) *Client {
	return NewClient(Config{
		SigningSecret:  "test-secret",
		Timeout:        2 * time.Second,
		MaxAttempts:    attempts,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
	})
}

func TestSendAddsSigningHeaders(t *testing.T) {
	var (
		gotSig  string
		gotTS   string
		gotEvt  string
		gotBody []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(HeaderSignature)
		gotTS = r.Header.Get(HeaderTimestamp)
		gotEvt = r.Header.Get(HeaderEvent)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := testClient(1)
	defer client.httpClient.CloseIdleConnections()

	err := client.Send(context.Background(), srv.URL, "clip.submitted", map[string]any{"clipId": "clip-1"})
	if err != nil {
		t.Fatalf("send returned error: %v", err)
	}

	if gotTS == "" {
		t.Fatal("expected timestamp header")
	}
	if gotEvt != "clip.submitted" {
		t.Fatalf("expected event header clip.submitted, got %q", gotEvt)
	}
	if !Verify("test-secret", gotTS, gotBody, gotSig, time.Minute, time.Now()) {
		t.Fatalf("signature %q did not verify", gotSig)
	}
	if Verify("other-secret", gotTS, gotBody, gotSig, time.Minute, time.Now()) {
		t.Fatal("signature verified with the wrong secret")
	}
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := testClient(3)
	defer client.httpClient.CloseIdleConnections()

	if err := client.Send(context.Background(), srv.URL, "payment.paid", map[string]any{}); err != nil {
		t.Fatalf("expected delivery on third attempt, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	client := testClient(3)
	defer client.httpClient.CloseIdleConnections()

	err := client.Send(context.Background(), srv.URL, "payment.paid", map[string]any{})
	if !errors.Is(err, ErrPermanent) {
		t.Fatalf("expected ErrPermanent, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestSendSkipsEmptyEndpoint(t *testing.T) {
	if err := testClient(1).Send(context.Background(), " ", "clip.reviewed", nil); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	body := []byte(`{"ok":true}`)
	sig := Sign("s", "1000", body)
	if Verify("s", "1000", body, sig, time.Minute, time.Unix(1000, 0).Add(2*time.Minute)) {
		t.Fatal("expected stale timestamp to fail")
	}
	if !Verify("s", "1000", body, sig, time.Minute, time.Unix(1030, 0)) {
		t.Fatal("expected fresh timestamp to pass")
	}
}

func TestSendHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(Config{
		SigningSecret:  "test-secret",
		MaxAttempts:    2,
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     200 * time.Millisecond,
	})
	defer client.httpClient.CloseIdleConnections()

	started := time.Now()
	if err := client.Send(context.Background(), srv.URL, "clip.live", map[string]any{}); err != nil {
		t.Fatalf("expected delivery on second attempt, got %v", err)
	}
	if elapsed := time.Since(started); elapsed < 200*time.Millisecond {
		t.Fatalf("expected Retry-After to stretch the wait to the 200ms cap, waited %v", elapsed)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestSendResignsEachAttempt(t *testing.T) {
	var (
		calls      atomic.Int32
		timestamps = make(chan string, 2)
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timestamps <- r.Header.Get(HeaderTimestamp)
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusRequestTimeout)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := testClient(2)
	defer client.httpClient.CloseIdleConnections()
	tick := time.Unix(1_700_000_000, 0)
	client.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	if err := client.Send(context.Background(), srv.URL, "application.accepted", map[string]any{}); err != nil {
		t.Fatalf("expected 408 to be retried, got %v", err)
	}
	first, second := <-timestamps, <-timestamps
	if first == second {
		t.Fatalf("expected a fresh timestamp per attempt, got %q twice", first)
	}
}

func TestSendTreatsNotImplementedAsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotImplemented)
	}))
	defer srv.Close()

	client := testClient(3)
	defer client.httpClient.CloseIdleConnections()

	err := client.Send(context.Background(), srv.URL, "payment.paid", map[string]any{})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotImplemented {
		t.Fatalf("expected StatusError 501, got %v", err)
	}
	if !errors.Is(err, ErrPermanent) {
		t.Fatalf("expected ErrPermanent, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := map[string]time.Duration{
		"":                              0,
		"3":                             3 * time.Second,
		"-5":                            0,
		"soon":                          0,
		"Sun, 01 Mar 2026 12:00:30 GMT": 30 * time.Second,
		"Sun, 01 Mar 2026 11:59:00 GMT": 0,
	}
	for value, want := range cases {
		if got := parseRetryAfter(value, now); got != want {
			t.Fatalf("parseRetryAfter(%q) = %v, want %v", value, got, want)
		}
	}
}
