package evesso

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

func startTestServer(t *testing.T) *CallbackServer {
	t.Helper()
	server, err := NewCallbackServer("http://127.0.0.1:0/callback/")
	if err != nil {
		t.Fatalf("NewCallbackServer failed: %v", err)
	}
	if err = server.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	})
	return server
}

func callbackGet(t *testing.T, rawURL string) *http.Response {
	t.Helper()
	resp, err := http.Get(rawURL)
	if err != nil {
		t.Fatalf("GET %s failed: %v", rawURL, err)
	}
	t.Cleanup(func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	})
	return resp
}

func TestCallbackServerCapturesOneRequest(t *testing.T) {
	server := startTestServer(t)
	base := fmt.Sprintf("http://127.0.0.1:%d", server.Port())

	resp := callbackGet(t, base+"/callback/?code=XYZ&state=secret")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("first callback status = %d, want 200", resp.StatusCode)
	}

	redirectURL, err := server.WaitForCallback(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("WaitForCallback failed: %v", err)
	}

	parsed, err := url.Parse(redirectURL)
	if err != nil {
		t.Fatalf("captured URL does not parse: %v", err)
	}
	query := parsed.Query()
	if query.Get("code") != "XYZ" || query.Get("state") != "secret" {
		t.Errorf("captured query = %q, want code=XYZ state=secret", parsed.RawQuery)
	}

	// The listener is single-use: further requests are refused.
	second := callbackGet(t, base+"/callback/?code=again&state=again")
	if second.StatusCode != http.StatusGone {
		t.Errorf("second callback status = %d, want 410", second.StatusCode)
	}
}

func TestCallbackServerIgnoresOtherPaths(t *testing.T) {
	server := startTestServer(t)
	base := fmt.Sprintf("http://127.0.0.1:%d", server.Port())

	resp := callbackGet(t, base+"/favicon.ico")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unexpected status for stray path: %d", resp.StatusCode)
	}

	// A stray request must not consume the single capture slot.
	ok := callbackGet(t, base+"/callback?code=XYZ&state=s")
	if ok.StatusCode != http.StatusOK {
		t.Errorf("callback status after stray request = %d, want 200", ok.StatusCode)
	}

	redirectURL, err := server.WaitForCallback(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("WaitForCallback failed: %v", err)
	}
	if !strings.Contains(redirectURL, "code=XYZ") {
		t.Errorf("captured URL = %q, want code=XYZ", redirectURL)
	}
}

func TestCallbackServerDeniedPage(t *testing.T) {
	server := startTestServer(t)
	base := fmt.Sprintf("http://127.0.0.1:%d", server.Port())

	resp := callbackGet(t, base+"/callback/?error=access_denied&state=s")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("denied callback status = %d, want 400", resp.StatusCode)
	}

	redirectURL, err := server.WaitForCallback(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("WaitForCallback failed: %v", err)
	}
	if !strings.Contains(redirectURL, "error=access_denied") {
		t.Errorf("captured URL = %q, want error=access_denied", redirectURL)
	}
}

func TestCallbackServerTimeout(t *testing.T) {
	server := startTestServer(t)

	_, err := server.WaitForCallback(context.Background(), 50*time.Millisecond)
	if !IsAuthError(err, ErrCallbackTimeout) {
		t.Fatalf("error = %v, want callback timeout", err)
	}
}

func TestCallbackServerContextCancel(t *testing.T) {
	server := startTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := server.WaitForCallback(ctx, time.Minute); err != context.Canceled {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
