package evesso

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// CallbackServer is the local HTTP listener that receives the SSO redirect.
// It binds the host and port of the registered redirect URI, captures exactly
// one request on the callback path, and hands the full redirect URL to the
// caller. Requests after the first are refused.
type CallbackServer struct {
	// server is the underlying HTTP server instance
	server *http.Server
	// listener is the bound TCP listener; kept so the actual port is known
	// even when the redirect URI asks for port 0
	listener net.Listener
	// scheme and callbackPath come from the registered redirect URI
	scheme       string
	callbackPath string
	// bindAddr is the host:port the listener binds
	bindAddr string
	// resultChan delivers the captured redirect URL
	resultChan chan string
	// errorChan delivers server failures
	errorChan chan error
	// mu protects the server lifecycle fields
	mu      sync.Mutex
	running bool
	// capturedMu guards the single-use flag separately so request handlers
	// never contend with Stop while it waits for them to drain
	capturedMu sync.Mutex
	captured   bool
}

// NewCallbackServer creates a callback server for the given redirect URI.
// The URI's host, port, and path determine where the server binds and which
// requests it captures.
func NewCallbackServer(redirectURI string) (*CallbackServer, error) {
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("redirect URI %q has no host", redirectURI)
	}

	host := parsed.Hostname()
	port := parsed.Port()
	if port == "" {
		if parsed.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}

	callbackPath := parsed.Path
	if callbackPath == "" {
		callbackPath = "/"
	}

	return &CallbackServer{
		scheme:       parsed.Scheme,
		callbackPath: callbackPath,
		bindAddr:     net.JoinHostPort(host, port),
		resultChan:   make(chan string, 1),
		errorChan:    make(chan error, 1),
	}, nil
}

// Start binds the listener and begins serving in the background.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	listener, err := net.Listen("tcp", s.bindAddr)
	if err != nil {
		if strings.Contains(err.Error(), "address already in use") {
			return fmt.Errorf("port already in use on %s: %w", s.bindAddr, err)
		}
		return fmt.Errorf("failed to bind %s: %w", s.bindAddr, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleCallback)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.running = true

	go func() {
		if errServe := s.server.Serve(listener); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			s.errorChan <- fmt.Errorf("callback server failed: %w", errServe)
		}
	}()

	log.Debugf("callback server listening on %s", listener.Addr())
	return nil
}

// Port returns the port the listener is actually bound to.
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Stop gracefully shuts the server down.
func (s *CallbackServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.server == nil {
		return nil
	}

	log.Debug("stopping callback server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := s.server.Shutdown(shutdownCtx)
	s.running = false
	s.server = nil
	s.listener = nil

	return err
}

// WaitForCallback blocks until the redirect arrives, the context is
// cancelled, or the timeout elapses. A timeout of zero or less waits
// indefinitely, matching the SSO's own lack of a deadline. The returned
// string is the full redirect URL including its query.
func (s *CallbackServer) WaitForCallback(ctx context.Context, timeout time.Duration) (string, error) {
	var timeoutC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case redirectURL := <-s.resultChan:
		return redirectURL, nil
	case err := <-s.errorChan:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timeoutC:
		return "", NewAuthenticationError(ErrCallbackTimeout, fmt.Errorf("no callback within %s", timeout))
	}
}

// handleCallback captures the first request on the callback path and refuses
// everything afterwards. The captured request is returned to the waiter as a
// full URL; interpreting its query belongs to the flow, not the listener.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.matchesCallbackPath(r.URL.Path) {
		http.NotFound(w, r)
		return
	}

	s.capturedMu.Lock()
	if s.captured {
		s.capturedMu.Unlock()
		http.Error(w, "Callback already received", http.StatusGone)
		return
	}
	s.captured = true
	s.capturedMu.Unlock()

	log.Debug("received SSO callback")

	redirectURL := fmt.Sprintf("%s://%s%s", s.scheme, r.Host, r.URL.RequestURI())
	s.resultChan <- redirectURL

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.URL.Query().Get("error") != "" || r.URL.Query().Get("code") == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(loginDeniedHTML))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(loginSuccessHTML))
}

// matchesCallbackPath compares request paths ignoring a trailing slash, since
// registered redirect URIs commonly carry one.
func (s *CallbackServer) matchesCallbackPath(path string) bool {
	trim := func(p string) string {
		if p == "/" {
			return p
		}
		return strings.TrimSuffix(p, "/")
	}
	return trim(path) == trim(s.callbackPath)
}
