package evesso

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mobiusxs/evesso/internal/config"
	log "github.com/sirupsen/logrus"
)

// EVE Online SSO endpoints, per https://developers.eveonline.com.
const (
	// DefaultAuthorizeEndpoint is where the user's browser is sent to grant access.
	DefaultAuthorizeEndpoint = "https://login.eveonline.com/v2/oauth/authorize"
	// DefaultTokenEndpoint is where authorization codes are exchanged for tokens.
	DefaultTokenEndpoint = "https://login.eveonline.com/v2/oauth/token"
	// DefaultTokenHost is the Host header the SSO requires on token requests
	// to disambiguate the Tranquility environment.
	DefaultTokenHost = "login.eveonline.com"
	// DefaultRedirectURI is the loopback callback registered with the application.
	DefaultRedirectURI = "http://localhost:8635/callback/"
)

// SSOAuth performs the EVE SSO side of the authorization code flow: building
// the authorization URL and exchanging the resulting code for tokens. It holds
// no per-attempt data; PKCE material and state are passed in by the caller.
type SSOAuth struct {
	httpClient        *http.Client
	clientID          string
	scope             string
	redirectURI       string
	authorizeEndpoint string
	tokenEndpoint     string
	tokenHost         string
}

// NewSSOAuth creates an SSO service from the application configuration,
// filling in the Tranquility defaults for anything left unset.
func NewSSOAuth(cfg *config.Config) *SSOAuth {
	a := &SSOAuth{
		httpClient:        &http.Client{Timeout: 30 * time.Second},
		clientID:          cfg.ClientID,
		scope:             cfg.Scope,
		redirectURI:       cfg.RedirectURI,
		authorizeEndpoint: cfg.AuthorizeEndpoint,
		tokenEndpoint:     cfg.TokenEndpoint,
		tokenHost:         cfg.TokenHost,
	}
	if a.redirectURI == "" {
		a.redirectURI = DefaultRedirectURI
	}
	if a.authorizeEndpoint == "" {
		a.authorizeEndpoint = DefaultAuthorizeEndpoint
	}
	if a.tokenEndpoint == "" {
		a.tokenEndpoint = DefaultTokenEndpoint
	}
	if a.tokenHost == "" && a.tokenEndpoint == DefaultTokenEndpoint {
		a.tokenHost = DefaultTokenHost
	}
	return a
}

// SetHTTPClient replaces the underlying HTTP client. Intended for tests that
// need to count or intercept token endpoint calls.
func (a *SSOAuth) SetHTTPClient(client *http.Client) {
	a.httpClient = client
}

// RedirectURI returns the callback URI the SSO will redirect to.
func (a *SSOAuth) RedirectURI() string {
	return a.redirectURI
}

// GenerateAuthURL builds the authorization URL the user must open to grant
// access. The state parameter is the caller's anti-forgery token for this
// attempt and is echoed back by the SSO in the callback.
func (a *SSOAuth) GenerateAuthURL(state string, pkceCodes *PKCECodes) (string, error) {
	if pkceCodes == nil {
		return "", fmt.Errorf("PKCE codes are required")
	}
	if state == "" {
		return "", fmt.Errorf("state is required")
	}

	params := url.Values{
		"response_type":         {"code"},
		"redirect_uri":          {a.redirectURI},
		"client_id":             {a.clientID},
		"scope":                 {a.scope},
		"code_challenge":        {pkceCodes.CodeChallenge},
		"code_challenge_method": {"S256"},
		"state":                 {state},
	}

	return fmt.Sprintf("%s?%s", a.authorizeEndpoint, params.Encode()), nil
}

// ExchangeCodeForTokens exchanges an authorization code for an access/refresh
// token pair. The code verifier is sent raw so the SSO can re-derive the
// challenge it saw in the authorization request. The caller must have
// validated the callback state before calling this; codes are single-use and
// failures are not retried.
func (a *SSOAuth) ExchangeCodeForTokens(ctx context.Context, code string, pkceCodes *PKCECodes) (*TokenResponse, error) {
	if pkceCodes == nil {
		return nil, fmt.Errorf("PKCE codes are required for token exchange")
	}
	if code == "" {
		return nil, fmt.Errorf("authorization code is required")
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {a.clientID},
		"code":          {code},
		"code_verifier": {pkceCodes.CodeVerifier},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if a.tokenHost != "" {
		// The SSO rejects token requests without its expected Host value.
		req.Host = a.tokenHost
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange request failed: %w", err)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("failed to close response body: %v", errClose)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewTokenExchangeError(resp.StatusCode, body)
	}

	return parseTokenResponse(body)
}
