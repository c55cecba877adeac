package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/mobiusxs/evesso/internal/auth/evesso"
	"github.com/mobiusxs/evesso/internal/config"
	"github.com/mobiusxs/evesso/internal/misc"
	log "github.com/sirupsen/logrus"
)

// SSOAuthenticator implements the OAuth2 authorization code + PKCE login flow
// for EVE Online SSO accounts. Each Login call is a self-contained attempt
// with its own PKCE material and anti-forgery state; nothing is shared across
// attempts.
type SSOAuthenticator struct {
	// HTTPClient overrides the client used for the token exchange. Mainly for
	// tests that stub or count token endpoint calls.
	HTTPClient *http.Client
}

// NewSSOAuthenticator constructs an EVE SSO authenticator with default settings.
func NewSSOAuthenticator() *SSOAuthenticator {
	return &SSOAuthenticator{}
}

func (a *SSOAuthenticator) Provider() string {
	return "evesso"
}

// Login runs one authorization attempt end to end: generate PKCE material and
// state, build the authorization URL, obtain the redirect via the selected
// callback source, validate state, and exchange the code for tokens. The
// returned tokens belong to the caller; nothing is persisted. Failures are
// never retried here since authorization codes and verifiers are single-use.
func (a *SSOAuthenticator) Login(ctx context.Context, cfg *config.Config, opts *LoginOptions) (*evesso.TokenResponse, error) {
	if cfg == nil {
		return nil, fmt.Errorf("evesso auth: configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("evesso auth: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts == nil {
		opts = &LoginOptions{}
	}

	attemptID := uuid.NewString()
	flowLog := log.WithField("attempt_id", attemptID[:8])

	if opts.CallbackPort > 0 {
		overridden, err := overrideRedirectPort(cfg, opts.CallbackPort)
		if err != nil {
			return nil, err
		}
		cfg = overridden
	}

	pkceCodes, err := evesso.GeneratePKCECodes(evesso.DefaultVerifierBytes)
	if err != nil {
		return nil, fmt.Errorf("evesso pkce generation failed: %w", err)
	}

	// Fresh state per attempt; it is carried explicitly to the validation
	// step below rather than held in any shared place.
	state, err := misc.GenerateRandomState()
	if err != nil {
		return nil, fmt.Errorf("evesso state generation failed: %w", err)
	}

	authSvc := evesso.NewSSOAuth(cfg)
	if a.HTTPClient != nil {
		authSvc.SetHTTPClient(a.HTTPClient)
	}

	authURL, err := authSvc.GenerateAuthURL(state, pkceCodes)
	if err != nil {
		return nil, fmt.Errorf("evesso authorization url generation failed: %w", err)
	}

	source := opts.Source
	if source == nil {
		if opts.Manual {
			source = NewPromptSource(opts.Prompt)
		} else {
			source = NewListenerSource(authSvc.RedirectURI(), cfg.CallbackTimeout(), opts.NoBrowser || cfg.NoBrowser)
		}
	}

	flowLog.Debug("awaiting SSO callback")
	redirectURL, err := source.AwaitCallback(ctx, authURL)
	if err != nil {
		return nil, err
	}

	callback, err := misc.ParseOAuthCallback(redirectURL)
	if err != nil {
		return nil, evesso.NewAuthenticationError(evesso.ErrMalformedCallback, err)
	}
	if callback == nil {
		return nil, evesso.NewAuthenticationError(evesso.ErrMalformedCallback, fmt.Errorf("empty callback URL"))
	}

	if callback.Error != "" {
		flowLog.Errorf("SSO returned error: %s", callback.Error)
		cause := fmt.Errorf("%s", callback.Error)
		if callback.ErrorDescription != "" {
			cause = fmt.Errorf("%s: %s", callback.Error, callback.ErrorDescription)
		}
		return nil, evesso.NewAuthenticationError(evesso.ErrAccessDenied, cause)
	}

	// A forged or replayed callback must never reach the token exchange.
	if callback.State != state {
		flowLog.Errorf("state mismatch: expected %s, got %s", state, callback.State)
		return nil, evesso.NewAuthenticationError(evesso.ErrStateMismatch, fmt.Errorf("state mismatch"))
	}

	flowLog.Debug("authorization code received; exchanging for tokens")

	token, err := authSvc.ExchangeCodeForTokens(ctx, callback.Code, pkceCodes)
	if err != nil {
		if evesso.IsTokenExchangeError(err) {
			return nil, err
		}
		return nil, evesso.NewAuthenticationError(evesso.ErrCodeExchangeFailed, err)
	}

	flowLog.Info("SSO login complete")
	return token, nil
}

// overrideRedirectPort returns a copy of cfg whose redirect URI carries the
// given port, so a -callback-port flag adjusts both the listener and the URI
// advertised to the SSO.
func overrideRedirectPort(cfg *config.Config, port int) (*config.Config, error) {
	clone := *cfg
	redirectURI := clone.RedirectURI
	if redirectURI == "" {
		redirectURI = evesso.DefaultRedirectURI
	}
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}
	parsed.Host = parsed.Hostname() + ":" + strconv.Itoa(port)
	clone.RedirectURI = parsed.String()
	return &clone, nil
}
