// Package auth orchestrates the EVE SSO login flow: it wires PKCE material,
// the authorization URL, callback acquisition, state validation, and the
// token exchange into a single Login call.
package auth

import (
	"context"

	"github.com/mobiusxs/evesso/internal/auth/evesso"
	"github.com/mobiusxs/evesso/internal/config"
)

// PromptFunc reads one line of user input after displaying a prompt.
type PromptFunc func(prompt string) (string, error)

// LoginOptions captures generic knobs shared across login invocations.
type LoginOptions struct {
	// Manual selects the interactive flow: the authorization URL is printed
	// for the user to open, and the callback URL is pasted back at a prompt.
	// No local listener is started.
	Manual bool
	// NoBrowser keeps the automated flow from opening the system browser;
	// the URL is printed instead and the local listener still runs.
	NoBrowser bool
	// CallbackPort overrides the port of the configured redirect URI.
	CallbackPort int
	// Prompt supplies user input for the manual flow. Defaults to stdin.
	Prompt PromptFunc
	// Source overrides callback acquisition entirely. Mainly for tests and
	// embedders that already have a redirect URL delivery mechanism.
	Source CallbackSource
}

// CallbackSource is a strategy for obtaining the SSO redirect. Implementations
// present authURL to the user in whatever way suits them, then block until one
// full redirect URL is available and return it as a string; downstream
// handling is identical regardless of which variant produced it.
type CallbackSource interface {
	AwaitCallback(ctx context.Context, authURL string) (string, error)
}

// Authenticator manages the login flow for a provider.
type Authenticator interface {
	Provider() string
	Login(ctx context.Context, cfg *config.Config, opts *LoginOptions) (*evesso.TokenResponse, error)
}
