package evesso

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// TokenResponse is the parsed result of a successful token exchange. The
// well-known fields are surfaced as typed accessors while the body is kept
// verbatim so callers can treat the response as an opaque document. Ownership
// passes to the caller; nothing here persists or refreshes tokens.
type TokenResponse struct {
	// AccessToken is the bearer token issued by the SSO.
	AccessToken string `json:"access_token"`
	// RefreshToken can be used by the caller to obtain new access tokens.
	RefreshToken string `json:"refresh_token"`
	// TokenType is the token type, normally "Bearer".
	TokenType string `json:"token_type"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`

	raw []byte
}

// parseTokenResponse decodes a token endpoint response body.
func parseTokenResponse(body []byte) (*TokenResponse, error) {
	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	token.raw = body
	return &token, nil
}

// Raw returns the verbatim token endpoint response body.
func (t *TokenResponse) Raw() []byte {
	return t.raw
}

// Get extracts an arbitrary field from the response body by gjson path,
// for provider fields this package does not interpret.
func (t *TokenResponse) Get(path string) gjson.Result {
	return gjson.GetBytes(t.raw, path)
}

// Map returns the response as a generic mapping of claim name to value.
func (t *TokenResponse) Map() map[string]any {
	parsed := gjson.ParseBytes(t.raw)
	if m, ok := parsed.Value().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
