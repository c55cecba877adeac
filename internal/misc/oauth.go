// Package misc provides small OAuth helpers shared by the login flow:
// anti-forgery state generation and callback URL parsing.
package misc

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// GenerateRandomState generates a cryptographically secure random state
// parameter for one authorization attempt, used to reject forged callbacks.
//
// Returns:
//   - string: A hexadecimal encoded random state string
//   - error: An error if the random generation fails, nil otherwise
func GenerateRandomState() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// OAuthCallback captures the parsed OAuth callback parameters. Params holds
// the complete query mapping with duplicate parameters preserved; the named
// fields are the first value of each well-known parameter.
type OAuthCallback struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
	Params           url.Values
}

// ParseCallbackParams parses the query component of a callback URL into a
// mapping from parameter name to all of its values. Conformant parsing must
// not drop duplicates; the SSO is free to repeat parameters.
func ParseCallbackParams(rawURL string) (url.Values, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("unparseable callback URL: %w", err)
	}
	params, err := url.ParseQuery(parsed.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("unparseable callback query: %w", err)
	}
	return params, nil
}

// ParseOAuthCallback extracts OAuth parameters from a callback URL. The input
// may be a full redirect URL from the local listener or whatever the user
// pasted at the prompt; scheme-less URLs and bare query strings are
// normalized before parsing. It returns nil when the input is empty.
func ParseOAuthCallback(input string) (*OAuthCallback, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, nil
	}

	candidate := trimmed
	if !strings.Contains(candidate, "://") {
		if strings.HasPrefix(candidate, "?") {
			candidate = "http://localhost" + candidate
		} else if strings.ContainsAny(candidate, "/?#") || strings.Contains(candidate, ":") {
			candidate = "http://" + candidate
		} else if strings.Contains(candidate, "=") {
			candidate = "http://localhost/?" + candidate
		} else {
			return nil, fmt.Errorf("invalid callback URL")
		}
	}

	params, err := ParseCallbackParams(candidate)
	if err != nil {
		return nil, err
	}

	cb := &OAuthCallback{
		Code:             strings.TrimSpace(params.Get("code")),
		State:            strings.TrimSpace(params.Get("state")),
		Error:            strings.TrimSpace(params.Get("error")),
		ErrorDescription: strings.TrimSpace(params.Get("error_description")),
		Params:           params,
	}

	if cb.Code == "" && cb.Error == "" {
		return nil, fmt.Errorf("callback URL missing code")
	}
	if cb.Error == "" && cb.State == "" {
		return nil, fmt.Errorf("callback URL missing state")
	}

	return cb, nil
}
