package evesso

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// AuthenticationError represents a failure of the login flow itself, as
// opposed to an error response from the SSO token endpoint.
type AuthenticationError struct {
	// Type is a stable machine-readable identifier for the failure.
	Type string `json:"type"`
	// Message is a human-readable description of the failure.
	Message string `json:"message"`
	// Code is the HTTP status code (or exit code) associated with the failure.
	Code int `json:"code"`
	// Cause is the underlying error, when one exists.
	Cause error `json:"-"`
}

// Error returns a string representation of the authentication error.
func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// Base authentication error values. Use NewAuthenticationError to attach a
// cause; use IsAuthError to test which base an error derives from.
var (
	// ErrMalformedCallback indicates the callback URL could not be parsed or
	// is missing the code/state parameters.
	ErrMalformedCallback = &AuthenticationError{
		Type:    "malformed_callback",
		Message: "Callback URL is malformed or missing required parameters",
		Code:    http.StatusBadRequest,
	}

	// ErrStateMismatch indicates the anti-forgery state returned by the SSO
	// does not match the one sent with the authorization request. The attempt
	// is forfeit; the authorization code must not be exchanged.
	ErrStateMismatch = &AuthenticationError{
		Type:    "state_mismatch",
		Message: "Did not receive expected state",
		Code:    http.StatusBadRequest,
	}

	// ErrAccessDenied indicates the SSO reported an OAuth error in the
	// callback, typically because the user declined the authorization.
	ErrAccessDenied = &AuthenticationError{
		Type:    "access_denied",
		Message: "Authorization was denied by the SSO",
		Code:    http.StatusForbidden,
	}

	// ErrCodeExchangeFailed indicates the authorization code could not be
	// exchanged for tokens.
	ErrCodeExchangeFailed = &AuthenticationError{
		Type:    "code_exchange_failed",
		Message: "Failed to exchange authorization code for tokens",
		Code:    http.StatusBadRequest,
	}

	// ErrServerStartFailed indicates the local callback server failed to start.
	ErrServerStartFailed = &AuthenticationError{
		Type:    "server_start_failed",
		Message: "Failed to start local callback server",
		Code:    http.StatusInternalServerError,
	}

	// ErrPortInUse indicates the callback port is already bound.
	ErrPortInUse = &AuthenticationError{
		Type:    "port_in_use",
		Message: "Callback port is already in use",
		Code:    13, // Special exit code for port-in-use
	}

	// ErrCallbackTimeout indicates the user never completed the browser flow
	// within the configured wait.
	ErrCallbackTimeout = &AuthenticationError{
		Type:    "callback_timeout",
		Message: "Timeout waiting for authorization callback",
		Code:    http.StatusRequestTimeout,
	}
)

// NewAuthenticationError derives a new error from a base value, attaching the
// underlying cause.
func NewAuthenticationError(baseErr *AuthenticationError, cause error) *AuthenticationError {
	return &AuthenticationError{
		Type:    baseErr.Type,
		Message: baseErr.Message,
		Code:    baseErr.Code,
		Cause:   cause,
	}
}

// IsAuthError reports whether err is an AuthenticationError derived from the
// given base value.
func IsAuthError(err error, baseErr *AuthenticationError) bool {
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		return false
	}
	return authErr.Type == baseErr.Type
}

// TokenExchangeError represents a non-success response from the SSO token
// endpoint. The full response body is retained for diagnosability; codes are
// single-use, so these failures are never retried.
type TokenExchangeError struct {
	// StatusCode is the HTTP status returned by the token endpoint.
	StatusCode int
	// Body is the raw response body.
	Body string
	// ErrorCode is the OAuth error code extracted from the body, if present.
	ErrorCode string
	// Description is the OAuth error_description from the body, if present.
	Description string
}

// Error returns a string representation of the token exchange error.
func (e *TokenExchangeError) Error() string {
	if e.ErrorCode != "" {
		if e.Description != "" {
			return fmt.Sprintf("token exchange failed with status %d: %s: %s", e.StatusCode, e.ErrorCode, e.Description)
		}
		return fmt.Sprintf("token exchange failed with status %d: %s", e.StatusCode, e.ErrorCode)
	}
	return fmt.Sprintf("token exchange failed with status %d: %s", e.StatusCode, e.Body)
}

// NewTokenExchangeError builds a TokenExchangeError from a token endpoint
// response, pulling the standard OAuth error fields out of the body when the
// body is JSON.
func NewTokenExchangeError(statusCode int, body []byte) *TokenExchangeError {
	e := &TokenExchangeError{
		StatusCode: statusCode,
		Body:       string(body),
	}
	if gjson.ValidBytes(body) {
		e.ErrorCode = gjson.GetBytes(body, "error").String()
		e.Description = gjson.GetBytes(body, "error_description").String()
	}
	return e
}

// IsTokenExchangeError checks if an error is a token exchange error.
func IsTokenExchangeError(err error) bool {
	var exchangeErr *TokenExchangeError
	return errors.As(err, &exchangeErr)
}
