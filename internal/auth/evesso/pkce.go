// Package evesso implements the OAuth2 authorization code flow with PKCE
// (Proof Key for Code Exchange) against the EVE Online SSO. It covers PKCE
// material generation, authorization URL construction, the local callback
// server, and the authorization-code token exchange.
package evesso

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// DefaultVerifierBytes is the number of random bytes backing a code verifier.
// RFC 7636 recommends at least 256 bits of entropy; 32 bytes is the floor.
const DefaultVerifierBytes = 32

// PKCECodes holds a code verifier and its derived challenge for one
// authorization attempt. The verifier is secret and must never be logged;
// it is sent verbatim to the token endpoint during the code exchange.
type PKCECodes struct {
	// CodeVerifier is the URL-safe base64 encoding of the random bytes,
	// padding included. The SSO re-derives the challenge from exactly this
	// string, so the padding must not be stripped here.
	CodeVerifier string
	// CodeChallenge is the S256 challenge sent in the authorization request.
	CodeChallenge string
}

// GeneratePKCECodes generates a verifier/challenge pair per RFC 7636 using
// the S256 method. lengthBytes is the entropy of the verifier in raw bytes
// and must be at least DefaultVerifierBytes.
func GeneratePKCECodes(lengthBytes int) (*PKCECodes, error) {
	codeVerifier, err := generateCodeVerifier(lengthBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	return &PKCECodes{
		CodeVerifier:  codeVerifier,
		CodeChallenge: generateCodeChallenge(codeVerifier),
	}, nil
}

// generateCodeVerifier creates a cryptographically random verifier string.
// The raw bytes are encoded with standard URL-safe base64, keeping the
// trailing padding characters.
func generateCodeVerifier(lengthBytes int) (string, error) {
	if lengthBytes < DefaultVerifierBytes {
		return "", fmt.Errorf("verifier length %d below %d byte minimum", lengthBytes, DefaultVerifierBytes)
	}

	bytes := make([]byte, lengthBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return base64.URLEncoding.EncodeToString(bytes), nil
}

// generateCodeChallenge derives the S256 challenge: SHA-256 over the encoded
// verifier string, URL-safe base64 with the padding stripped. Unlike the
// verifier, the challenge never carries padding.
func generateCodeChallenge(codeVerifier string) string {
	hash := sha256.Sum256([]byte(codeVerifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
