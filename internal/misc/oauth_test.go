package misc

import (
	"reflect"
	"testing"
)

func TestGenerateRandomState(t *testing.T) {
	first, err := GenerateRandomState()
	if err != nil {
		t.Fatalf("GenerateRandomState failed: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("state length = %d, want 64 hex characters", len(first))
	}
	second, err := GenerateRandomState()
	if err != nil {
		t.Fatalf("GenerateRandomState failed: %v", err)
	}
	if first == second {
		t.Error("consecutive states are identical")
	}
}

func TestParseCallbackParams(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string][]string
		wantErr bool
	}{
		{
			"Code and state",
			"https://x/cb?code=abc&state=secret",
			map[string][]string{"code": {"abc"}, "state": {"secret"}},
			false,
		},
		{
			"Duplicate parameters preserved",
			"https://x/cb?code=a&code=b",
			map[string][]string{"code": {"a", "b"}},
			false,
		},
		{
			"Empty query",
			"https://x/cb",
			map[string][]string{},
			false,
		},
		{
			"Invalid URL",
			"://missing-scheme",
			nil,
			true,
		},
		{
			"Invalid percent encoding",
			"https://x/cb?code=%zz",
			nil,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCallbackParams(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCallbackParams(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCallbackParams(%q) failed: %v", tt.input, err)
			}
			if !reflect.DeepEqual(map[string][]string(got), tt.want) {
				t.Errorf("ParseCallbackParams(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseOAuthCallback(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCode  string
		wantState string
		wantError string
		wantNil   bool
		wantErr   bool
	}{
		{name: "Full URL", input: "https://localhost/callback/?code=XYZ&state=secret", wantCode: "XYZ", wantState: "secret"},
		{name: "Scheme-less", input: "localhost/callback/?code=XYZ&state=secret", wantCode: "XYZ", wantState: "secret"},
		{name: "Bare query with question mark", input: "?code=XYZ&state=secret", wantCode: "XYZ", wantState: "secret"},
		{name: "Bare key value pairs", input: "code=XYZ&state=secret", wantCode: "XYZ", wantState: "secret"},
		{name: "Surrounding whitespace", input: "  https://localhost/callback/?code=XYZ&state=secret \n", wantCode: "XYZ", wantState: "secret"},
		{name: "SSO error", input: "https://localhost/callback/?error=access_denied&error_description=declined", wantError: "access_denied"},
		{name: "Empty input", input: "   ", wantNil: true},
		{name: "Missing code", input: "https://localhost/callback/?state=secret", wantErr: true},
		{name: "Missing state", input: "https://localhost/callback/?code=XYZ", wantErr: true},
		{name: "Not a URL", input: "gibberish", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOAuthCallback(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseOAuthCallback(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOAuthCallback(%q) failed: %v", tt.input, err)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("ParseOAuthCallback(%q) = %+v, want nil", tt.input, got)
				}
				return
			}
			if got.Code != tt.wantCode || got.State != tt.wantState || got.Error != tt.wantError {
				t.Errorf("ParseOAuthCallback(%q) = %+v", tt.input, got)
			}
		})
	}
}
