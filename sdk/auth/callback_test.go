package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestPromptSourceReturnsPastedURL(t *testing.T) {
	source := NewPromptSource(func(prompt string) (string, error) {
		if !strings.Contains(prompt, "paste") {
			t.Errorf("prompt = %q, want paste instructions", prompt)
		}
		return "  https://localhost/callback/?code=XYZ&state=s \n", nil
	})

	got, err := source.AwaitCallback(context.Background(), "https://sso.example/authorize?state=s")
	if err != nil {
		t.Fatalf("AwaitCallback failed: %v", err)
	}
	if got != "https://localhost/callback/?code=XYZ&state=s" {
		t.Errorf("AwaitCallback = %q", got)
	}
}

func TestPromptSourcePropagatesReadError(t *testing.T) {
	source := NewPromptSource(func(string) (string, error) {
		return "", fmt.Errorf("stdin closed")
	})

	if _, err := source.AwaitCallback(context.Background(), "https://sso.example/authorize"); err == nil {
		t.Fatal("expected error from failed prompt")
	}
}
