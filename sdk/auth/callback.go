package auth

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mobiusxs/evesso/internal/auth/evesso"
	"github.com/mobiusxs/evesso/internal/browser"
	"github.com/mobiusxs/evesso/internal/util"
	log "github.com/sirupsen/logrus"
)

// promptSource implements the interactive callback variant: the user opens
// the authorization URL themselves and pastes the redirect URL back.
type promptSource struct {
	prompt PromptFunc
}

// NewPromptSource creates the interactive callback source. A nil prompt reads
// from stdin.
func NewPromptSource(prompt PromptFunc) CallbackSource {
	if prompt == nil {
		prompt = stdinPrompt
	}
	return &promptSource{prompt: prompt}
}

func (s *promptSource) AwaitCallback(ctx context.Context, authURL string) (string, error) {
	fmt.Printf("Open this url in a web browser:\n\n%s\n\n", authURL)
	input, err := s.prompt("Copy the callback URL from your web browser and paste it here, then press enter:\n")
	if err != nil {
		return "", fmt.Errorf("failed to read callback URL: %w", err)
	}
	if err = ctx.Err(); err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// stdinPrompt is the default PromptFunc, reading one line from stdin.
func stdinPrompt(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// listenerSource implements the automated callback variant: it runs the local
// callback server, opens the system browser at the authorization URL, and
// blocks until the SSO redirect arrives.
type listenerSource struct {
	redirectURI string
	timeout     time.Duration
	noBrowser   bool
}

// NewListenerSource creates the automated callback source. The server binds
// the host and port of redirectURI; timeout bounds the wait, with zero or
// less waiting indefinitely.
func NewListenerSource(redirectURI string, timeout time.Duration, noBrowser bool) CallbackSource {
	return &listenerSource{
		redirectURI: redirectURI,
		timeout:     timeout,
		noBrowser:   noBrowser,
	}
}

func (s *listenerSource) AwaitCallback(ctx context.Context, authURL string) (string, error) {
	server, err := evesso.NewCallbackServer(s.redirectURI)
	if err != nil {
		return "", evesso.NewAuthenticationError(evesso.ErrServerStartFailed, err)
	}
	if err = server.Start(); err != nil {
		if strings.Contains(err.Error(), "in use") {
			return "", evesso.NewAuthenticationError(evesso.ErrPortInUse, err)
		}
		return "", evesso.NewAuthenticationError(evesso.ErrServerStartFailed, err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if stopErr := server.Stop(stopCtx); stopErr != nil {
			log.Warnf("callback server stop error: %v", stopErr)
		}
	}()

	port := server.Port()

	if s.noBrowser {
		util.PrintSSHTunnelInstructions(port)
		fmt.Printf("Visit the following URL to continue authorization:\n%s\n", authURL)
	} else if !browser.IsAvailable() {
		log.Warn("no browser available; please open the URL manually")
		util.PrintSSHTunnelInstructions(port)
		fmt.Printf("Visit the following URL to continue authorization:\n%s\n", authURL)
	} else if err = browser.OpenURL(authURL); err != nil {
		log.Warnf("failed to open browser automatically: %v", err)
		util.PrintSSHTunnelInstructions(port)
		fmt.Printf("Visit the following URL to continue authorization:\n%s\n", authURL)
	}

	fmt.Println("Waiting for SSO callback...")
	return server.WaitForCallback(ctx, s.timeout)
}
