// Package main provides the entry point for the evesso CLI, a tool that
// performs the OAuth2 authorization code flow with PKCE against the EVE
// Online SSO and prints the resulting token document to stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mobiusxs/evesso/internal/auth/evesso"
	"github.com/mobiusxs/evesso/internal/buildinfo"
	"github.com/mobiusxs/evesso/internal/config"
	"github.com/mobiusxs/evesso/internal/logging"
	sdkauth "github.com/mobiusxs/evesso/sdk/auth"
	log "github.com/sirupsen/logrus"
)

var (
	Version           = "dev"
	Commit            = "none"
	BuildDate         = "unknown"
	DefaultConfigPath = "config.yaml"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

// main parses command-line flags, loads configuration, and runs one SSO login
// attempt. The token JSON is the only thing written to stdout so the output
// can be piped; everything else goes to the log.
func main() {
	var clientID string
	var scope string
	var redirectURI string
	var manual bool
	var noBrowser bool
	var callbackPort int
	var configPath string
	var debug bool
	var showVersion bool

	flag.StringVar(&configPath, "config", DefaultConfigPath, "Configuration file path")
	flag.StringVar(&clientID, "client-id", "", "SSO application client ID")
	flag.StringVar(&scope, "scope", "", "Space-delimited ESI scopes to request")
	flag.StringVar(&redirectURI, "redirect-uri", "", "Registered callback URL")
	flag.BoolVar(&manual, "manual", false, "Print the authorization URL and paste the callback URL by hand instead of running a local listener")
	flag.BoolVar(&noBrowser, "no-browser", false, "Don't open the browser automatically")
	flag.IntVar(&callbackPort, "callback-port", 0, "Override the callback listener port")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("evesso Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
		return
	}

	// Load .env before the config so EVESSO_* variables can fill in secrets.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Debugf("no .env loaded: %v", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Flags win over file and environment values.
	if clientID != "" {
		cfg.ClientID = clientID
	}
	if scope != "" {
		cfg.Scope = scope
	}
	if redirectURI != "" {
		cfg.RedirectURI = redirectURI
	}
	if debug {
		cfg.Debug = true
	}
	if noBrowser {
		cfg.NoBrowser = true
	}

	if err = logging.ConfigureLogOutput(cfg); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	authenticator := sdkauth.NewSSOAuthenticator()
	token, err := authenticator.Login(ctx, cfg, &sdkauth.LoginOptions{
		Manual:       manual,
		NoBrowser:    noBrowser,
		CallbackPort: callbackPort,
	})
	if err != nil {
		log.Errorf("login failed: %v", err)
		os.Exit(exitCode(err))
	}

	// The raw SSO response is the tool's output; storing or refreshing the
	// tokens is up to the caller.
	fmt.Println(string(token.Raw()))
}

// exitCode maps typed authentication failures to process exit codes.
func exitCode(err error) int {
	var authErr *evesso.AuthenticationError
	if errors.As(err, &authErr) && authErr.Type == evesso.ErrPortInUse.Type {
		return evesso.ErrPortInUse.Code
	}
	return 1
}
