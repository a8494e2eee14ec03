package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Al-aminI/memsient-go/api"
	"github.com/Al-aminI/memsient-go/session"
	"github.com/Al-aminI/memsient-go/session/store/file"
)

var baseURLFlag string

var rootCmd = &cobra.Command{
	Use:   "memsient",
	Short: "Terminal dashboard for the Memsient memory platform.",
	Long: `memsient manages your Memsient account and knowledge-graph memories
from the command line: log in, create memories, ingest text, run
natural-language queries, and handle API keys and billing without
opening the web dashboard.

Start with 'memsient register' or 'memsient login'.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "backend origin (overrides config file and MEMSIENT_API_URL)")
}

// apiBase resolves the backend origin: flag, then environment, then
// config file, then the SDK default.
func apiBase() string {
	if baseURLFlag != "" {
		return baseURLFlag
	}
	if v := os.Getenv("MEMSIENT_API_URL"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil && cfg.APIBaseURL != "" {
		return cfg.APIBaseURL
	}
	return api.DefaultBaseURL
}

func newClient() *api.Client {
	return api.New(apiBase(),
		api.WithUserAgent("memsient-cli"),
		api.WithPlanCache(5*time.Minute),
	)
}

// tokenStore returns the durable file store, degrading to no
// persistence when the environment has no config directory.
func tokenStore() session.TokenStore {
	store, err := file.Default()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Warning: no durable storage; session will not survive this process")
		return session.NoStore{}
	}
	return store
}

func newSession(client *api.Client) *session.Session {
	return session.New(client, tokenStore())
}

// restoredSession builds a client plus session and restores any
// persisted login.
func restoredSession(ctx context.Context) (*session.Session, *api.Client) {
	client := newClient()
	sess := newSession(client)
	sess.Refresh(ctx)
	return sess, client
}

// requireUser restores the session and fails when nobody is logged
// in.
func requireUser(ctx context.Context) (*session.Session, *api.Client, *api.User, error) {
	sess, client := restoredSession(ctx)
	snapshot := sess.Snapshot()
	if !snapshot.IsAuthenticated() {
		return nil, nil, nil, errors.New("not logged in; run 'memsient login' first")
	}
	return sess, client, snapshot.User, nil
}

// promptLine reads one line from stdin after printing label.
func promptLine(label string) (string, error) {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
