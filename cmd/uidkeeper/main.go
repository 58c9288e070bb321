// ABOUTME: Entry point for the uidkeeper Matrix bot
// ABOUTME: Wires config, store, resolver, ingestion, and the bridge together

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"

	"github.com/ndhuy/uidkeeper/internal/auth"
	"github.com/ndhuy/uidkeeper/internal/bot"
	"github.com/ndhuy/uidkeeper/internal/config"
	"github.com/ndhuy/uidkeeper/internal/ingest"
	"github.com/ndhuy/uidkeeper/internal/resolver"
	"github.com/ndhuy/uidkeeper/internal/store"
)

const banner = `
    ╭────────────────────────────────╮
    │                                │
    │   ╻ ╻╻╺┳┓╻┏ ┏━╸┏━╸┏━┓┏━╸┏━┓   │
    │   ┃ ┃┃ ┃┃┣┻┓┣╸ ┣╸ ┣━┛┣╸ ┣┳┛   │
    │   ┗━┛╹╺┻┛╹ ╹┗━╸┗━╸╹  ┗━╸╹┗╸   │
    │                                │
    │        uidkeeper bot           │
    │                                │
    ╰────────────────────────────────╯
`

// getConfigPath returns the path to the bot config file.
// Priority: UIDKEEPER_CONFIG env var > XDG_CONFIG_HOME/uidkeeper/config.yaml > ~/.config/uidkeeper/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("UIDKEEPER_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "uidkeeper", "config.yaml")
}

// getDataPath returns the path to the uidkeeper data directory.
// Priority: XDG_DATA_HOME/uidkeeper > ~/.local/share/uidkeeper
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "uidkeeper")
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "init" {
		if err := runInit(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	configPath := getConfigPath()
	dataPath := getDataPath()

	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config from %s: %w", configPath, err)
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:     %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Homeserver: %s\n", cfg.Matrix.Homeserver)
	green.Print("    ▶ ")
	fmt.Printf("User:       %s\n", cfg.Matrix.UserID)
	green.Print("    ▶ ")
	fmt.Printf("Database:   %s\n", cfg.Database.Path)
	if cfg.Matrix.RecoveryKey != "" {
		green.Print("    ▶ ")
		fmt.Println("Encryption: enabled")
	}
	if cfg.Resolver.AccessToken != "" {
		green.Print("    ▶ ")
		fmt.Println("Resolver:   enabled")
	}
	fmt.Println()

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	res := resolver.New(cfg.Resolver.BaseURL, cfg.Resolver.AccessToken, cfg.Resolver.Timeout)
	pipeline := ingest.New(st, res, cfg.Bot.ProfileDomains)
	policy := auth.NewPolicy(cfg.Auth.Admins)
	handler := bot.NewHandler(st, res, pipeline, policy, cfg.Bot.CommandPrefix, cfg.Bot.SaveTimeout)

	bridge, err := bot.NewBridge(&cfg.Matrix, handler, logger)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	ctx := context.Background()
	cryptoMgr, err := setupCrypto(ctx, bridge.Client(), cfg.Matrix.UserID, cfg.Matrix.RecoveryKey, dataPath, logger)
	if err != nil {
		return fmt.Errorf("setting up encryption: %w", err)
	}
	if cryptoMgr != nil {
		defer cryptoMgr.Close()
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting uidkeeper", "admins", len(cfg.Auth.Admins))
	return bridge.Run(ctx)
}

const starterConfig = `matrix:
  homeserver: https://matrix.example.org
  user_id: "@uidkeeper:example.org"
  access_token: "${UIDKEEPER_MATRIX_TOKEN}"
  # recovery_key: ""        # enable E2EE by setting the account recovery key
  # allowed_rooms:          # empty means all joined rooms
  #   - "!room:example.org"

resolver:
  # access_token: "${UIDKEEPER_GRAPH_TOKEN}"
  timeout: 10s

database:
  path: uidkeeper.db

auth:
  admins:
    - "@admin:example.org"

bot:
  command_prefix: "!"
  profile_domains:
    - facebook.com
  save_timeout: 5m

logging:
  level: info
  format: text
`

// runInit writes a starter config file, refusing to overwrite one.
func runInit() error {
	path := getConfigPath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Wrote starter config to %s\n", path)
	fmt.Println("    Edit it with your homeserver credentials, then run uidkeeper.")
	return nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
