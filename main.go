package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/listgen/auth"
	"github.com/danielhkuo/listgen/cliparse"
	"github.com/danielhkuo/listgen/db"
	"github.com/danielhkuo/listgen/handlers"
	"github.com/danielhkuo/listgen/listing"
	"github.com/danielhkuo/listgen/logging"
	"github.com/danielhkuo/listgen/middleware"
	"github.com/danielhkuo/listgen/router"
	"github.com/danielhkuo/listgen/session"
)

func main() {
	var err error

	// .env values fill in whatever the environment leaves unset
	if err := cliparse.LoadDotEnv(".env"); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Helper mode for building a users file
	if cfg.HashPassword {
		hash, err := auth.HashFromReader(os.Stdin)
		if err != nil {
			slog.Error("Error hashing password", "error", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	if _, err := logging.Setup(cfg.LogLevel, cfg.JSONLogs(), os.Stderr); err != nil {
		slog.Error("Error configuring logging", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Pick the state backend
	var store session.Persister
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
		if err != nil {
			slog.Error("database setup failed", "error", err)
			os.Exit(1)
		}
		defer dbConn.Close()
		store = db.NewStateStore(dbConn, cfg.DatabaseType)
		slog.Info("Session state in database", "type", cfg.DatabaseType)
	} else {
		fileStore := session.NewFileStore(cfg.StateFile)
		store = fileStore
		slog.Info("Session state in file", "path", fileStore.Path())
	}

	// Credentials: hashed users file, or the demo allow-list
	var creds auth.CredentialProvider = auth.DefaultCredentials()
	if cfg.UsersFile != "" {
		hashed, err := auth.LoadHashedCredentials(cfg.UsersFile)
		if err != nil {
			slog.Error("failed to load users file", "error", err)
			os.Exit(1)
		}
		creds = hashed
		slog.Info("Loaded users", "count", len(hashed))
	} else {
		slog.Warn("Using demo credentials; set -users for real accounts")
	}

	// Restore state; an unreadable store is only a warning
	sessions := session.NewManager(store)
	state, err := sessions.Load(ctx)
	if err != nil {
		slog.Warn("Starting with empty session state", "error", err)
	}

	if !cfg.APIConfigured() {
		slog.Warn("Analysis service URL is not configured", "hint", "set LLAVA_API_URL or -api")
	}
	client := listing.NewClient(cfg.APIURL, cfg.APITimeout)
	defer client.Close()

	// Create router
	mux := router.NewRouter(handlers.Services{
		Sessions:    sessions,
		State:       session.NewHolder(state),
		Credentials: creds,
		Analyzer:    client,
	}, cfg)

	// Create server
	server := http.Server{
		Handler:           middleware.Recover(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		// Let in-flight analysis calls finish
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout+5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "api", client.Endpoint())
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
