package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/assetdesk/assetdesk/internal/api"
	"github.com/assetdesk/assetdesk/internal/config"
	"github.com/assetdesk/assetdesk/internal/db"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/service"
	"github.com/assetdesk/assetdesk/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Auto-generate JWT secret if not provided.
	if cfg.JWTSecret == "" {
		secret, err := generatePassword(32)
		if err != nil {
			slog.Error("failed to generate JWT secret", "error", err)
			os.Exit(1)
		}
		cfg.JWTSecret = secret
		slog.Warn("JWT secret auto-generated, tokens will be invalidated on restart")
	}

	dbs, err := db.OpenRegistry(cfg.Tenants)
	if err != nil {
		slog.Error("failed to open tenant databases", "error", err)
		os.Exit(1)
	}
	defer dbs.Close()

	for _, selector := range dbs.Selectors() {
		handle, _ := dbs.Get(selector)
		if err := ensureAdmin(handle, selector); err != nil {
			slog.Error("failed to ensure admin account", "tenant", selector, "error", err)
			os.Exit(1)
		}
	}

	var mailer service.Mailer = service.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = &service.SMTPMailer{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			From: cfg.SMTPFrom,
		}
		slog.Info("using SMTP mailer", "host", cfg.SMTPHost)
	} else {
		slog.Info("no SMTP_HOST configured, emails are logged instead")
	}

	assignments := &service.Assignments{
		DBs:     dbs,
		Mailer:  mailer,
		Secret:  cfg.JWTSecret,
		TTL:     cfg.TokenTTL,
		BaseURL: cfg.BaseURL,
	}
	acceptance := &service.Acceptance{
		DBs:     dbs,
		Mailer:  mailer,
		Secret:  cfg.JWTSecret,
		BaseURL: cfg.BaseURL,
	}
	reaper := &service.Reaper{DBs: dbs, Interval: cfg.ReaperInterval}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reaper.Start(ctx)

	handler := api.LoggingMiddleware(api.NewRouter(dbs, cfg.JWTSecret, assignments, acceptance))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "tenants", dbs.Selectors())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// ensureAdmin creates the initial admin account on a fresh tenant
// database and prints its generated password once.
func ensureAdmin(database *sql.DB, selector string) error {
	existing, err := store.GetUserByUsername(context.Background(), database, "admin")
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	password, err := generatePassword(16)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if _, err := store.CreateUser(context.Background(), database, "admin", string(hash), model.RoleAdmin); err != nil {
		return err
	}

	fmt.Printf("Admin account created for tenant %q:\n", selector)
	fmt.Printf("  Username: admin\n")
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password — it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
	return nil
}

// generatePassword creates a random alphanumeric string.
func generatePassword(length int) (string, error) {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		result[i] = chars[n.Int64()]
	}
	return string(result), nil
}
