// Package main runs the bizhub server and its operator commands.
//
//	bizhub serve   [-config file] [-env file]
//	bizhub migrate [-config file] [-env file]
//	bizhub token   -user ID -tenant ID [-role role] [-ttl 12h]
//	bizhub audit   -url http://host:8080 -token JWT [-limit 50]
//	bizhub stock   -url http://host:8080 -token JWT -product ID -delta N [-reason text]
//	bizhub completion bash|zsh|fish
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/R3E-Network/bizhub/internal/app"
	"github.com/R3E-Network/bizhub/internal/app/audit"
	"github.com/R3E-Network/bizhub/internal/app/domain/inventory"
	"github.com/R3E-Network/bizhub/internal/cli"
	"github.com/R3E-Network/bizhub/internal/config"
	"github.com/R3E-Network/bizhub/internal/httputil"
	"github.com/R3E-Network/bizhub/internal/logging"
	"github.com/R3E-Network/bizhub/internal/middleware"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "bizhub:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	cmd := "serve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "serve":
		return serve(args)
	case "migrate":
		return migrate(args)
	case "token":
		return token(args, stdout)
	case "audit":
		return auditTail(args, stdout)
	case "stock":
		return adjustStock(args, stdout)
	case "completion":
		if len(args) != 1 {
			return errors.New("usage: bizhub completion bash|zsh|fish")
		}
		return cli.GenerateCompletion(stdout, args[0])
	default:
		return fmt.Errorf("unknown command %q (serve, migrate, token, audit, stock, completion)", cmd)
	}
}

// loadConfig parses the shared -config and -env flags.
func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, error) {
	path := fs.String("config", os.Getenv("BIZHUB_CONFIG"), "Path to YAML config file")
	envFile := fs.String("env", ".env", "Path to .env file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return config.Load(*path, *envFile)
}

func serve(args []string) error {
	cfg, err := loadConfig(flag.NewFlagSet("serve", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	log := logging.New("bizhub", cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           application.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case serveErr = <-errCh:
		log.WithError(serveErr).Error("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application stop")
	}
	return serveErr
}

func migrate(args []string) error {
	cfg, err := loadConfig(flag.NewFlagSet("migrate", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	if !cfg.UsePostgres() {
		return errors.New("migrate requires database.dsn")
	}
	log := logging.New("bizhub", cfg.Logging.Level, cfg.Logging.Format)

	cfg.Database.AutoMigrate = true
	db, err := app.OpenDatabase(context.Background(), cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("migrations applied")
	return nil
}

func token(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	secret := fs.String("secret", os.Getenv("BIZHUB_AUTH_SECRET"), "HMAC signing secret")
	user := fs.Int64("user", 0, "User id")
	tenantID := fs.Int64("tenant", 0, "Tenant id")
	role := fs.String("role", "member", "Role claim")
	ttl := fs.Duration("ttl", 12*time.Hour, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(*secret) < 32 {
		return errors.New("secret must be at least 32 bytes")
	}
	if *user == 0 {
		return errors.New("-user is required")
	}

	signed, err := middleware.SignToken([]byte(*secret), *user, *tenantID, *role, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, signed)
	return err
}

// auditTail prints the caller's recent audit entries from a running server.
func auditTail(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	baseURL := fs.String("url", "http://localhost:8080", "Server base URL")
	tok := fs.String("token", os.Getenv("BIZHUB_TOKEN"), "Bearer token")
	limit := fs.Int("limit", 50, "Number of entries")
	timeout := fs.Duration("timeout", 10*time.Second, "Request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := httputil.NewClient(httputil.ClientConfig{BaseURL: *baseURL, Token: *tok, Timeout: *timeout})
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var entries []audit.Entry
	if _, err := client.Get(ctx, "/api/audit?limit="+strconv.Itoa(*limit), &entries); err != nil {
		return err
	}
	out := cli.NewPrinter(stdout)
	if len(entries) == 0 {
		out.Warning("no audit entries")
		return nil
	}
	for _, e := range entries {
		out.Printf("%s  %-8s %-24s %s #%d user=%d\n",
			e.Time.Format(time.RFC3339), out.Outcome(string(e.Outcome)), e.Action, e.Entity, e.EntityID, e.UserID)
	}
	return nil
}

// adjustStock posts a stock movement to a running server.
func adjustStock(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("stock", flag.ContinueOnError)
	baseURL := fs.String("url", "http://localhost:8080", "Server base URL")
	tok := fs.String("token", os.Getenv("BIZHUB_TOKEN"), "Bearer token")
	productID := fs.Int64("product", 0, "Product id")
	delta := fs.Int64("delta", 0, "Quantity to add, negative to remove")
	reason := fs.String("reason", "", "Movement reason")
	timeout := fs.Duration("timeout", 10*time.Second, "Request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *productID <= 0 {
		return errors.New("-product is required")
	}
	if *delta == 0 {
		return errors.New("-delta must be non-zero")
	}

	client := httputil.NewClient(httputil.ClientConfig{BaseURL: *baseURL, Token: *tok, Timeout: *timeout})
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	body := map[string]interface{}{"delta": *delta, "reason": *reason}
	var mv inventory.Movement
	env, err := client.Post(ctx, "/api/products/"+strconv.FormatInt(*productID, 10)+"/stock", body, &mv)
	if err != nil {
		return err
	}
	out := cli.NewPrinter(stdout)
	out.Success(env.Message)
	out.Printf("product #%d  delta=%+d  balance=%d  %s\n", mv.ProductID, mv.Delta, mv.Balance, mv.Reason)
	return nil
}
