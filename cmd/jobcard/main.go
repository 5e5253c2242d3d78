// Package main provides the jobcard binary: the placement API server and
// its maintenance commands.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"JobCard-backend/internal/auth"
	"JobCard-backend/internal/config"
	"JobCard-backend/internal/controller/file"
	"JobCard-backend/internal/database"
	"JobCard-backend/internal/identity"
	"JobCard-backend/internal/middleware"
	"JobCard-backend/internal/model"
	"JobCard-backend/internal/notification"
	"JobCard-backend/internal/server"
	"JobCard-backend/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "jobcard",
		Short:         "Job card placement backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("JOBCARD_CONFIG"), "Config file path (YAML)")

	cmd.AddCommand(
		serveCmd(&configPath),
		migrateCmd(&configPath),
		cleanDBCmd(&configPath),
		devTokenCmd(&configPath),
	)
	return cmd
}

func setupLogging(level string) {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			setupLogging(cfg.LogLevel)
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDBInstance(database.FromConfig(cfg.Database))
	if err != nil {
		return fmt.Errorf("database failed to initialize: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Warn("failed to close database", "error", err)
		}
	}()

	sinks := []notification.Sink{notification.LogSink{}}
	var nc *nats.Conn
	if cfg.Notification.NatsURL != "" {
		sink, conn, err := notification.NewNATSSink(cfg.Notification.NatsURL, cfg.Notification.SubjectPrefix)
		if err != nil {
			return err
		}
		sinks = append(sinks, sink)
		nc = conn
	}
	dispatcher := notification.NewDispatcher(cfg.Notification.QueueSize, sinks...)
	dispatcher.Start(ctx)

	resolver := identity.Instrumented{Next: identity.NewClient(identity.Options{
		BaseURL:      cfg.Identity.BaseURL,
		Timeout:      cfg.Identity.Timeout,
		ClientID:     cfg.Identity.ClientID,
		ClientSecret: cfg.Identity.ClientSecret,
		TokenURL:     cfg.Identity.TokenURL,
	})}

	opts := service.Options{IdentityConcurrency: cfg.Identity.Concurrency}
	if cfg.TransitionPolicy == config.TransitionsForwardOnly {
		opts.Transitions = service.ForwardOnlyTransitions
	}
	svc := service.New(db, resolver, dispatcher, opts)

	var storage file.StorageClient
	if cfg.Storage.Bucket != "" {
		gcs, err := file.NewCloudStorageClient(ctx, cfg.Storage.Bucket)
		if err != nil {
			return err
		}
		defer gcs.Close()
		storage = gcs
	} else {
		slog.Warn("GCS_BUCKET not set, document file endpoints are disabled")
	}

	limiter, redisClient, err := middleware.NewRateLimitStore(cfg.RateLimit)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	srv := server.NewMyServer(cfg, db, svc, storage, limiter).NewServer()
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "transition_policy", cfg.TransitionPolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		slog.Warn("notifications left undelivered", "error", err)
	}
	if nc != nil {
		if err := nc.Drain(); err != nil {
			slog.Warn("failed to drain nats connection", "error", err)
		}
	}
	slog.Info("server exiting")
	return nil
}

func openDatabase(configPath string) (*database.DBinstanceStruct, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg.LogLevel)
	db, err := database.NewDBInstance(database.FromConfig(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("database failed to initialize: %w", err)
	}
	return db, nil
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()
			slog.Info("database schema is up to date")
			return nil
		},
	}
}

func cleanDBCmd(configPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clean-db",
		Short: "Drop every table in the public schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprintln(cmd.OutOrStdout(), "WARNING: This command will DROP ALL TABLES in the 'public' schema of your database.")
				fmt.Fprint(cmd.OutOrStdout(), "This action is irreversible. Do you want to continue? (yes/no): ")
				input, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}
				if strings.TrimSpace(strings.ToLower(input)) != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled.")
					return nil
				}
			}

			db, err := openDatabase(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.DropAll(cmd.Context()); err != nil {
				return fmt.Errorf("failed to execute drop command: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All tables dropped successfully.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func devTokenCmd(configPath *string) *cobra.Command {
	var (
		p   auth.Principal
		ttl time.Duration
	)
	cmd := &cobra.Command{
		Use:   "dev-token",
		Short: "Sign an access token with the configured SSO secret, for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Auth.SecretKey == "" {
				return errors.New("SSO_SECRET_KEY is required")
			}
			authority := auth.NewTokenAuthority(cfg.Auth.SecretKey, cfg.Auth.Issuer)
			token, err := authority.GenerateToken(p, ttl)
			if err != nil {
				return err
			}
			if _, err := authority.ValidateToken(token); err != nil {
				return fmt.Errorf("token would be rejected: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.Role, "role", model.RoleMember, "Role: "+strings.Join(model.Roles, ", "))
	cmd.Flags().StringVar(&p.Member, "member", "", "Member card or mobile number")
	cmd.Flags().StringVar(&p.BusinessID, "business", "", "Business ID")
	cmd.Flags().StringVar(&p.InstituteID, "institute", "", "Institute ID")
	cmd.Flags().StringVar(&p.Subject, "subject", "", "Token subject, defaults to the identifier")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
