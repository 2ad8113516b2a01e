package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"eventhub/config"
	_ "eventhub/docs"
	"eventhub/internal/adapters/auth"
	"eventhub/internal/adapters/email"
	delivery "eventhub/internal/delivery/http"
	"eventhub/internal/delivery/http/controllers"
	"eventhub/internal/metrics"
	"eventhub/internal/repository/postgres"
	"eventhub/internal/services"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var (
		migrateFirst bool
		port         string
	)
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server. The server shuts down gracefully on SIGINT/SIGTERM.

Examples:
  eventhub serve
  eventhub serve --migrate --port 9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if port != "" {
				cfg.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, config.NewLogger(), migrateFirst)
		},
	}
	serveCmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	serveCmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return serveCmd
}

func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrateFirst bool) error {
	logger.Info("starting server", "version", Version, "env", cfg.Environment)

	if migrateFirst {
		if err := postgres.MigrateUp(cfg.DBUrl); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := postgres.Open(openCtx, cfg.DBUrl, cfg.DBMaxOpenConns)
	cancel()
	if err != nil {
		return err
	}
	defer db.Close()
	if err := metrics.RegisterDBStats(db); err != nil {
		logger.Warn("database metrics not registered", "err", err)
	}

	handler, err := buildHandler(cfg, db, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildHandler wires repositories, services and controllers into the HTTP handler.
func buildHandler(cfg *config.Config, db *sql.DB, logger *slog.Logger) (http.Handler, error) {
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.AWSRegion,
			AccessKeyID:     cfg.Email.AWSAccessKeyID,
			SecretAccessKey: cfg.Email.AWSSecretAccessKey,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("mailer: %w", err)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	eventRepo := postgres.NewEventRepository(db)
	tagRepo := postgres.NewTagRepository(db)
	participantRepo := postgres.NewParticipantRepository(db)
	userRepo := postgres.NewUserRepository(db)

	eventService := services.NewEventService(eventRepo, tagRepo, participantRepo, userRepo, emailService, logger, cfg.EventsPageSize, cfg.ContextTimeout)
	participationService := services.NewParticipationService(eventRepo, participantRepo, userRepo, emailService, logger, cfg.ContextTimeout)

	return delivery.NewHandler(delivery.RouterDeps{
		Events:         controllers.NewEventController(logger, eventService),
		Participation:  controllers.NewParticipationController(logger, participationService),
		Tags:           controllers.NewTagController(logger, eventService),
		TokenVerifier:  auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
	}), nil
}
