package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Almasmm/doctor-appointment-api/internal/app"
	"github.com/Almasmm/doctor-appointment-api/internal/clock"
	"github.com/Almasmm/doctor-appointment-api/internal/config"
	"github.com/Almasmm/doctor-appointment-api/internal/events"
	"github.com/Almasmm/doctor-appointment-api/internal/storage/postgres"
	transporthttp "github.com/Almasmm/doctor-appointment-api/internal/transport/http"
	"github.com/Almasmm/doctor-appointment-api/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	root := &cobra.Command{
		Use:          "appointment-api",
		Short:        "Doctor appointment booking API",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), sweepCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}

func connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return pool, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			startupCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			pool, err := connect(startupCtx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := migrations.Apply(startupCtx, pool); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}

			clk := clock.NewSystem()
			holdSvc := app.NewHoldService(postgres.NewHoldRepository(pool), clk, app.WithLease(cfg.HoldLease))
			outboxRepo := postgres.NewOutboxRepository(pool)
			bookingSvc := app.NewBookingService(postgres.NewAppointmentRepository(pool), outboxRepo, clk)
			slotSvc := app.NewSlotService(postgres.NewSlotRepository(pool), holdSvc, clk)
			dirSvc := app.NewDirectoryService(postgres.NewDirectoryRepository(pool))
			sessions := app.NewCoordinatorRegistry(holdSvc, bookingSvc)

			runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sweeper := app.NewSweeper(holdSvc, cfg.SweepInterval, logger)
			go sweeper.Run(runCtx)

			if cfg.AMQPURL != "" {
				publisher, err := events.NewAMQPPublisher(cfg.AMQPURL)
				if err != nil {
					return fmt.Errorf("connect broker: %w", err)
				}
				defer publisher.Close()
				relay := events.NewRelay(outboxRepo, publisher, cfg.RelayInterval, logger)
				go relay.Run(runCtx)
			} else {
				logger.Warn().Msg("AMQP_URL not set, booking events stay in the outbox")
			}

			e := transporthttp.NewRouter(transporthttp.Deps{
				Slots:       slotSvc,
				Holds:       holdSvc,
				Bookings:    bookingSvc,
				Directory:   dirSvc,
				Sessions:    sessions,
				Logger:      logger,
				JWTSecret:   cfg.JWTSecret,
				CORSOrigins: cfg.CORSOrigins,
			})

			srvErr := make(chan error, 1)
			go func() {
				srvErr <- e.Start(":" + cfg.Port)
			}()
			logger.Info().Str("port", cfg.Port).Msg("api listening")

			select {
			case err := <-srvErr:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-runCtx.Done():
				logger.Info().Msg("shutdown signal received, stopping server")
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			if err := e.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("server shutdown error")
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			pool, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := migrations.Apply(ctx, pool); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info().Msg("migrations applied")
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Reclaim expired holds once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			pool, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			holdSvc := app.NewHoldService(postgres.NewHoldRepository(pool), clock.NewSystem(), app.WithLease(cfg.HoldLease))
			swept, err := holdSvc.SweepExpired(ctx, batch)
			if err != nil {
				return err
			}
			logger.Info().Int("reclaimed", swept).Msg("expired holds swept")
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 500, "max holds to reclaim")
	return cmd
}
