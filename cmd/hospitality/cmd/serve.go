package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"

	"github.com/bitandsolution/stadium-hospitality-sub000/cmd/hospitality/cmd/cmdutil"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/bunx"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/jobs"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/repository"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/respond"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/server"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/services/checkin"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/services/guest"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/services/iam"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/telemetry"
)

const (
	shutdownTimeout    = 15 * time.Second
	slowQueryThreshold = 250 * time.Millisecond
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hospitality API server",
	Long: `Starts the HTTP API and the background blacklist pruner. The server
shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTelemetry, err := telemetry.Init(ctx, cfg.Observability, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			tctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdownTelemetry(tctx); err != nil {
				logger.WithError(err).Warn("telemetry shutdown failed")
			}
		}()

		dbMetrics, err := telemetry.NewDatabaseMetrics()
		if err != nil {
			return fmt.Errorf("failed to create database metrics: %w", err)
		}
		db, err := cmdutil.OpenDB(cfg,
			dbMetrics,
			&bunx.LogHook{Log: logger.WithField("pkg", "bun"), SlowThreshold: slowQueryThreshold},
		)
		if err != nil {
			return err
		}
		defer bunx.Close(db)
		logger.WithField("dialect", db.Dialect().Name().String()).Info("connected to database")

		rdb, err := cmdutil.OpenRedis(ctx, cfg)
		if err != nil {
			return err
		}
		if rdb != nil {
			defer rdb.Close()
			logger.WithField("addr", cfg.Redis.Addr).Info("connected to redis")
		}

		domainMetrics, err := telemetry.NewDomainMetrics()
		if err != nil {
			return fmt.Errorf("failed to create domain metrics: %w", err)
		}
		serverMetrics, err := telemetry.NewServerMetrics()
		if err != nil {
			return fmt.Errorf("failed to create server metrics: %w", err)
		}

		userRepo := repository.NewBunUserRepository(db)
		guestRepo := repository.NewBunGuestRepository(db)
		eventRepo := repository.NewBunAccessEventRepository(db)
		stadiumRepo := repository.NewBunStadiumRepository(db)
		roomRepo := repository.NewBunRoomAssignmentRepository(db)
		blacklistRepo, err := cmdutil.BlacklistRepository(cfg, db, rdb)
		if err != nil {
			return err
		}

		tokens, err := iam.NewTokenService(iam.TokenConfigFrom(cfg), userRepo, blacklistRepo, domainMetrics, logger)
		if err != nil {
			return fmt.Errorf("failed to create token service: %w", err)
		}

		enforcer, err := auth.InitEnforcer()
		if err != nil {
			return fmt.Errorf("failed to initialize casbin enforcer: %w", err)
		}
		guard := iam.NewAccessGuard(enforcer, roomRepo)

		checkinSvc := checkin.NewService(guestRepo, eventRepo, guard).
			WithMetrics(domainMetrics).
			WithLogger(logger)
		guestSvc := guest.NewService(guestRepo, stadiumRepo, guard).
			WithNotifier(newNotifier(rdb)).
			WithMetrics(domainMetrics).
			WithLogger(logger)

		corsOpts := server.DefaultCORSOptions(cfg.CORSAllowedOrigins)
		router := server.NewRouter(server.RouterOptions{
			Tokens:        tokens,
			Guard:         guard,
			Checkin:       checkinSvc,
			Guests:        guestSvc,
			Users:         userRepo,
			Rooms:         roomRepo,
			Log:           logger,
			Metrics:       serverMetrics,
			CORSOptions:   &corsOpts,
			HealthHandler: healthHandler(db, rdb),
		})

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		pruner := jobs.NewBlacklistPruner(tokens, cfg.Blacklist.PurgeInterval, logger)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.WithField("addr", cfg.ServerAddr).Info("starting server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			return pruner.Run(gctx)
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down server")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

// newNotifier always logs hostess edits and also publishes them when Redis
// is configured.
func newNotifier(rdb redis.UniversalClient) guest.Notifier {
	notifiers := guest.MultiNotifier{guest.LogNotifier{Log: logger.WithField("pkg", "notify")}}
	if rdb != nil {
		notifiers = append(notifiers, guest.NewRedisNotifier(rdb, cfg.Redis.NotifyChannel))
	}
	return notifiers
}

func healthHandler(db *bun.DB, rdb redis.UniversalClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok", "database": "ok"}
		if err := db.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "unreachable"
		}
		if rdb != nil {
			body["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body["redis"] = "unreachable"
			}
		}
		respond.JSON(w, status, body)
	}
}
