package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"session-scheduler/internal/auth"
	"session-scheduler/internal/calendar"
	"session-scheduler/internal/config"
	"session-scheduler/internal/events"
	"session-scheduler/internal/handler"
	"session-scheduler/internal/logging"
	"session-scheduler/internal/middleware"
	"session-scheduler/internal/rpc"
	"session-scheduler/internal/scheduler"
	"session-scheduler/internal/store"
)

// sessionStore is what the running service needs from either backend.
type sessionStore interface {
	scheduler.SessionStore
	Ping(ctx context.Context) error
}

// openStore picks Postgres when DATABASE_URL is set and SQLite otherwise,
// then checks the connection. The returned func releases the backend.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (sessionStore, func(), error) {
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db: %w", err)
		}
		pg := store.New(pool, cfg.Location)
		if err := pg.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("db ping: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info().Msg("connected to postgres")
		return pg, pool.Close, nil
	}

	lite, err := store.OpenSQLite(ctx, cfg.SQLiteDSN, cfg.Location)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: %w", err)
	}
	if err := lite.Ping(ctx); err != nil {
		lite.Close()
		return nil, nil, fmt.Errorf("sqlite ping: %w", err)
	}
	log.Info().Str("dsn", cfg.SQLiteDSN).Msg("using sqlite")
	return lite, func() { lite.Close() }, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger config is not known yet
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config")
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Console: cfg.Log.Console}, os.Stdout)

	ctx := context.Background()

	// database
	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("store")
	}
	defer closeStore()

	hc := &http.Client{Timeout: cfg.HTTPTimeout}
	issuer := calendar.NewIssuer(hc, cfg.Zoom.TokenURL, calendar.Credentials{
		GrantType:    cfg.Zoom.GrantType,
		AccountID:    cfg.Zoom.AccountID,
		ClientID:     cfg.Zoom.ClientID,
		ClientSecret: cfg.Zoom.ClientSecret,
	})
	cal := calendar.NewClient(hc, cfg.Zoom.APIURL)

	opts := []scheduler.Option{scheduler.WithLogger(log)}
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL)
		if err != nil {
			// notifications are optional
			log.Warn().Err(err).Msg("nats unavailable, events disabled")
		} else {
			defer nc.Drain()
			opts = append(opts, scheduler.WithNotifier(events.NewPublisher(nc)))
			log.Info().Str("url", cfg.NATSURL).Msg("publishing to nats")
		}
	}

	sched := scheduler.New(scheduler.Config{
		CalendarID:  cfg.Zoom.CalendarID,
		JoinBaseURL: cfg.JoinBaseURL,
		Location:    cfg.Location,
	}, issuer, cal, st, opts...)
	signer := auth.NewSigner(cfg.SDK.Key, cfg.SDK.Secret)
	rl := middleware.NewRateLimiter(5, 10)

	h, err := handler.New(sched, signer, cfg.Location, rl, log)
	if err != nil {
		log.Fatal().Err(err).Msg("templates")
	}

	// grpc server, optional
	var grpcSrv *grpc.Server
	if cfg.GRPCPort != "" {
		grpcSrv = grpc.NewServer(
			grpc.ChainUnaryInterceptor(
				middleware.UnaryLogging(log),
				middleware.RateLimit(rl),
			),
		)
		rpc.Register(grpcSrv, rpc.NewServer(sched, signer))
		healthpb.RegisterHealthServer(grpcSrv, health.NewServer())

		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			log.Fatal().Err(err).Msg("listen")
		}
		go func() {
			log.Info().Msgf("grpc on :%s", cfg.GRPCPort)
			if err := grpcSrv.Serve(lis); err != nil {
				log.Error().Err(err).Msg("grpc")
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Msgf("http on :%s", cfg.WebPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http")
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
