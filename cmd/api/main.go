package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "hotel_gestion/internal/adapters/http_server"
	"hotel_gestion/internal/adapters/observability"
	redisad "hotel_gestion/internal/adapters/redis"
	"hotel_gestion/internal/adapters/ws"
	"hotel_gestion/internal/app"
	"hotel_gestion/internal/shared"
	mysqlrepo "hotel_gestion/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	sessions := redisad.NewSessions(cache.Client())
	loc := cfg.Location()

	hub := ws.NewHub(repo)
	notifier := app.NewNotificationService(repo, hub)
	auth := app.NewAuthService(repo, repo, sessions, cfg.StaffSessionTTL, cfg.GuestSessionTTL)
	reservations := app.NewReservationService(repo, repo, repo, notifier, loc)
	requests := app.NewRequestService(repo, repo, notifier)
	rooms := app.NewRoomService(repo)
	dashboard := app.NewDashboardService(repo, repo, repo, repo, cache, cfg.CacheTTL, loc)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(server.NewHandlers(auth, rooms, reservations, requests, notifier, dashboard, hub.Handle))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// in-process sweep, unless a dedicated sweeper runs alongside
	if cfg.RunSweeper {
		sched := app.NewScheduler(reservations, cfg.SweepInterval, log.Logger)
		go sched.Run(ctx)
	}

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	hub.Close()
	_ = db.Close()
}
