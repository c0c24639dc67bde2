// Standalone expire-pending sweep runner, for deployments that keep the
// sweep out of the API process. The sweep is idempotent, so running both
// this and the in-process scheduler is safe, just redundant.
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotel_gestion/internal/adapters/observability"
	"hotel_gestion/internal/app"
	"hotel_gestion/internal/shared"
	mysqlrepo "hotel_gestion/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)
	observability.Serve()

	log.Info().
		Dur("interval", cfg.SweepInterval).
		Str("timezone", cfg.Timezone).
		Msg("sweeper starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}

	repo := mysqlrepo.New(db)
	// No hub here: notifications are persisted and reach the staff
	// dashboard through the API's snapshot on next connect.
	notifier := app.NewNotificationService(repo, nil)
	reservations := app.NewReservationService(repo, repo, repo, notifier, cfg.Location())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.NewScheduler(reservations, cfg.SweepInterval, log.Logger).Run(ctx)

	log.Info().Msg("sweeper stopped")
	_ = db.Close()
}
