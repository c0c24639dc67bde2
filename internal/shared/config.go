package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	Timezone    string

	StaffSessionTTL time.Duration
	GuestSessionTTL time.Duration
	SweepInterval   time.Duration
	CacheTTL        time.Duration
	RunSweeper      bool
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/gestion?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),
		Timezone:    env("HOTEL_TIMEZONE", "America/Santiago"),

		StaffSessionTTL: time.Duration(atoi("STAFF_SESSION_TTL_SECONDS", 8*3600)) * time.Second,
		GuestSessionTTL: time.Duration(atoi("GUEST_SESSION_TTL_SECONDS", 24*3600)) * time.Second,
		SweepInterval:   time.Duration(atoi("SWEEP_INTERVAL_SECONDS", 300)) * time.Second,
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,
		RunSweeper:      env("RUN_SWEEPER", "true") == "true",
	}
	return c
}

// Location resolves the configured hotel timezone. The expire sweep and the
// overdue flag both depend on it; falling back to UTC is better than
// crashing on a bad name.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Warn().Str("timezone", c.Timezone).Err(err).Msg("invalid HOTEL_TIMEZONE, using UTC")
		return time.UTC
	}
	return loc
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
