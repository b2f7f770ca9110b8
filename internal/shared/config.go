package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration
	PooledRooms bool

	// occupancy report worker
	ReportHorizonDays int
	ReportWorkers     int
	ReportRPS         int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:            env("APP_ENV", "prod"),
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		MySQLDSN:          env("MYSQL_DSN", "root:root@tcp(localhost:3306)/frontdesk?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:         env("REDIS_ADDR", "localhost:6379"),
		RedisPass:         env("REDIS_PASSWORD", ""),
		RedisDB:           atoi("REDIS_DB", 0),
		CacheTTL:          time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,
		PooledRooms:       env("POOLED_ROOMS", "true") != "false",
		ReportHorizonDays: atoi("REPORT_HORIZON_DAYS", 60),
		ReportWorkers:     atoi("REPORT_WORKERS", 4),
		ReportRPS:         atoi("REPORT_RPS", 20),
	}
	if c.CacheTTL <= 0 {
		log.Warn().Msg("CACHE_TTL_SECONDS is not positive; caching effectively disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
