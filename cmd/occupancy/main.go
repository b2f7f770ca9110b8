// The occupancy worker sweeps every room pool over the configured horizon,
// logs the days that still have free slots and warms the occupancy cache for
// the front-desk calendar. Run it nightly, or ad hoc before busy weekends.
package main

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"frontdesk/internal/adapters/observability"
	redisad "frontdesk/internal/adapters/redis"
	"frontdesk/internal/app"
	"frontdesk/internal/domain"
	"frontdesk/internal/shared"
	mysqlrepo "frontdesk/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger("occupancy", cfg.AppEnv)
	log.Info().
		Int("horizon_days", cfg.ReportHorizonDays).
		Int("workers", cfg.ReportWorkers).
		Msg("occupancy worker starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	rates, err := repo.LoadRateTable(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load rate table failed")
	}
	tax, err := repo.LoadTaxTable(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load tax table failed")
	}
	dinner, err := repo.LoadDinnerTable(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load dinner table failed")
	}
	qry := app.NewQueryService(repo, cache, cfg.CacheTTL, rates, tax, dinner, cfg.PooledRooms, nil)

	rooms, err := repo.ListRooms(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list rooms failed")
	}

	from := domain.DateOf(time.Now())
	to := from.AddDays(cfg.ReportHorizonDays)

	// pace the sweep so a large horizon cannot saturate the store
	limiter := rate.NewLimiter(rate.Limit(cfg.ReportRPS), cfg.ReportRPS)
	sem := semaphore.NewWeighted(int64(cfg.ReportWorkers))
	var wg sync.WaitGroup

	// one sweep per pool is enough when pooling is on; siblings share the
	// same report
	seen := map[string]bool{}
	for _, room := range rooms {
		room := room
		if cfg.PooledRooms && seen[room.GroupKey] {
			continue
		}
		seen[room.GroupKey] = true

		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if err := limiter.Wait(ctx); err != nil {
				log.Warn().Err(err).Msg("rate limiter interrupted")
				return
			}

			rep, err := qry.Occupancy(ctx, room.Name, from, to)
			if err != nil {
				log.Warn().Str("room", room.Name).Err(err).Msg("occupancy report failed")
				return
			}

			free, full := 0, 0
			for _, d := range rep.Days {
				if d.Booked < d.Capacity {
					free++
				} else {
					full++
				}
			}
			log.Info().
				Str("room", room.Name).
				Str("pool", rep.Pool).
				Int("capacity", rep.Capacity).
				Int("days_free", free).
				Int("days_full", full).
				Msg("occupancy")
		}()
	}

	wg.Wait()
	log.Info().Msg("occupancy sweep completed")
}
