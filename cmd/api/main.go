package main

import (
	"context"
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "frontdesk/internal/adapters/http_server"
	"frontdesk/internal/adapters/observability"
	redisad "frontdesk/internal/adapters/redis"
	"frontdesk/internal/app"
	"frontdesk/internal/shared"
	mysqlrepo "frontdesk/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger("api", cfg.AppEnv)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// rate configuration is loaded once and held immutably for the process
	ctx := context.Background()
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

	cmds := app.NewBookingService(repo, cache, rates, tax, dinner, cfg.PooledRooms, nil)
	qry := app.NewQueryService(repo, cache, cfg.CacheTTL, rates, tax, dinner, cfg.PooledRooms, nil)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{C: cmds, Q: qry})

	log.Info().Str("addr", cfg.HTTPAddr).Bool("pooled_rooms", cfg.PooledRooms).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
