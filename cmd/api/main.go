package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"staychain/internal/adapters/backend"
	server "staychain/internal/adapters/http_server"
	"staychain/internal/adapters/observability"
	redisad "staychain/internal/adapters/redis"
	"staychain/internal/adapters/sui"
	"staychain/internal/adapters/wallet"
	"staychain/internal/app"
	"staychain/internal/shared"
	mysqlrepo "staychain/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	if cfg.PackageID == "" {
		log.Fatal().Msg("PACKAGE_ID must be set to the deployed booking package")
	}

	// ledger + wallet
	ledger, err := sui.New(cfg.RPCURL, cfg.RPCRate, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("rpc client init failed")
	}
	bridge, err := wallet.NewBridge(cfg.WalletURL, cfg.WalletKey, cfg.SubmitTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("wallet bridge init failed")
	}

	// catalog + cache
	catalog, err := backend.New(cfg.BackendURL)
	if err != nil {
		log.Fatal().Err(err).Msg("backend client init failed")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	rates := app.NewRateService(catalog, cache, cfg.CacheTTL)

	// journal
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")
	journal := mysqlrepo.New(db)

	svc, err := app.NewSettlementService(ledger, bridge, rates, journal, app.SettlementConfig{
		PackageID:     cfg.PackageID,
		CoinType:      cfg.CoinType,
		GasBuffer:     cfg.GasBuffer,
		QueryTimeout:  cfg.QueryTimeout,
		MergeWait:     cfg.MergeWait,
		SubmitTimeout: cfg.SubmitTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("settlement service init failed")
	}

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{S: svc})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
