package main

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"staychain/internal/adapters/observability"
	"staychain/internal/adapters/sui"
	"staychain/internal/adapters/wallet"
	"staychain/internal/app"
	"staychain/internal/shared"
)

// Consolidates dust coins for the configured addresses so booking flows
// rarely need an inline merge.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	if cfg.PackageID == "" {
		log.Fatal().Msg("PACKAGE_ID must be set to the deployed booking package")
	}
	if len(cfg.SweepAddresses) == 0 {
		log.Fatal().Msg("SWEEP_ADDRESSES is empty; nothing to sweep")
	}

	log.Info().
		Int("addresses", len(cfg.SweepAddresses)).
		Int("workers", cfg.SweepWorkers).
		Int64("dust_below", cfg.SweepDustBelow).
		Msg("sweeper starting")

	ledger, err := sui.New(cfg.RPCURL, cfg.RPCRate, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("rpc client init failed")
	}
	bridge, err := wallet.NewBridge(cfg.WalletURL, cfg.WalletKey, cfg.SubmitTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("wallet bridge init failed")
	}

	svc, err := app.NewSettlementService(ledger, bridge, nil, nil, app.SettlementConfig{
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

	sem := semaphore.NewWeighted(int64(cfg.SweepWorkers))
	var wg sync.WaitGroup

	for _, addr := range cfg.SweepAddresses {
		addr := addr

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(owner string) {
			defer wg.Done()
			defer sem.Release(1)

			n, err := svc.Sweep(ctx, owner, cfg.SweepDustBelow)
			if err != nil {
				log.Warn().Str("owner", owner).Err(err).Msg("sweep failed")
				return
			}
			log.Info().Str("owner", owner).Int("merged", n).Msg("sweep ok")
		}(addr)
	}

	wg.Wait()
	log.Info().Msg("sweep completed")
}
