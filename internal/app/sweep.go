package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"staychain/internal/adapters/observability"
	"staychain/internal/domain"
	"staychain/internal/txn"
)

// Sweep consolidates an address's dust: every coin below `dustBelow` base
// units is folded into the largest coin. Returns the number of coins
// merged; zero with a nil error means there was nothing to sweep.
//
// Same serialization rule as bookings: the address lock is held for the
// whole sweep so a concurrent settlement cannot race the merge.
func (s *SettlementService) Sweep(ctx context.Context, owner string, dustBelow int64) (int, error) {
	if err := s.locks.acquire(ctx, owner); err != nil {
		return 0, domain.Failure(domain.Timeout, err)
	}
	defer s.locks.release(owner)

	inv, err := s.fetchInventory(ctx, owner)
	if err != nil {
		return 0, err
	}
	if len(inv) < 2 {
		return 0, nil
	}

	sorted := inv.SortedDescending()
	target := sorted[0]
	var dust []domain.Coin
	for _, c := range sorted[1:] {
		if c.Balance < dustBelow {
			dust = append(dust, c)
		}
	}
	if len(dust) == 0 {
		return 0, nil
	}

	tx := txn.New(owner)
	sources := make([]txn.Arg, 0, len(dust))
	for _, c := range dust {
		sources = append(sources, txn.Object(c.ID))
	}
	tx.MergeCoins(txn.Object(target.ID), sources)

	subCtx, cancel := context.WithTimeout(ctx, s.cfg.SubmitTimeout)
	defer cancel()
	if _, err := s.submit.SignAndExecute(subCtx, tx); err != nil {
		observability.ObserveMerge("submit_failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, domain.Failure(domain.Timeout, err)
		}
		return 0, domain.Failure(domain.MergeSubmissionFailed, err)
	}
	observability.ObserveMerge("ok")

	log.Info().Str("owner", owner).Int("merged", len(dust)).Str("target", target.ID).Msg("dust swept")
	return len(dust), nil
}
