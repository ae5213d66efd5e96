package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"staychain/internal/adapters/observability"
	"staychain/internal/domain"
	"staychain/internal/txn"
)

// consolidate folds every source coin into the plan's target, waits until
// the merged balance is ledger-visible, and returns the coin that now
// covers the required amount.
//
// The confirmation step polls the inventory under a bound instead of
// sleeping a fixed interval: a merge that settles fast completes fast, and
// one that never settles surfaces as MergeIncomplete rather than a stale
// re-read. Merge submission failures are not retried here; the whole flow
// is re-invocable by the caller.
func (s *SettlementService) consolidate(ctx context.Context, owner string, plan domain.PaymentPlan, required int64) (domain.Coin, error) {
	if len(plan.Sources) == 0 {
		// nothing to fold in; the plan cannot be satisfied
		observability.ObserveMerge("incomplete")
		return domain.Coin{}, domain.Failure(domain.MergeIncomplete,
			fmt.Errorf("no source coins to merge into %s", plan.Target.ID))
	}

	tx := txn.New(owner)
	sources := make([]txn.Arg, 0, len(plan.Sources))
	for _, c := range plan.Sources {
		sources = append(sources, txn.Object(c.ID))
	}
	tx.MergeCoins(txn.Object(plan.Target.ID), sources)

	log.Info().
		Str("owner", owner).
		Str("target", plan.Target.ID).
		Int("sources", len(plan.Sources)).
		Msg("consolidating coins")

	subCtx, cancel := context.WithTimeout(ctx, s.cfg.SubmitTimeout)
	defer cancel()
	if _, err := s.submit.SignAndExecute(subCtx, tx); err != nil {
		observability.ObserveMerge("submit_failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Coin{}, domain.Failure(domain.Timeout, err)
		}
		return domain.Coin{}, domain.Failure(domain.MergeSubmissionFailed, err)
	}

	// Re-query until the merged coin is visible, bounded by MergeWait.
	waitCtx, cancelWait := context.WithTimeout(ctx, s.cfg.MergeWait)
	defer cancelWait()
	coin, err := s.ledger.WaitForSufficientCoin(waitCtx, owner, s.cfg.CoinType, required)
	if err != nil {
		observability.ObserveMerge("incomplete")
		return domain.Coin{}, domain.Failure(domain.MergeIncomplete, err)
	}

	observability.ObserveMerge("ok")
	return coin, nil
}
