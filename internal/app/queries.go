package app

import (
	"context"

	"staychain/internal/domain"
)

// Balance returns the owner's fresh aggregate balance in base units. Never
// cached: every call re-reads the ledger.
func (s *SettlementService) Balance(ctx context.Context, owner string) (int64, error) {
	inv, err := s.fetchInventory(ctx, owner)
	if err != nil {
		return 0, err
	}
	return inv.Total(), nil
}

// FindPaymentCoin is the read-only preflight: it reports which coin would
// pay the given display amount, without merging or mutating anything. The
// booking flow re-plans against a fresh snapshot regardless of what this
// returned earlier.
func (s *SettlementService) FindPaymentCoin(ctx context.Context, owner string, amount float64) (domain.Coin, error) {
	required := domain.ToBaseUnits(amount)
	inv, err := s.fetchInventory(ctx, owner)
	if err != nil {
		return domain.Coin{}, err
	}
	coin, ok := domain.SmallestSufficient(inv, required)
	if !ok {
		return domain.Coin{}, domain.Insufficient(required, inv.Total())
	}
	return coin, nil
}

// Attempts lists the guest's recent settlement attempts from the journal.
func (s *SettlementService) Attempts(ctx context.Context, owner string, limit int) ([]domain.Attempt, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.ListAttempts(ctx, owner, limit)
}
