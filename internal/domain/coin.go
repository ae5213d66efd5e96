package domain

import (
	"math"
	"sort"
)

// BaseUnitScale is the number of base units per one display unit of the
// settlement currency (9 decimals on the ledger).
const BaseUnitScale int64 = 1_000_000_000

// DefaultGasBuffer is reserved on top of the required amount so the payer
// can still cover execution fees after settlement (0.1 in display units).
const DefaultGasBuffer int64 = 100_000_000

// Coin is an indivisible on-chain value unit owned by a single address.
// Balance is an integer count of base units; it never goes negative.
type Coin struct {
	ID      string
	Balance int64
}

// Inventory is a snapshot of the coins owned by one address for one coin
// type. Snapshots taken at different times are not comparable; callers
// re-fetch after every mutating ledger operation.
type Inventory []Coin

// Total returns the aggregate balance. Computed on demand so a stale sum
// can never leak across a mutating step.
func (inv Inventory) Total() int64 {
	var sum int64
	for _, c := range inv {
		sum += c.Balance
	}
	return sum
}

// SortedDescending returns a copy ordered by balance, largest first.
// Ties break on ID so the order is deterministic.
func (inv Inventory) SortedDescending() Inventory {
	out := make(Inventory, len(inv))
	copy(out, inv)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Balance != out[j].Balance {
			return out[i].Balance > out[j].Balance
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ToBaseUnits converts a display-unit amount to base units, truncating
// toward zero. Every conversion in the module goes through here so the
// balance check and the split amount can never round differently.
func ToBaseUnits(display float64) int64 {
	return int64(display * float64(BaseUnitScale))
}

// RoundToBaseUnits converts a quoted decimal amount to base units,
// rounding to the nearest unit. Quotes carry at most nine decimals, so
// rounding recovers the exact base value where truncation can land one
// unit low. Payment amounts keep using ToBaseUnits; this is for reference
// figures that get multiplied afterwards, where a one-unit error would
// compound.
func RoundToBaseUnits(display float64) int64 {
	return int64(math.Round(display * float64(BaseUnitScale)))
}

// FromBaseUnits converts back for human-facing output only; settlement
// arithmetic stays in integers.
func FromBaseUnits(base int64) float64 {
	return float64(base) / float64(BaseUnitScale)
}
