package domain

import "sort"

// PlanKind says how the required amount will be paid.
type PlanKind int

const (
	// UseDirectly: a single existing coin covers the amount.
	UseDirectly PlanKind = iota
	// RequiresMerge: no single coin suffices; sources must be folded into
	// the target first.
	RequiresMerge
)

// PaymentPlan is the planner's decision over one inventory snapshot.
type PaymentPlan struct {
	Kind    PlanKind
	Payment Coin   // set when Kind == UseDirectly
	Target  Coin   // merge survivor when Kind == RequiresMerge
	Sources []Coin // folded into Target, all same owner
}

// PlanPayment decides how to pay `required` base units out of a fresh
// inventory snapshot, keeping `buffer` base units untouched for fees.
//
// Selection policy: the smallest coin whose balance covers the required
// amount, ties broken by ID. Deterministic, and leaves large coins intact
// for later bookings.
func PlanPayment(inv Inventory, required, buffer int64) (PaymentPlan, error) {
	total := inv.Total()
	if total < required+buffer {
		return PaymentPlan{}, Insufficient(required, total)
	}

	if c, ok := SmallestSufficient(inv, required); ok {
		return PaymentPlan{Kind: UseDirectly, Payment: c}, nil
	}

	// No single coin qualifies: fold everything into the largest coin.
	sorted := inv.SortedDescending()
	return PaymentPlan{
		Kind:    RequiresMerge,
		Target:  sorted[0],
		Sources: sorted[1:],
	}, nil
}

// SmallestSufficient returns the smallest coin with balance >= required.
func SmallestSufficient(inv Inventory, required int64) (Coin, bool) {
	candidates := make(Inventory, 0, len(inv))
	for _, c := range inv {
		if c.Balance >= required {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return Coin{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Balance != candidates[j].Balance {
			return candidates[i].Balance < candidates[j].Balance
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates[0], true
}
