package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by catalog lookups for unknown rooms/hotels.
var ErrNotFound = errors.New("not found")

// LedgerClient reads coin state from the ledger. GetCoins must be
// idempotent and side-effect-free; two calls without an intervening
// mutation return the same set.
type LedgerClient interface {
	GetCoins(ctx context.Context, owner, coinType string) (Inventory, error)

	// WaitForSufficientCoin polls the owner's inventory until some coin
	// covers `required` base units, or ctx expires. Used after a merge in
	// place of a blind fixed delay.
	WaitForSufficientCoin(ctx context.Context, owner, coinType string, required int64) (Coin, error)
}

// RoomCatalog reads room metadata from the booking backend.
type RoomCatalog interface {
	GetRoom(ctx context.Context, hotelID, roomID string) (Room, error)
}

// Cache is a TTL'd cache for catalog lookups.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// AttemptJournal records every settlement attempt and its outcome for
// operational audit. A failure to record never fails the booking itself.
type AttemptJournal interface {
	RecordAttempt(ctx context.Context, a Attempt) error
	MarkOutcome(ctx context.Context, attemptID, outcome, failureKind, digest string) error
	ListAttempts(ctx context.Context, guestAddress string, limit int) ([]Attempt, error)
}

// Attempt is one row of the settlement journal.
type Attempt struct {
	ID           string
	GuestAddress string
	HotelID      string
	RoomID       string
	AmountBase   int64
	PlanKind     string // direct|merge
	Outcome      string // pending|success|failure
	FailureKind  string
	TxDigest     string
	CreatedAt    time.Time
}
