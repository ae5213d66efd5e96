package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"staychain/internal/adapters/observability"
	"staychain/internal/domain"
	"staychain/internal/txn"
)

// SettlementConfig carries the ledger constants and suspension-point
// bounds. PackageID is validated at startup; a missing package is a
// deployment error, not a per-booking failure.
type SettlementConfig struct {
	PackageID     string
	CoinType      string
	GasBuffer     int64         // zero means default; negative disables the fee reserve
	QueryTimeout  time.Duration // inventory fetch
	MergeWait     time.Duration // post-merge confirmation poll
	SubmitTimeout time.Duration // wallet signing + execution
}

func (c *SettlementConfig) fill() {
	if c.CoinType == "" {
		c.CoinType = "0x2::sui::SUI"
	}
	if c.GasBuffer == 0 {
		c.GasBuffer = domain.DefaultGasBuffer
	} else if c.GasBuffer < 0 {
		c.GasBuffer = 0
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 15 * time.Second
	}
	if c.MergeWait <= 0 {
		c.MergeWait = 30 * time.Second
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = 60 * time.Second
	}
}

// SettlementService runs the whole booking settlement flow: fresh
// inventory, payment plan, optional consolidation, transaction build and
// submission. One flow per guest address at a time.
type SettlementService struct {
	ledger  domain.LedgerClient
	submit  txn.Submitter
	rates   *RateService          // nil disables quote verification
	journal domain.AttemptJournal // nil disables the audit journal
	locks   *addressLocks
	cfg     SettlementConfig
}

func NewSettlementService(ledger domain.LedgerClient, submit txn.Submitter, rates *RateService, journal domain.AttemptJournal, cfg SettlementConfig) (*SettlementService, error) {
	if cfg.PackageID == "" {
		return nil, fmt.Errorf("settlement: package id is required")
	}
	cfg.fill()
	return &SettlementService{
		ledger:  ledger,
		submit:  submit,
		rates:   rates,
		journal: journal,
		locks:   newAddressLocks(),
		cfg:     cfg,
	}, nil
}

// BookRoom settles one booking on chain. The returned error, when not nil,
// is always a *domain.SettlementError; no partial state survives a
// failure — the ledger transaction is atomic.
func (s *SettlementService) BookRoom(ctx context.Context, req domain.BookingRequest) (domain.Receipt, error) {
	start := time.Now()

	// Local validation before any network call.
	if err := req.Validate(); err != nil {
		return domain.Receipt{}, s.done(ctx, "", "", start, err)
	}
	required := domain.ToBaseUnits(req.TotalCost)

	if s.rates != nil {
		if err := s.rates.VerifyQuote(ctx, req); err != nil {
			return domain.Receipt{}, s.done(ctx, "", "", start, err)
		}
	}

	// One flow per payer address.
	if err := s.locks.acquire(ctx, req.GuestAddress); err != nil {
		return domain.Receipt{}, s.done(ctx, "", "", start, domain.Failure(domain.Timeout, err))
	}
	defer s.locks.release(req.GuestAddress)

	inv, err := s.fetchInventory(ctx, req.GuestAddress)
	if err != nil {
		return domain.Receipt{}, s.done(ctx, "", "", start, err)
	}

	plan, err := domain.PlanPayment(inv, required, s.cfg.GasBuffer)
	if err != nil {
		return domain.Receipt{}, s.done(ctx, "", "", start, err)
	}

	attemptID := s.record(ctx, req, required, plan)

	payment := plan.Payment
	planLabel := "direct"
	if plan.Kind == domain.RequiresMerge {
		planLabel = "merge"
		payment, err = s.consolidate(ctx, req.GuestAddress, plan, required)
		if err != nil {
			return domain.Receipt{}, s.done(ctx, attemptID, planLabel, start, err)
		}
	}

	tx, err := s.buildBookingTx(req, payment, required)
	if err != nil {
		return domain.Receipt{}, s.done(ctx, attemptID, planLabel, start, err)
	}

	subCtx, cancel := context.WithTimeout(ctx, s.cfg.SubmitTimeout)
	defer cancel()
	receipt, err := s.submit.SignAndExecute(subCtx, tx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = domain.Failure(domain.Timeout, err)
		} else {
			err = domain.Failure(domain.TransactionFailed, err)
		}
		return domain.Receipt{}, s.done(ctx, attemptID, planLabel, start, err)
	}

	log.Info().
		Str("guest", req.GuestAddress).
		Str("room", req.RoomID).
		Str("digest", receipt.Digest).
		Int64("amount", required).
		Str("plan", planLabel).
		Msg("booking settled")
	s.finish(ctx, attemptID, planLabel, start, receipt.Digest)
	return receipt, nil
}

// fetchInventory reads a fresh coin snapshot under the query bound.
func (s *SettlementService) fetchInventory(ctx context.Context, owner string) (domain.Inventory, error) {
	qctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()
	inv, err := s.ledger.GetCoins(qctx, owner, s.cfg.CoinType)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.Failure(domain.Timeout, err)
		}
		if domain.KindOf(err) != "" {
			return nil, err
		}
		return nil, domain.Failure(domain.InventoryUnavailable, err)
	}
	return inv, nil
}

// buildBookingTx assembles the atomic booking transaction. When the
// payment coin holds more than the exact amount, a split carves off the
// required value; the remainder stays with the original coin, still owned
// by the guest.
func (s *SettlementService) buildBookingTx(req domain.BookingRequest, payment domain.Coin, required int64) (*txn.Transaction, error) {
	tx := txn.New(req.GuestAddress)

	var paymentArg txn.Arg
	if payment.Balance == required {
		paymentArg = txn.Object(payment.ID)
	} else {
		paymentArg = tx.SplitCoins(txn.Object(payment.ID), []txn.Arg{txn.PureU64(uint64(required))})
	}

	target := s.cfg.PackageID + "::hotel_booking::book_room"
	err := tx.MoveCall(target,
		txn.Object(req.RoomID),
		txn.Object(req.HotelID),
		txn.PureU64(uint64(req.ArrivalDate.UTC().Unix())),
		txn.PureU64(uint64(req.DepartureDate.UTC().Unix())),
		paymentArg,
		txn.Object(txn.ClockObjectID),
	)
	if err != nil {
		return nil, &domain.SettlementError{Kind: domain.InvalidInput, Field: "packageId", Err: err}
	}
	return tx, nil
}

// ---- journal + metrics plumbing ----

func (s *SettlementService) record(ctx context.Context, req domain.BookingRequest, required int64, plan domain.PaymentPlan) string {
	if s.journal == nil {
		return ""
	}
	kind := "direct"
	if plan.Kind == domain.RequiresMerge {
		kind = "merge"
	}
	a := domain.Attempt{
		ID:           uuid.NewString(),
		GuestAddress: req.GuestAddress,
		HotelID:      req.HotelID,
		RoomID:       req.RoomID,
		AmountBase:   required,
		PlanKind:     kind,
		Outcome:      "pending",
	}
	if err := s.journal.RecordAttempt(ctx, a); err != nil {
		log.Warn().Err(err).Msg("journal record failed")
		return ""
	}
	return a.ID
}

func (s *SettlementService) done(ctx context.Context, attemptID, plan string, start time.Time, err error) error {
	kind := string(domain.KindOf(err))
	if plan == "" {
		plan = "none"
	}
	observability.ObserveSettlement("failure", kind, plan, time.Since(start))
	if s.journal != nil && attemptID != "" {
		if jerr := s.journal.MarkOutcome(ctx, attemptID, "failure", kind, ""); jerr != nil {
			log.Warn().Err(jerr).Msg("journal outcome failed")
		}
	}
	return err
}

func (s *SettlementService) finish(ctx context.Context, attemptID, plan string, start time.Time, digest string) {
	observability.ObserveSettlement("success", "", plan, time.Since(start))
	if s.journal != nil && attemptID != "" {
		if err := s.journal.MarkOutcome(ctx, attemptID, "success", "", digest); err != nil {
			log.Warn().Err(err).Msg("journal outcome failed")
		}
	}
}
