package mysql

import (
	"context"
	"database/sql"

	"staychain/internal/domain"
)

// Repo persists the settlement attempt journal. The journal is an
// operational audit trail; the ledger itself stays the source of truth for
// whether money moved.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) RecordAttempt(ctx context.Context, a domain.Attempt) error {
	_, err := r.db.ExecContext(ctx, insertAttemptSQL,
		a.ID,
		a.GuestAddress,
		a.HotelID,
		a.RoomID,
		a.AmountBase,
		a.PlanKind,
		a.Outcome,
		a.FailureKind,
		a.TxDigest,
	)
	return err
}

func (r *Repo) MarkOutcome(ctx context.Context, attemptID, outcome, failureKind, digest string) error {
	_, err := r.db.ExecContext(ctx, markOutcomeSQL, outcome, failureKind, digest, attemptID)
	return err
}

func (r *Repo) ListAttempts(ctx context.Context, guestAddress string, limit int) ([]domain.Attempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listAttemptsSQL, guestAddress, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		if err := rows.Scan(
			&a.ID,
			&a.GuestAddress,
			&a.HotelID,
			&a.RoomID,
			&a.AmountBase,
			&a.PlanKind,
			&a.Outcome,
			&a.FailureKind,
			&a.TxDigest,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
