package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinels for the partial unique indexes behind the exclusivity invariants.
// Two requests racing past the service pre-checks both reach the insert; the
// loser gets a unique violation, which the repositories translate into one of
// these so the services can return the matching domain error.
var (
	ErrPendingCardTaken     = errors.New("card already holds a pending sale")
	ErrActiveEntryCardTaken = errors.New("card already holds an active time entry")
	ErrSessionOpenConflict  = errors.New("a cash session is already open")
)

const pgUniqueViolation = "23505"

// translateUniqueViolation maps a postgres unique violation on one of the
// exclusivity indexes to its sentinel. Any other error passes through.
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if err == nil || !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case "uni_sales_pending_card":
		return ErrPendingCardTaken
	case "uni_time_entries_active_card":
		return ErrActiveEntryCardTaken
	case "uni_cash_sessions_open":
		return ErrSessionOpenConflict
	}
	return err
}
