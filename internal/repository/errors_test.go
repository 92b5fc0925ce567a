package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslateUniqueViolationMapsExclusivityIndexes(t *testing.T) {
	cases := []struct {
		constraint string
		want       error
	}{
		{"uni_sales_pending_card", ErrPendingCardTaken},
		{"uni_time_entries_active_card", ErrActiveEntryCardTaken},
		{"uni_cash_sessions_open", ErrSessionOpenConflict},
	}
	for _, tc := range cases {
		err := translateUniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: tc.constraint})
		assert.ErrorIs(t, err, tc.want, tc.constraint)
	}
}

func TestTranslateUniqueViolationPassesOthersThrough(t *testing.T) {
	assert.NoError(t, translateUniqueViolation(nil))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, translateUniqueViolation(plain))

	// A foreign-key violation on the same constraint name is not ours.
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "uni_sales_pending_card"}
	assert.ErrorIs(t, translateUniqueViolation(fk), fk)

	// A unique violation on an unrelated index passes through untouched.
	other := &pgconn.PgError{Code: "23505", ConstraintName: "products_pkey"}
	assert.ErrorIs(t, translateUniqueViolation(other), other)
}
