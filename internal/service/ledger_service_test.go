package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/repository"
)

func TestCharge_InsufficientLeavesBalance(t *testing.T) {
	env := newTestEnv(t)
	account := env.account(t, 10, models.TierBasic)

	_, err := env.ledger.Charge(context.Background(), account.ID, 11, ReasonGeneration, nil)
	assert.ErrorIs(t, err, ErrNotEnoughCredits)
	assert.Equal(t, 10, env.balance(t, account.ID))
	assert.Zero(t, env.ledgerCount(t, account.ID))
}

func TestCharge_DebitsAndAppendsOneEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.account(t, 100, models.TierBasic)

	entry, err := env.ledger.Charge(ctx, account.ID, 35, ReasonUnlockMedia, map[string]string{"media_id": "7"})
	require.NoError(t, err)
	assert.Equal(t, 35, entry.Amount)
	assert.Equal(t, 65, env.balance(t, account.ID))
	assert.Equal(t, 1, env.ledgerCount(t, account.ID))

	entries, err := env.ledger.List(ctx, account.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ReasonUnlockMedia, entries[0].Reason)
	assert.Equal(t, "7", entries[0].Metadata["media_id"])
}

func TestCharge_ExactBalance(t *testing.T) {
	env := newTestEnv(t)
	account := env.account(t, 20, models.TierBasic)

	_, err := env.ledger.Charge(context.Background(), account.ID, 20, ReasonGeneration, nil)
	require.NoError(t, err)
	assert.Zero(t, env.balance(t, account.ID))
}

func TestCharge_UnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.ledger.Charge(context.Background(), 404, 1, ReasonGeneration, nil)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCharge_DebitFailureSkipsLedger(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "email", "credits", "sub_tier", "sub_expires_at", "created_at", "updated_at"}).
		AddRow(1, "a@x.com", 100, "BASIC", 0, 0, 0)
	mock.ExpectQuery(`SELECT .* FROM accounts WHERE id = \?`).WithArgs(int64(1)).WillReturnRows(rows)
	mock.ExpectExec(`UPDATE accounts SET credits = credits - \?`).WillReturnError(errors.New("connection reset"))

	ledger := NewLedgerService(discardLogger(), repository.NewAccountRepository(db), repository.NewLedgerRepository(db))
	_, err = ledger.Charge(context.Background(), 1, 20, ReasonGeneration, nil)
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCharge_LostRaceReportsNotEnoughCredits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "email", "credits", "sub_tier", "sub_expires_at", "created_at", "updated_at"}).
		AddRow(1, "a@x.com", 100, "BASIC", 0, 0, 0)
	mock.ExpectQuery(`SELECT .* FROM accounts WHERE id = \?`).WillReturnRows(rows)
	// a concurrent charge drained the balance between the read and the guarded update
	mock.ExpectExec(`UPDATE accounts SET credits = credits - \?`).WillReturnResult(sqlmock.NewResult(0, 0))

	ledger := NewLedgerService(discardLogger(), repository.NewAccountRepository(db), repository.NewLedgerRepository(db))
	_, err = ledger.Charge(context.Background(), 1, 20, ReasonGeneration, nil)
	assert.ErrorIs(t, err, ErrNotEnoughCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}
