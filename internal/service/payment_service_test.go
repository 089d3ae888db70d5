package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/repository"
)

func checkoutEvent(t *testing.T, sessionID string, accountID int64, metadata map[string]string, priceIDs ...string) []byte {
	t.Helper()

	var items []map[string]any
	for _, id := range priceIDs {
		items = append(items, map[string]any{"price": map[string]any{"id": id}})
	}
	session := map[string]any{
		"id":                  sessionID,
		"object":              "checkout.session",
		"client_reference_id": strconv.FormatInt(accountID, 10),
		"metadata":            metadata,
		"amount_total":        1999,
		"currency":            "usd",
		"payment_status":      "paid",
		"line_items":          map[string]any{"data": items},
	}
	event := map[string]any{
		"id":          "evt_" + sessionID,
		"object":      "event",
		"type":        "checkout.session.completed",
		"api_version": "2025-01-01",
		"data":        map[string]any{"object": session},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return payload
}

func sign(payload []byte, secret string) (string, []byte) {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return signed.Header, signed.Payload
}

func TestStripeWebhook_ActivatesTier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.account(t, 0, models.TierBasic)

	header, body := sign(checkoutEvent(t, "cs_1", account.ID, map[string]string{"tier": "pro"}), env.cfg.StripeWebhookSecret)
	require.NoError(t, env.payments.HandleStripeWebhook(ctx, body, header))

	stored, err := env.accounts.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierPro, stored.SubTier)
	assert.Greater(t, stored.SubExpiresAt, time.Now().Unix())

	// replay is recorded once and ignored
	header, body = sign(checkoutEvent(t, "cs_1", account.ID, map[string]string{"tier": "pro"}), env.cfg.StripeWebhookSecret)
	require.NoError(t, env.payments.HandleStripeWebhook(ctx, body, header))
	assert.Len(t, env.notifier.all(), 1)
}

func TestStripeWebhook_PriceIDMapsToTier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.account(t, 0, models.TierBasic)

	header, body := sign(checkoutEvent(t, "cs_2", account.ID, nil, "price_plus"), env.cfg.StripeWebhookSecret)
	require.NoError(t, env.payments.HandleStripeWebhook(ctx, body, header))

	stored, err := env.accounts.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierPlus, stored.SubTier)
}

func TestStripeWebhook_PackGrantsCreditsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.account(t, 10, models.TierBasic)

	pack, err := env.packs.Create(ctx, &models.CreditPack{Title: "Starter", Currency: "usd", PriceMinorUnits: 499, Credits: 250, IsActive: true})
	require.NoError(t, err)

	meta := map[string]string{"pack_id": strconv.FormatInt(pack.ID, 10)}
	for i := 0; i < 2; i++ {
		header, body := sign(checkoutEvent(t, "cs_3", account.ID, meta), env.cfg.StripeWebhookSecret)
		require.NoError(t, env.payments.HandleStripeWebhook(ctx, body, header))
	}
	assert.Equal(t, 260, env.balance(t, account.ID))
}

func TestStripeWebhook_FailedGrantIsAppliedOnRedelivery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	accountRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "email", "credits", "sub_tier", "sub_expires_at", "created_at", "updated_at"}).
			AddRow(1, "a@x.com", 0, "BASIC", 0, 0, 0)
	}

	// first delivery: the tier update fails and the payment row is rolled back with it
	mock.ExpectQuery(`SELECT .* FROM accounts WHERE id = \?`).WillReturnRows(accountRow())
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO payments`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE accounts SET sub_tier = \?`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	// redelivery: nothing was recorded, so the purchase is applied
	mock.ExpectQuery(`SELECT .* FROM accounts WHERE id = \?`).WillReturnRows(accountRow())
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO payments`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE accounts SET sub_tier = \?`).WithArgs("PLUS", sqlmock.AnyArg(), sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	cfg := testConfig()
	notifier := &recordingNotifier{}
	accounts := NewAccountService(cfg, discardLogger(), repository.NewAccountRepository(db), notifier)
	payments := NewPaymentService(cfg, discardLogger(), repository.NewPaymentRepository(db), accounts, NewPackService(repository.NewPackRepository(db)))

	header, body := sign(checkoutEvent(t, "cs_retry", 1, map[string]string{"tier": "plus"}), cfg.StripeWebhookSecret)
	err = payments.HandleStripeWebhook(context.Background(), body, header)
	assert.ErrorContains(t, err, "connection reset")
	assert.Empty(t, notifier.all())

	require.NoError(t, payments.HandleStripeWebhook(context.Background(), body, header))
	assert.Len(t, notifier.all(), 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeWebhook_BadSignature(t *testing.T) {
	env := newTestEnv(t)
	account := env.account(t, 0, models.TierBasic)

	header, body := sign(checkoutEvent(t, "cs_4", account.ID, map[string]string{"tier": "pro"}), "whsec_other")
	err := env.payments.HandleStripeWebhook(context.Background(), body, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	err = env.payments.HandleStripeWebhook(context.Background(), body, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeWebhook_OtherEventsIgnored(t *testing.T) {
	env := newTestEnv(t)
	payload := []byte(`{"id":"evt_x","object":"event","type":"invoice.paid","data":{"object":{}}}`)
	header, body := sign(payload, env.cfg.StripeWebhookSecret)
	assert.NoError(t, env.payments.HandleStripeWebhook(context.Background(), body, header))
}

func TestPackService_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.packs.Create(ctx, &models.CreditPack{Title: "", Currency: "USD", PriceMinorUnits: 1, Credits: 1})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = env.packs.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrPackNotFound)
}
