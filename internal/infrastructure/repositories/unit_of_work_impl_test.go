package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func insertConfigRow(ctx context.Context, u *UnitOfWorkImpl, currency string) error {
	return GetDB(ctx, u.db).Exec(
		"INSERT INTO payu_currency_configs(id,currency,merchant_id,client_id,client_secret) VALUES (?,?,?,?,?)",
		uuid.New().String(), currency, "m-"+currency, "c", "s",
	).Error
}

func TestUnitOfWork_DoCommitAndRollback(t *testing.T) {
	db := newTestDB(t)
	createCurrencyConfigTable(t, db)
	u := &UnitOfWorkImpl{db: db}

	err := u.Do(context.Background(), func(ctx context.Context) error {
		return insertConfigRow(ctx, u, "INR")
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Table("payu_currency_configs").Count(&count).Error)
	require.Equal(t, int64(1), count)

	err = u.Do(context.Background(), func(ctx context.Context) error {
		if err := insertConfigRow(ctx, u, "USD"); err != nil {
			return err
		}
		return errors.New("force rollback")
	})
	require.Error(t, err)

	require.NoError(t, db.Table("payu_currency_configs").Count(&count).Error)
	require.Equal(t, int64(1), count, "second insert must be rolled back")
}

func TestUnitOfWork_DoRollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	createCurrencyConfigTable(t, db)
	u := &UnitOfWorkImpl{db: db}

	require.PanicsWithValue(t, "webhook blew up", func() {
		_ = u.Do(context.Background(), func(ctx context.Context) error {
			require.NoError(t, insertConfigRow(ctx, u, "GBP"))
			panic("webhook blew up")
		})
	})

	var count int64
	require.NoError(t, db.Table("payu_currency_configs").Count(&count).Error)
	require.Zero(t, count, "panicking work must be rolled back")

	require.NoError(t, u.Do(context.Background(), func(ctx context.Context) error {
		return insertConfigRow(ctx, u, "GBP")
	}))
	require.NoError(t, db.Table("payu_currency_configs").Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestUnitOfWork_NestedDoJoinsOuterTransaction(t *testing.T) {
	db := newTestDB(t)
	createCurrencyConfigTable(t, db)
	u := &UnitOfWorkImpl{db: db}

	err := u.Do(context.Background(), func(ctx context.Context) error {
		outer := GetDB(ctx, db)
		if err := u.Do(ctx, func(inner context.Context) error {
			require.Same(t, outer, GetDB(inner, db))
			return insertConfigRow(inner, u, "EUR")
		}); err != nil {
			return err
		}
		return errors.New("outer fails")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Table("payu_currency_configs").Count(&count).Error)
	require.Zero(t, count, "inner work must roll back with the outer transaction")
}

func TestGetDB_FallbackOutsideTransaction(t *testing.T) {
	db := newTestDB(t)
	got := GetDB(context.Background(), db)
	require.NotNil(t, got)
	require.NotSame(t, db, got)
}

func TestForUpdate_SkipsSqlite(t *testing.T) {
	db := newTestDB(t)
	require.Same(t, db, forUpdate(db))
}
