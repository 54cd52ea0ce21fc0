package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return newTestDBWithLogger(t, nil)
}

func newTestDBWithLogger(t *testing.T, l gormlogger.Interface) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: l})
	require.NoError(t, err, "open sqlite")
	return db
}

// gormLogSink collects what gorm's logger prints.
type gormLogSink struct {
	lines []string
}

func (s *gormLogSink) Printf(format string, args ...interface{}) {
	s.lines = append(s.lines, fmt.Sprintf(format, args...))
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createCurrencyConfigTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE payu_currency_configs (
		id TEXT PRIMARY KEY,
		currency TEXT NOT NULL,
		merchant_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		client_secret TEXT NOT NULL,
		environment TEXT NOT NULL DEFAULT 'uat',
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
}

func createApiTokenTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE payu_api_tokens (
		id TEXT PRIMARY KEY,
		merchant_id TEXT NOT NULL,
		environment TEXT NOT NULL,
		scope TEXT NOT NULL,
		scope_hash TEXT NOT NULL,
		access_token TEXT NOT NULL,
		expires_at DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (merchant_id, environment, scope_hash)
	);`)
}

func createPaymentLinkTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE payu_payment_links (
		id TEXT PRIMARY KEY,
		order_id INTEGER NOT NULL,
		config_id TEXT NOT NULL,
		invoice_number TEXT NOT NULL UNIQUE,
		payment_link_url TEXT NOT NULL,
		currency TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL DEFAULT '0',
		remaining_amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		payment_link_status TEXT NOT NULL DEFAULT 'active',
		expiry_date DATETIME,
		partial_allowed BOOLEAN NOT NULL DEFAULT 0,
		min_initial_amount TEXT NOT NULL DEFAULT '0',
		instalments INTEGER NOT NULL DEFAULT 0,
		customer_name TEXT,
		customer_email TEXT,
		customer_phone TEXT,
		notify_email BOOLEAN NOT NULL DEFAULT 0,
		notify_sms BOOLEAN NOT NULL DEFAULT 0,
		provider_response TEXT,
		is_deleted BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createTransactionTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE payu_payment_transactions (
		id TEXT PRIMARY KEY,
		payment_link_id TEXT NOT NULL,
		transaction_id TEXT UNIQUE,
		merchant_reference_id TEXT,
		invoice_number TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL,
		payment_mode TEXT,
		pg_type TEXT,
		bank_code TEXT,
		bank_reference TEXT,
		card_number TEXT,
		card_type TEXT,
		issuing_bank TEXT,
		name_on_card TEXT,
		payment_source TEXT,
		payer_name TEXT,
		payer_email TEXT,
		payer_phone TEXT,
		raw_payload TEXT,
		occurred_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createAllTables(t *testing.T, db *gorm.DB) {
	createCurrencyConfigTable(t, db)
	createApiTokenTable(t, db)
	createPaymentLinkTable(t, db)
	createTransactionTable(t, db)
}
