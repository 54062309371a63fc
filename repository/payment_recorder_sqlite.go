package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"loan-dashboard/domain"
)

// SQLitePaymentRecorder persists payment history to a SQLite database.
type SQLitePaymentRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLitePaymentRecorder opens (or creates) the database and runs migrations.
func NewSQLitePaymentRecorder(dbPath string, logger *zap.Logger) (*SQLitePaymentRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLitePaymentRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite payment recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLitePaymentRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS payments (
			id              TEXT PRIMARY KEY,
			loan_id         INTEGER NOT NULL,
			loan_name       TEXT,
			amount          REAL,
			principal_paid  REAL,
			interest_paid   REAL,
			remaining_after REAL,
			paid_at         INTEGER NOT NULL,
			status          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_paid_at ON payments(paid_at)`,
	}
	for i, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}

func (r *SQLitePaymentRecorder) Record(ctx context.Context, rec domain.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO payments
		(id, loan_id, loan_name, amount, principal_paid, interest_paid, remaining_after, paid_at, status)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.LoanID, rec.LoanName, rec.Amount,
		rec.PrincipalPaid, rec.InterestPaid, rec.RemainingAfter,
		rec.PaidAt.UnixMilli(), rec.Status,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *SQLitePaymentRecorder) Recent(ctx context.Context, limit int) ([]domain.PaymentRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, loan_id, loan_name, amount, principal_paid, interest_paid, remaining_after, paid_at, status
		FROM payments ORDER BY paid_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	out := []domain.PaymentRecord{}
	for rows.Next() {
		var (
			rec    domain.PaymentRecord
			paidAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.LoanID, &rec.LoanName, &rec.Amount,
			&rec.PrincipalPaid, &rec.InterestPaid, &rec.RemainingAfter, &paidAt, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		rec.PaidAt = time.UnixMilli(paidAt).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLitePaymentRecorder) Close() error {
	r.logger.Info("closing sqlite payment recorder")
	return r.db.Close()
}
