package repository

import (
	"context"

	"loan-dashboard/domain"
)

// PaymentRecorder keeps the payment history the store itself does not track.
type PaymentRecorder interface {
	Record(ctx context.Context, rec domain.PaymentRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]domain.PaymentRecord, error)
	Close() error
}
