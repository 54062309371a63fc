package repository

import (
	"context"
	"sync"

	"loan-dashboard/domain"
)

// MemoryPaymentRecorder is an in-memory implementation of PaymentRecorder.
type MemoryPaymentRecorder struct {
	mu   sync.Mutex
	data []domain.PaymentRecord
}

// NewMemoryPaymentRecorder creates a new in-memory payment recorder.
func NewMemoryPaymentRecorder() *MemoryPaymentRecorder {
	return &MemoryPaymentRecorder{
		data: []domain.PaymentRecord{},
	}
}

// Record stores the payment in memory.
func (r *MemoryPaymentRecorder) Record(_ context.Context, rec domain.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, rec)
	return nil
}

func (r *MemoryPaymentRecorder) Recent(_ context.Context, limit int) ([]domain.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.data) {
		limit = len(r.data)
	}
	out := make([]domain.PaymentRecord, 0, limit)
	for i := len(r.data) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.data[i])
	}
	return out, nil
}

func (r *MemoryPaymentRecorder) Close() error { return nil }
