package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"loan-dashboard/domain"
	"loan-dashboard/repository"
)

// PaymentService applies installments through the store and keeps a history
// of them in a PaymentRecorder.
type PaymentService struct {
	store    *LoanStore
	recorder repository.PaymentRecorder
	now      func() time.Time
	logger   *zap.Logger
}

func NewPaymentService(
	store *LoanStore,
	recorder repository.PaymentRecorder,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		store:    store,
		recorder: recorder,
		now:      time.Now,
		logger:   logger,
	}
}

// Pay applies one installment to the loan. The installment stands even if the
// history write fails.
func (s *PaymentService) Pay(ctx context.Context, loanID int64) (domain.PaymentReceipt, error) {
	outcome, err := s.store.MakePayment(ctx, loanID)
	if err != nil {
		return domain.PaymentReceipt{}, err
	}

	rec := domain.PaymentRecord{
		ID:             uuid.NewString(),
		LoanID:         loanID,
		LoanName:       outcome.Loan.Name,
		Amount:         outcome.Installment,
		PrincipalPaid:  outcome.PrincipalPaid,
		InterestPaid:   outcome.InterestPaid,
		RemainingAfter: outcome.Loan.Remaining,
		PaidAt:         s.now().UTC(),
		Status:         domain.PaymentStatusCompleted,
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		s.logger.Error("failed to record payment",
			zap.Int64("loan_id", loanID), zap.String("payment_id", rec.ID), zap.Error(err))
	}

	s.logger.Info("payment applied",
		zap.Int64("loan_id", loanID),
		zap.Float64("remaining", outcome.Loan.Remaining),
		zap.Bool("paid_off", outcome.PaidOff))

	return domain.PaymentReceipt{PaymentOutcome: outcome, Record: rec}, nil
}

func (s *PaymentService) Recent(ctx context.Context, limit int) ([]domain.PaymentRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentPayments
	}
	return s.recorder.Recent(ctx, limit)
}
