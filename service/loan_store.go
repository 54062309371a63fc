package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"loan-dashboard/domain"
	"loan-dashboard/metrics"
	"loan-dashboard/repository"
)

var ErrStoreNotLoaded = errors.New("loan store not loaded")

// LoanStore is the single owner of the loan collection. Every mutation builds
// a new collection, writes the whole thing to the cache under one key and only
// then makes it current, so a failed write leaves the previous state intact.
type LoanStore struct {
	mu     sync.Mutex
	loans  []domain.Loan
	loaded bool

	cache  repository.CacheRepository
	key    string
	ids    IDGenerator
	now    func() time.Time
	logger *zap.Logger
}

type StoreOption func(*LoanStore)

func WithStorageKey(key string) StoreOption {
	return func(s *LoanStore) { s.key = key }
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *LoanStore) { s.now = now }
}

func WithIDGenerator(ids IDGenerator) StoreOption {
	return func(s *LoanStore) { s.ids = ids }
}

func WithStoreLogger(logger *zap.Logger) StoreOption {
	return func(s *LoanStore) { s.logger = logger }
}

func NewLoanStore(cache repository.CacheRepository, opts ...StoreOption) *LoanStore {
	s := &LoanStore{
		cache:  cache,
		key:    StorageKey,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = NewMonotonicIDs(s.now)
	}
	return s
}

// Load reads the collection from the cache. A missing or unreadable payload
// is replaced with the default loans; only a backend failure is returned.
func (s *LoanStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found, err := s.cache.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("load loans: %w", err)
	}

	var loans []domain.Loan
	switch {
	case !found:
		s.logger.Info("no saved loans, seeding defaults", zap.String("key", s.key))
		loans = DefaultLoans(s.now())
	default:
		loans, err = decodeLoans(raw)
		if err != nil {
			s.logger.Warn("failed to parse saved loans, seeding defaults",
				zap.String("key", s.key), zap.Error(err))
			loans = DefaultLoans(s.now())
			found = false
		}
	}

	if !found {
		if err := s.persist(ctx, loans); err != nil {
			return err
		}
	}

	for _, l := range loans {
		s.ids.Observe(l.ID)
	}
	s.loans = loans
	s.loaded = true
	metrics.LoansTracked.Set(float64(len(loans)))
	s.logger.Info("loans loaded", zap.Int("count", len(loans)))
	return nil
}

func decodeLoans(raw string) ([]domain.Loan, error) {
	if strings.TrimSpace(raw) == "null" {
		return nil, errors.New("payload is null")
	}
	var loans []domain.Loan
	if err := json.Unmarshal([]byte(raw), &loans); err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(loans))
	for _, l := range loans {
		if l.ID <= 0 {
			return nil, fmt.Errorf("invalid loan id %d", l.ID)
		}
		if seen[l.ID] {
			return nil, fmt.Errorf("duplicate loan id %d", l.ID)
		}
		seen[l.ID] = true
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("loan %d: %w", l.ID, err)
		}
	}
	if loans == nil {
		loans = []domain.Loan{}
	}
	return loans, nil
}

// List returns a copy of the collection in insertion order.
func (s *LoanStore) List() []domain.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLoans(s.loans)
}

func (s *LoanStore) Get(id int64) (domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.loans, id); i >= 0 {
		return s.loans[i], nil
	}
	return domain.Loan{}, fmt.Errorf("loan %d: %w", id, domain.ErrLoanNotFound)
}

func (s *LoanStore) AddLoan(ctx context.Context, draft domain.LoanDraft) (domain.Loan, error) {
	var added domain.Loan
	err := s.mutate(ctx, "add", func(loans []domain.Loan) ([]domain.Loan, error) {
		now := s.now()
		loan := domain.Loan{
			Name:              strings.TrimSpace(draft.Name),
			Lender:            strings.TrimSpace(draft.Lender),
			Amount:            draft.Amount,
			Remaining:         draft.Remaining,
			InterestRate:      domain.NormalizeRate(draft.InterestRate),
			NextPayment:       draft.NextPayment,
			NextAmount:        draft.NextAmount,
			Trend:             draft.Trend,
			PaymentsMade:      draft.PaymentsMade,
			PaymentsRemaining: draft.PaymentsRemaining,
			CreatedAt:         domain.NewTimestamp(now),
		}
		if loan.Trend == "" {
			loan.Trend = domain.TrendNeutral
		}
		if loan.NextPayment == "" {
			loan.NextPayment = domain.FormatDisplayDate(now)
		}
		loan.Progress = domain.Progress(loan.Remaining, loan.Amount)
		if err := loan.Validate(); err != nil {
			return nil, err
		}
		loan.ID = s.ids.Next()
		added = loan
		return append(loans, loan), nil
	})
	return added, err
}

// UpdateLoan merges patch into the loan with the given id.
func (s *LoanStore) UpdateLoan(ctx context.Context, id int64, patch domain.LoanPatch) (domain.Loan, error) {
	var updated domain.Loan
	err := s.mutate(ctx, "update", func(loans []domain.Loan) ([]domain.Loan, error) {
		i := indexOf(loans, id)
		if i < 0 {
			return nil, fmt.Errorf("loan %d: %w", id, domain.ErrLoanNotFound)
		}
		loan := patch.Apply(loans[i])
		loan.InterestRate = domain.NormalizeRate(loan.InterestRate)
		if patch.Amount != nil || patch.Remaining != nil {
			loan.Progress = domain.Progress(loan.Remaining, loan.Amount)
		}
		if err := loan.Validate(); err != nil {
			return nil, err
		}
		loans[i] = loan
		updated = loan
		return loans, nil
	})
	return updated, err
}

// DeleteLoan removes the loan and reports whether it existed. Deleting an
// unknown id is not an error.
func (s *LoanStore) DeleteLoan(ctx context.Context, id int64) (bool, error) {
	var removed bool
	err := s.mutate(ctx, "delete", func(loans []domain.Loan) ([]domain.Loan, error) {
		out := loans[:0]
		for _, l := range loans {
			if l.ID == id {
				removed = true
				continue
			}
			out = append(out, l)
		}
		return out, nil
	})
	return removed, err
}

// MakePayment applies one scheduled installment: interest accrues on the
// remaining balance at rate/12 and the rest of NextAmount reduces principal.
// The next due date moves to one calendar month from now.
func (s *LoanStore) MakePayment(ctx context.Context, id int64) (domain.PaymentOutcome, error) {
	var outcome domain.PaymentOutcome
	err := s.mutate(ctx, "payment", func(loans []domain.Loan) ([]domain.Loan, error) {
		i := indexOf(loans, id)
		if i < 0 {
			return nil, fmt.Errorf("loan %d: %w", id, domain.ErrLoanNotFound)
		}
		loan := loans[i]
		if loan.Remaining <= 0 {
			return nil, fmt.Errorf("loan %d: %w", id, domain.ErrLoanPaidOff)
		}

		rate, err := loan.AnnualRate()
		if err != nil {
			return nil, err
		}
		monthlyInterest := loan.Remaining * rate / 12
		principalPortion := loan.NextAmount - monthlyInterest
		if !isFinite(monthlyInterest) || !isFinite(principalPortion) {
			return nil, fmt.Errorf("loan %d: %w", id, overflowError("interestRate"))
		}

		newRemaining := roundTo2Decimals(math.Max(0, loan.Remaining-principalPortion))
		if newRemaining > loan.Amount {
			newRemaining = loan.Amount
		}

		paid := loan
		paid.Remaining = newRemaining
		paid.Progress = domain.Progress(newRemaining, loan.Amount)
		paid.PaymentsMade = loan.PaymentsMade + 1
		paid.PaymentsRemaining = max(0, loan.PaymentsRemaining-1)
		if newRemaining == 0 {
			paid.PaymentsRemaining = 0
		}
		paid.NextPayment = domain.FormatDisplayDate(s.now().AddDate(0, 1, 0))

		loans[i] = paid
		outcome = domain.PaymentOutcome{
			Loan:          paid,
			Installment:   loan.NextAmount,
			PrincipalPaid: roundTo2Decimals(loan.Remaining - newRemaining),
			InterestPaid:  roundTo2Decimals(monthlyInterest),
			PaidOff:       newRemaining == 0,
		}
		return loans, nil
	})
	if err == nil {
		status := "applied"
		if outcome.PaidOff {
			status = "paid_off"
		}
		metrics.Payments.WithLabelValues(status).Inc()
	}
	return outcome, err
}

func (s *LoanStore) mutate(
	ctx context.Context,
	op string,
	fn func([]domain.Loan) ([]domain.Loan, error),
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrStoreNotLoaded
	}

	next, err := fn(cloneLoans(s.loans))
	if err != nil {
		metrics.StoreMutations.WithLabelValues(op, "rejected").Inc()
		return err
	}
	if err := s.persist(ctx, next); err != nil {
		metrics.StoreMutations.WithLabelValues(op, "error").Inc()
		s.logger.Error("failed to persist loans", zap.String("op", op), zap.Error(err))
		return err
	}

	s.loans = next
	metrics.StoreMutations.WithLabelValues(op, "ok").Inc()
	metrics.LoansTracked.Set(float64(len(next)))
	return nil
}

func (s *LoanStore) persist(ctx context.Context, loans []domain.Loan) error {
	if loans == nil {
		loans = []domain.Loan{}
	}
	data, err := json.Marshal(loans)
	if err != nil {
		return fmt.Errorf("encode loans: %w", err)
	}
	if err := s.cache.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("save loans: %w", err)
	}
	return nil
}

func cloneLoans(loans []domain.Loan) []domain.Loan {
	out := make([]domain.Loan, len(loans))
	copy(out, loans)
	return out
}

func indexOf(loans []domain.Loan, id int64) int {
	for i, l := range loans {
		if l.ID == id {
			return i
		}
	}
	return -1
}
