package service

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"loan-dashboard/domain"
	"loan-dashboard/metrics"
)

// Reminder periodically scans the store for loans whose next payment is close.
type Reminder struct {
	Cron   *cron.Cron
	store  *LoanStore
	window int
	now    func() time.Time
	logger *zap.Logger
}

// NewReminder creates a Reminder flagging payments due within window days.
func NewReminder(store *LoanStore, window int, logger *zap.Logger) *Reminder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = DefaultReminderWindow
	}
	return &Reminder{
		Cron:   cron.New(cron.WithSeconds()),
		store:  store,
		window: window,
		now:    time.Now,
		logger: logger,
	}
}

// Register adds the scan job on a six field cron expression.
func (r *Reminder) Register(expr string) error {
	if _, err := r.Cron.AddFunc(expr, func() { r.Scan(r.now()) }); err != nil {
		return fmt.Errorf("register reminder: %w", err)
	}
	return nil
}

func (r *Reminder) Start() {
	r.Cron.Start()
	r.logger.Info("reminder started", zap.Int("window_days", r.window))
}

// Stop waits for a running scan to finish.
func (r *Reminder) Stop() {
	<-r.Cron.Stop().Done()
	r.logger.Info("reminder stopped")
}

// Scan returns the unpaid loans due on or before now plus the window,
// overdue ones included.
func (r *Reminder) Scan(now time.Time) []domain.Loan {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	limit := today.AddDate(0, 0, r.window)

	var due []domain.Loan
	for _, l := range r.store.List() {
		if l.Remaining <= 0 {
			continue
		}
		date, err := domain.ParseDisplayDate(l.NextPayment)
		if err != nil {
			r.logger.Debug("skipping loan with unreadable due date",
				zap.Int64("loan_id", l.ID), zap.String("next_payment", l.NextPayment))
			continue
		}
		if date.After(limit) {
			continue
		}
		due = append(due, l)
		r.logger.Info("payment due soon",
			zap.Int64("loan_id", l.ID),
			zap.String("loan", l.Name),
			zap.String("due", l.NextPayment),
			zap.Float64("amount", l.NextAmount),
			zap.Int("days_left", int(date.Sub(today).Hours()/24)))
	}
	metrics.LoansDueSoon.Set(float64(len(due)))
	return due
}
