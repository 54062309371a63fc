package service

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"loan-dashboard/domain"
)

// ScheduleService projects the monthly payment calendar and the current
// principal/interest split of the tracked loans.
type ScheduleService struct {
	store *LoanStore
	now   func() time.Time
}

func NewScheduleService(store *LoanStore) *ScheduleService {
	return &ScheduleService{store: store, now: time.Now}
}

// Upcoming lists payments for the next months calendar months, optionally for
// a single loan (loanID 0 means all).
func (s *ScheduleService) Upcoming(months int, loanID int64) []domain.UpcomingPayment {
	if months <= 0 {
		months = DefaultUpcomingMonths
	}
	return UpcomingPayments(s.store.List(), s.now(), months, loanID)
}

func (s *ScheduleService) Breakdown() (domain.BreakdownSummary, error) {
	return PaymentBreakdown(s.store.List())
}

// UpcomingPayments places each loan's installment on its usual day of the
// month for months consecutive months starting at now's month. Dates that
// are already behind now count as paid.
func UpcomingPayments(loans []domain.Loan, now time.Time, months int, loanID int64) []domain.UpcomingPayment {
	out := make([]domain.UpcomingPayment, 0, months*len(loans))
	for i := range months {
		for _, l := range loans {
			if loanID != 0 && l.ID != loanID {
				continue
			}
			date := time.Date(now.Year(), now.Month()+time.Month(i), paymentDay(l.NextPayment),
				0, 0, 0, 0, now.Location())
			status := domain.UpcomingStatusUpcoming
			if date.Before(now) {
				status = domain.UpcomingStatusPaid
			}
			out = append(out, domain.UpcomingPayment{
				ID:       fmt.Sprintf("%d-%d", l.ID, i),
				LoanID:   l.ID,
				LoanName: l.Name,
				Date:     date,
				Amount:   l.NextAmount,
				Status:   status,
			})
		}
	}
	slices.SortStableFunc(out, func(a, b domain.UpcomingPayment) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

// paymentDay reads the day out of "May 15, 2025".
func paymentDay(nextPayment string) int {
	parts := strings.Fields(nextPayment)
	if len(parts) < 2 {
		return DefaultPaymentDay
	}
	day, err := strconv.Atoi(strings.TrimSuffix(parts[1], ","))
	if err != nil || day < 1 || day > 31 {
		return DefaultPaymentDay
	}
	return day
}

// PaymentBreakdown splits each loan's next installment into interest
// (remaining * rate / 12) and principal.
func PaymentBreakdown(loans []domain.Loan) (domain.BreakdownSummary, error) {
	summary := domain.BreakdownSummary{Loans: make([]domain.LoanBreakdown, 0, len(loans))}
	var totalPayment, totalPrincipal, totalInterest float64

	for _, l := range loans {
		rate, err := l.AnnualRate()
		if err != nil {
			return domain.BreakdownSummary{}, fmt.Errorf("loan %d: %w", l.ID, err)
		}
		interest := l.Remaining * rate / 12
		principal := l.NextAmount - interest
		if !isFinite(interest) || !isFinite(principal) {
			return domain.BreakdownSummary{}, fmt.Errorf("loan %d: %w", l.ID, overflowError("interestRate"))
		}

		summary.Loans = append(summary.Loans, domain.LoanBreakdown{
			Name:      l.Name,
			Remaining: l.Remaining,
			Payment:   l.NextAmount,
			Principal: roundTo2Decimals(principal),
			Interest:  roundTo2Decimals(interest),
		})
		totalPayment += l.NextAmount
		totalPrincipal += principal
		totalInterest += interest
	}

	if !isFinite(totalPayment) || !isFinite(totalPrincipal) || !isFinite(totalInterest) {
		return domain.BreakdownSummary{}, overflowError("loans")
	}
	summary.TotalPayment = roundTo2Decimals(totalPayment)
	summary.TotalPrincipal = roundTo2Decimals(totalPrincipal)
	summary.TotalInterest = roundTo2Decimals(totalInterest)
	return summary, nil
}
