package service

import (
	"time"

	"loan-dashboard/domain"
)

// DefaultLoans is the example portfolio used on first run and whenever the
// persisted collection cannot be read back.
func DefaultLoans(now time.Time) []domain.Loan {
	created := domain.NewTimestamp(now)
	return []domain.Loan{
		{
			ID:                1,
			Name:              "Home Loan",
			Amount:            250000,
			Remaining:         175000,
			Progress:          30,
			NextPayment:       "May 15, 2025",
			NextAmount:        1250,
			InterestRate:      "3.5%",
			Trend:             domain.TrendDown,
			Lender:            "National Bank",
			PaymentsMade:      48,
			PaymentsRemaining: 312,
			CreatedAt:         created,
		},
		{
			ID:                2,
			Name:              "Auto Loan",
			Amount:            35000,
			Remaining:         12000,
			Progress:          65,
			NextPayment:       "May 10, 2025",
			NextAmount:        450,
			InterestRate:      "4.2%",
			Trend:             domain.TrendDown,
			Lender:            "Auto Finance Co.",
			PaymentsMade:      36,
			PaymentsRemaining: 24,
			CreatedAt:         created,
		},
		{
			ID:                3,
			Name:              "Student Loan",
			Amount:            50000,
			Remaining:         20000,
			Progress:          60,
			NextPayment:       "May 20, 2025",
			NextAmount:        500,
			InterestRate:      "5.0%",
			Trend:             domain.TrendNeutral,
			Lender:            "Student Loan Corp",
			PaymentsMade:      60,
			PaymentsRemaining: 60,
			CreatedAt:         created,
		},
	}
}
