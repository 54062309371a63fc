package service

import (
	"fmt"
	"iter"

	"loan-dashboard/domain"
)

// Limits caps what the calculation endpoints accept.
type Limits struct {
	MaxLoanAmount   float64
	MaxInterestRate float64
	MaxTermMonths   int
}

func DefaultLimits() Limits {
	return Limits{
		MaxLoanAmount:   MaxLoanAmount,
		MaxInterestRate: MaxInterestRate,
		MaxTermMonths:   MaxTermMonths,
	}
}

type LoanService struct {
	limits Limits
}

// NewLoanService creates a LoanService enforcing the given limits.
func NewLoanService(limits Limits) *LoanService {
	return &LoanService{limits: limits}
}

// CalculateLoan calculates the loan details based on the input parameters.
func (s *LoanService) CalculateLoan(
	input domain.LoanInput,
) (domain.LoanResult, error) {
	if err := s.validate(input); err != nil {
		return domain.LoanResult{}, err
	}

	payment, err := CalculateEMI(input.Amount, input.InterestRate, input.TermMonths)
	if err != nil {
		return domain.LoanResult{}, err
	}

	return domain.LoanResult{
		MonthlyPayment: payment,
		TotalPayment:   roundTo2Decimals(payment * float64(input.TermMonths)),
		TotalInterest:  CalculateTotalInterest(input.Amount, payment, input.TermMonths),
	}, nil
}

// Schedule validates input against the limits and returns its amortization schedule.
func (s *LoanService) Schedule(input domain.LoanInput) (iter.Seq[domain.SchedulePeriod], error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	return GenerateAmortizationSchedule(input.Amount, input.InterestRate, input.TermMonths)
}

func (s *LoanService) validate(input domain.LoanInput) error {
	if !isFinite(input.Amount) || input.Amount <= 0 {
		return &domain.ValidationError{Field: "principal", Reason: "must be greater than zero"}
	}
	if input.Amount > s.limits.MaxLoanAmount {
		return &domain.ValidationError{
			Field:  "principal",
			Reason: fmt.Sprintf("exceeds the maximum of $%.2f", s.limits.MaxLoanAmount),
		}
	}
	if !isFinite(input.InterestRate) || input.InterestRate < 0 {
		return &domain.ValidationError{Field: "annualRatePercent", Reason: "must not be negative"}
	}
	if input.InterestRate > s.limits.MaxInterestRate {
		return &domain.ValidationError{
			Field:  "annualRatePercent",
			Reason: fmt.Sprintf("exceeds the maximum of %.2f%%", s.limits.MaxInterestRate),
		}
	}
	if input.TermMonths < MinTermMonths {
		return &domain.ValidationError{Field: "termMonths", Reason: "must be at least one month"}
	}
	if input.TermMonths > s.limits.MaxTermMonths {
		return &domain.ValidationError{
			Field:  "termMonths",
			Reason: fmt.Sprintf("exceeds the maximum of %d months", s.limits.MaxTermMonths),
		}
	}
	return nil
}
