package service

import (
	"context"
	"strings"
	"sync"

	"loan-dashboard/domain"
)

// Calculator is the quick "what if" pad. Every setter recomputes the derived
// monthly payment and total interest before returning.
type Calculator struct {
	mu     sync.Mutex
	state  domain.CalculatorState
	limits Limits
}

// NewCalculator starts from a 100000 / 5% / 30 year loan and rejects inputs
// beyond limits.
func NewCalculator(limits Limits) *Calculator {
	c := &Calculator{
		state: domain.CalculatorState{
			LoanAmount:   calculatorDefaultLoan,
			InterestRate: calculatorDefaultRate,
			LoanTerm:     calculatorDefaultTerm,
		},
		limits: limits,
	}
	// defaults are always valid
	_ = c.recompute(&c.state)
	return c
}

func (c *Calculator) State() domain.CalculatorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Calculator) SetLoanAmount(amount float64) (domain.CalculatorState, error) {
	return c.Apply(domain.CalculatorUpdate{LoanAmount: &amount})
}

func (c *Calculator) SetInterestRate(ratePercent float64) (domain.CalculatorState, error) {
	return c.Apply(domain.CalculatorUpdate{InterestRate: &ratePercent})
}

func (c *Calculator) SetLoanTerm(years int) (domain.CalculatorState, error) {
	return c.Apply(domain.CalculatorUpdate{LoanTerm: &years})
}

// Apply sets every non-nil input at once. On error the previous state is kept.
func (c *Calculator) Apply(u domain.CalculatorUpdate) (domain.CalculatorState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.state
	if u.LoanAmount != nil {
		next.LoanAmount = *u.LoanAmount
	}
	if u.InterestRate != nil {
		next.InterestRate = *u.InterestRate
	}
	if u.LoanTerm != nil {
		next.LoanTerm = *u.LoanTerm
	}
	if err := validateCalculator(next, c.limits); err != nil {
		return c.state, err
	}
	if err := c.recompute(&next); err != nil {
		return c.state, err
	}
	c.state = next
	return next, nil
}

func (c *Calculator) recompute(st *domain.CalculatorState) error {
	months := st.LoanTerm * 12
	payment, err := CalculateEMI(st.LoanAmount, st.InterestRate, months)
	if err != nil {
		return err
	}
	st.MonthlyPayment = payment
	st.TotalInterest = CalculateTotalInterest(st.LoanAmount, payment, months)
	return nil
}

func validateCalculator(st domain.CalculatorState, limits Limits) error {
	if !isFinite(st.LoanAmount) || st.LoanAmount < 0 {
		return &domain.ValidationError{Field: "loanAmount", Reason: "must be a finite, non-negative amount"}
	}
	if st.LoanAmount > limits.MaxLoanAmount {
		return &domain.ValidationError{Field: "loanAmount", Reason: "is too large"}
	}
	if !isFinite(st.InterestRate) || st.InterestRate < 0 {
		return &domain.ValidationError{Field: "interestRate", Reason: "must be a finite, non-negative rate"}
	}
	if st.InterestRate > limits.MaxInterestRate {
		return &domain.ValidationError{Field: "interestRate", Reason: "is too high"}
	}
	if st.LoanTerm <= 0 {
		return &domain.ValidationError{Field: "loanTerm", Reason: "must be at least one year"}
	}
	if st.LoanTerm > limits.MaxTermMonths/12 {
		return &domain.ValidationError{Field: "loanTerm", Reason: "is too long"}
	}
	return nil
}

// PromoteCalculator turns a calculator snapshot into a tracked loan.
func (s *LoanStore) PromoteCalculator(
	ctx context.Context,
	name, lender string,
	calc domain.CalculatorState,
) (domain.Loan, error) {
	if strings.TrimSpace(name) == "" {
		name = "New Loan"
	}
	return s.AddLoan(ctx, domain.LoanDraft{
		Name:              name,
		Lender:            lender,
		Amount:            calc.LoanAmount,
		Remaining:         calc.LoanAmount,
		InterestRate:      domain.FormatRate(calc.InterestRate),
		NextPayment:       domain.FormatDisplayDate(s.now().AddDate(0, 1, 0)),
		NextAmount:        calc.MonthlyPayment,
		Trend:             domain.TrendNeutral,
		PaymentsRemaining: calc.LoanTerm * 12,
	})
}
