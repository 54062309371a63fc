package service

import (
	"iter"
	"math"

	"github.com/shopspring/decimal"

	"loan-dashboard/domain"
)

// roundTo2Decimals rounds half away from zero to the cent; 1.005 gives 1.01.
// NaN and infinities come back unchanged.
func roundTo2Decimals(value float64) float64 {
	if !isFinite(value) {
		return value
	}
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validateTerms(principal, annualRatePercent float64, termMonths int) error {
	if !isFinite(principal) || principal < 0 {
		return &domain.ValidationError{Field: "principal", Reason: "must be a finite, non-negative amount"}
	}
	if !isFinite(annualRatePercent) || annualRatePercent < 0 {
		return &domain.ValidationError{Field: "annualRatePercent", Reason: "must be a finite, non-negative rate"}
	}
	if termMonths < MinTermMonths {
		return &domain.ValidationError{Field: "termMonths", Reason: "must be at least one month"}
	}
	return nil
}

func overflowError(field string) error {
	return &domain.ValidationError{Field: field, Reason: "too large to compute"}
}

// rawEMI is the unrounded installment; r is the monthly decimal rate.
func rawEMI(principal, r float64, n int) float64 {
	if r == 0 {
		return principal / float64(n)
	}
	factor := math.Pow(1+r, float64(n))
	return principal * r * factor / (factor - 1)
}

// CalculateEMI returns the fixed monthly installment that amortizes principal
// over termMonths at annualRatePercent:
//
//	r   = annualRatePercent / 12 / 100
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1)
//
// A zero rate is an even split. A positive installment below one cent is
// charged as one cent so the loan still amortizes.
func CalculateEMI(principal, annualRatePercent float64, termMonths int) (float64, error) {
	if err := validateTerms(principal, annualRatePercent, termMonths); err != nil {
		return 0, err
	}
	r := annualRatePercent / 12 / 100
	emi := rawEMI(principal, r, termMonths)
	if !isFinite(emi) {
		return 0, overflowError("termMonths")
	}
	if emi > 0 && emi < 0.01 {
		return 0.01, nil
	}
	return roundTo2Decimals(emi), nil
}

// CalculateTotalInterest is payment*n - principal. It is not validated and can
// be negative for an underpaying installment.
func CalculateTotalInterest(principal, monthlyPayment float64, termMonths int) float64 {
	return roundTo2Decimals(monthlyPayment*float64(termMonths) - principal)
}

// GenerateAmortizationSchedule validates the inputs and returns a lazy
// schedule. Every range over the sequence recomputes it from the inputs, so
// it can be consumed any number of times.
func GenerateAmortizationSchedule(
	principal float64,
	annualRatePercent float64,
	termMonths int,
) (iter.Seq[domain.SchedulePeriod], error) {
	if err := validateTerms(principal, annualRatePercent, termMonths); err != nil {
		return nil, err
	}

	r := annualRatePercent / 12 / 100
	payment := rawEMI(principal, r, termMonths)
	if !isFinite(payment) {
		return nil, overflowError("termMonths")
	}

	return func(yield func(domain.SchedulePeriod) bool) {
		balance := principal
		for period := 1; period <= termMonths; period++ {
			interest := balance * r
			principalPart := payment - interest
			pay := payment

			// Last period: absorb rounding so the balance lands exactly on zero.
			if period == termMonths {
				principalPart = balance
				pay = principalPart + interest
			}

			balance = math.Max(0, balance-principalPart)

			row := domain.SchedulePeriod{
				Period:           period,
				Payment:          roundTo2Decimals(pay),
				PrincipalPortion: roundTo2Decimals(principalPart),
				InterestPortion:  roundTo2Decimals(interest),
				Balance:          roundTo2Decimals(balance),
			}
			if !yield(row) {
				return
			}
		}
	}, nil
}

// YearlyPeriods thins a schedule down to period 1 and every twelfth period,
// the sampling the calculator view shows.
func YearlyPeriods(schedule iter.Seq[domain.SchedulePeriod]) iter.Seq[domain.SchedulePeriod] {
	return func(yield func(domain.SchedulePeriod) bool) {
		for row := range schedule {
			if row.Period != 1 && row.Period%12 != 0 {
				continue
			}
			if !yield(row) {
				return
			}
		}
	}
}
