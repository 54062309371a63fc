package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxRatePercent caps the annual rate a loan may carry.
const MaxRatePercent = 1000.0

// DisplayDateLayout is the en-US short date used for NextPayment ("May 15, 2025").
const DisplayDateLayout = "Jan 2, 2006"

type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

func (t Trend) Valid() bool {
	switch t {
	case TrendUp, TrendDown, TrendNeutral:
		return true
	}
	return false
}

// Loan is one tracked debt obligation. Loans are values: the store replaces a
// record on every mutation instead of editing it in place.
type Loan struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Lender            string    `json:"lender"`
	Amount            float64   `json:"amount"`
	Remaining         float64   `json:"remaining"`
	Progress          int       `json:"progress"`
	InterestRate      string    `json:"interestRate"`
	NextPayment       string    `json:"nextPayment"`
	NextAmount        float64   `json:"nextAmount"`
	Trend             Trend     `json:"trend"`
	PaymentsMade      int       `json:"paymentsMade"`
	PaymentsRemaining int       `json:"paymentsRemaining"`
	CreatedAt         Timestamp `json:"createdAt"`
}

// AnnualRate returns the interest rate as a decimal fraction (5.0% -> 0.05).
func (l Loan) AnnualRate() (float64, error) {
	pct, err := ParseRate(l.InterestRate)
	if err != nil {
		return 0, err
	}
	return pct / 100, nil
}

// LoanDraft is a loan without the fields the store assigns.
type LoanDraft struct {
	Name              string  `json:"name"`
	Lender            string  `json:"lender"`
	Amount            float64 `json:"amount"`
	Remaining         float64 `json:"remaining"`
	InterestRate      string  `json:"interestRate"`
	NextPayment       string  `json:"nextPayment"`
	NextAmount        float64 `json:"nextAmount"`
	Trend             Trend   `json:"trend"`
	PaymentsMade      int     `json:"paymentsMade"`
	PaymentsRemaining int     `json:"paymentsRemaining"`
}

// LoanPatch carries the fields to merge into an existing loan. Nil fields are
// left alone. Progress is always derived and cannot be patched.
type LoanPatch struct {
	Name              *string  `json:"name,omitempty"`
	Lender            *string  `json:"lender,omitempty"`
	Amount            *float64 `json:"amount,omitempty"`
	Remaining         *float64 `json:"remaining,omitempty"`
	InterestRate      *string  `json:"interestRate,omitempty"`
	NextPayment       *string  `json:"nextPayment,omitempty"`
	NextAmount        *float64 `json:"nextAmount,omitempty"`
	Trend             *Trend   `json:"trend,omitempty"`
	PaymentsMade      *int     `json:"paymentsMade,omitempty"`
	PaymentsRemaining *int     `json:"paymentsRemaining,omitempty"`
}

// Apply returns a copy of loan with the patch merged in.
func (p LoanPatch) Apply(loan Loan) Loan {
	if p.Name != nil {
		loan.Name = *p.Name
	}
	if p.Lender != nil {
		loan.Lender = *p.Lender
	}
	if p.Amount != nil {
		loan.Amount = *p.Amount
	}
	if p.Remaining != nil {
		loan.Remaining = *p.Remaining
	}
	if p.InterestRate != nil {
		loan.InterestRate = *p.InterestRate
	}
	if p.NextPayment != nil {
		loan.NextPayment = *p.NextPayment
	}
	if p.NextAmount != nil {
		loan.NextAmount = *p.NextAmount
	}
	if p.Trend != nil {
		loan.Trend = *p.Trend
	}
	if p.PaymentsMade != nil {
		loan.PaymentsMade = *p.PaymentsMade
	}
	if p.PaymentsRemaining != nil {
		loan.PaymentsRemaining = *p.PaymentsRemaining
	}
	return loan
}

// Validate checks the loan invariants that user input can break.
func (l Loan) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !isFinite(l.Amount) || l.Amount < 0 {
		return &ValidationError{Field: "amount", Reason: "must be a non-negative number"}
	}
	if !isFinite(l.Remaining) || l.Remaining < 0 {
		return &ValidationError{Field: "remaining", Reason: "must be a non-negative number"}
	}
	if l.Remaining > l.Amount {
		return &ValidationError{Field: "remaining", Reason: "must not exceed amount"}
	}
	if !isFinite(l.NextAmount) || l.NextAmount < 0 {
		return &ValidationError{Field: "nextAmount", Reason: "must be a non-negative number"}
	}
	pct, err := ParseRate(l.InterestRate)
	if err != nil {
		return err
	}
	if pct > MaxRatePercent {
		return &ValidationError{Field: "interestRate", Reason: fmt.Sprintf("must not exceed %s", FormatRate(MaxRatePercent))}
	}
	if !l.Trend.Valid() {
		return &ValidationError{Field: "trend", Reason: fmt.Sprintf("unknown trend %q", l.Trend)}
	}
	if l.PaymentsMade < 0 || l.PaymentsRemaining < 0 {
		return &ValidationError{Field: "payments", Reason: "counters must not be negative"}
	}
	return nil
}

// Progress is the integer percent of the principal already paid off.
func Progress(remaining, amount float64) int {
	if amount <= 0 {
		return 100
	}
	p := int(math.Round((1 - remaining/amount) * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ParseRate parses a display rate such as "3.5%" into its percent value (3.5).
func ParseRate(s string) (float64, error) {
	v := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	pct, err := strconv.ParseFloat(v, 64)
	if err != nil || !isFinite(pct) || pct < 0 {
		return 0, &ValidationError{Field: "interestRate", Reason: fmt.Sprintf("invalid rate %q", s)}
	}
	return pct, nil
}

// FormatRate renders a percent value for display, keeping at least one decimal.
func FormatRate(pct float64) string {
	s := strconv.FormatFloat(pct, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "%"
}

// NormalizeRate makes sure a user-supplied rate carries the trailing percent sign.
func NormalizeRate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, "%") {
		return s
	}
	return s + "%"
}

// FormatDisplayDate renders t the way NextPayment is shown on the dashboard.
func FormatDisplayDate(t time.Time) string {
	return t.Format(DisplayDateLayout)
}

// ParseDisplayDate accepts "May 15, 2025" and the long-month variant.
func ParseDisplayDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DisplayDateLayout, "January 2, 2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
