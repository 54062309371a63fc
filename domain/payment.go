package domain

import "time"

// PaymentOutcome is what the store reports after applying one installment.
type PaymentOutcome struct {
	Loan          Loan    `json:"loan"`
	Installment   float64 `json:"installment"`
	PrincipalPaid float64 `json:"principalPaid"`
	InterestPaid  float64 `json:"interestPaid"`
	PaidOff       bool    `json:"paidOff"`
}

const PaymentStatusCompleted = "Completed"

type PaymentRecord struct {
	ID             string    `json:"id"`
	LoanID         int64     `json:"loanId"`
	LoanName       string    `json:"loan"`
	Amount         float64   `json:"amount"`
	PrincipalPaid  float64   `json:"principalPaid"`
	InterestPaid   float64   `json:"interestPaid"`
	RemainingAfter float64   `json:"remainingAfter"`
	PaidAt         time.Time `json:"paidAt"`
	Status         string    `json:"status"`
}

type PaymentReceipt struct {
	PaymentOutcome
	Record PaymentRecord `json:"record"`
}

const (
	UpcomingStatusPaid     = "paid"
	UpcomingStatusUpcoming = "upcoming"
)

type UpcomingPayment struct {
	ID       string    `json:"id"`
	LoanID   int64     `json:"loanId"`
	LoanName string    `json:"loanName"`
	Date     time.Time `json:"date"`
	Amount   float64   `json:"amount"`
	Status   string    `json:"status"`
}

type LoanBreakdown struct {
	Name      string  `json:"name"`
	Remaining float64 `json:"remaining"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
}

type BreakdownSummary struct {
	Loans          []LoanBreakdown `json:"loans"`
	TotalPayment   float64         `json:"totalPayment"`
	TotalPrincipal float64         `json:"totalPrincipal"`
	TotalInterest  float64         `json:"totalInterest"`
}
