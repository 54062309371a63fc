package domain

type LoanInput struct {
	Amount       float64 `json:"principal"`
	InterestRate float64 `json:"annualRatePercent"`
	TermMonths   int     `json:"termMonths"`
}

type LoanResult struct {
	MonthlyPayment float64 `json:"monthlyPayment"`
	TotalPayment   float64 `json:"totalPayment"`
	TotalInterest  float64 `json:"totalInterest"`
}

// SchedulePeriod is one row of an amortization schedule.
type SchedulePeriod struct {
	Period           int     `json:"period"`
	Payment          float64 `json:"payment"`
	PrincipalPortion float64 `json:"principalPortion"`
	InterestPortion  float64 `json:"interestPortion"`
	Balance          float64 `json:"balance"`
}

// CalculatorState is the quick calculator scratch pad. LoanTerm is in years.
type CalculatorState struct {
	LoanAmount     float64 `json:"loanAmount"`
	InterestRate   float64 `json:"interestRate"`
	LoanTerm       int     `json:"loanTerm"`
	MonthlyPayment float64 `json:"monthlyPayment"`
	TotalInterest  float64 `json:"totalInterest"`
}

type CalculatorUpdate struct {
	LoanAmount   *float64 `json:"loanAmount,omitempty"`
	InterestRate *float64 `json:"interestRate,omitempty"`
	LoanTerm     *int     `json:"loanTerm,omitempty"`
}
