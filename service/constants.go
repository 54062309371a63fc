package service

import "loan-dashboard/domain"

const (
	MaxLoanAmount   = 1_000_000_000.0       // 1 billion
	MaxInterestRate = domain.MaxRatePercent // 1000% annual
	MaxTermMonths   = 600                   // 50 years
	MinTermMonths   = 1

	// StorageKey is the fixed key the loan collection is written under.
	StorageKey = "loans"

	DefaultRecentPayments  = 10
	DefaultUpcomingMonths  = 12
	DefaultPaymentDay      = 15
	DefaultReminderWindow  = 3 // days
	calculatorDefaultTerm  = 30
	calculatorDefaultRate  = 5.0
	calculatorDefaultLoan  = 100_000.0
	chatDefaultPrincipal   = 200_000.0
	chatDefaultRatePercent = 10.0
	chatDefaultTermMonths  = 60
)
