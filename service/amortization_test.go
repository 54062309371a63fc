package service

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-dashboard/domain"
)

func TestCalculateEMI(t *testing.T) {
	tests := []struct {
		name      string
		principal float64
		rate      float64
		months    int
		want      float64
	}{
		{"five year loan", 200000, 10, 60, 4249.41},
		{"two year loan", 10000, 12, 24, 470.73},
		{"thirty year mortgage", 100000, 5, 360, 536.82},
		{"one year", 1000, 12, 12, 88.85},
		{"zero rate splits evenly", 1200, 0, 12, 100},
		{"zero principal", 0, 5, 12, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateEMI(tt.principal, tt.rate, tt.months)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateEMI_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		principal float64
		rate      float64
		months    int
	}{
		{"negative principal", -1, 5, 12},
		{"NaN principal", math.NaN(), 5, 12},
		{"infinite rate", 1000, math.Inf(1), 12},
		{"negative rate", 1000, -0.5, 12},
		{"zero term", 1000, 5, 0},
		{"negative term", 1000, 5, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateEMI(tt.principal, tt.rate, tt.months)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCalculateEMI_PositiveForValidTerms(t *testing.T) {
	for _, principal := range []float64{1, 999.99, 50000, 1e9} {
		for _, rate := range []float64{0, 0.5, 7.25, 36, 200} {
			for _, months := range []int{1, 7, 60, 600} {
				emi, err := CalculateEMI(principal, rate, months)
				require.NoError(t, err)
				assert.Greater(t, emi, 0.0, "P=%v r=%v n=%v", principal, rate, months)
			}
		}
	}
}

func TestCalculateEMI_SubCentRoundsUpToOneCent(t *testing.T) {
	emi, err := CalculateEMI(1, 0, 600)
	require.NoError(t, err)
	assert.Equal(t, 0.01, emi)

	emi, err = CalculateEMI(0, 5, 12)
	require.NoError(t, err)
	assert.Equal(t, 0.0, emi)
}

func TestCalculateEMI_OverflowIsValidationError(t *testing.T) {
	_, err := CalculateEMI(1000, 1e6, 600)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = GenerateAmortizationSchedule(1000, 1e6, 600)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRoundTo2Decimals_NonFinitePassesThrough(t *testing.T) {
	assert.True(t, math.IsInf(roundTo2Decimals(math.Inf(1)), 1))
	assert.True(t, math.IsNaN(roundTo2Decimals(math.NaN())))
	assert.True(t, math.IsInf(CalculateTotalInterest(1e308, 1e308, 600), 1))
}

func TestCalculateTotalInterest(t *testing.T) {
	assert.Equal(t, 54964.6, CalculateTotalInterest(200000, 4249.41, 60))
	assert.Equal(t, 0.0, CalculateTotalInterest(1200, 100, 12))
	// underpaying installment
	assert.Equal(t, -200.0, CalculateTotalInterest(1200, 50, 20))
}

func TestGenerateAmortizationSchedule(t *testing.T) {
	tests := []struct {
		principal float64
		rate      float64
		months    int
	}{
		{200000, 10, 60},
		{100000, 5, 360},
		{1200, 0, 12},
		{35000, 4.2, 24},
		{5000, 24, 1},
	}

	for _, tt := range tests {
		seq, err := GenerateAmortizationSchedule(tt.principal, tt.rate, tt.months)
		require.NoError(t, err)

		rows := slices.Collect(seq)
		require.Len(t, rows, tt.months)

		var sumPrincipal, sumPayment float64
		for i, row := range rows {
			assert.Equal(t, i+1, row.Period)
			assert.GreaterOrEqual(t, row.Balance, 0.0)
			sumPrincipal += row.PrincipalPortion
			sumPayment += row.Payment
		}
		assert.Equal(t, 0.0, rows[len(rows)-1].Balance)

		tolerance := 0.01 * float64(tt.months)
		assert.InDelta(t, tt.principal, sumPrincipal, tolerance)

		emi, err := CalculateEMI(tt.principal, tt.rate, tt.months)
		require.NoError(t, err)
		total := CalculateTotalInterest(tt.principal, emi, tt.months) + tt.principal
		assert.InDelta(t, total, sumPayment, tolerance)
	}
}

func TestGenerateAmortizationSchedule_Restartable(t *testing.T) {
	seq, err := GenerateAmortizationSchedule(10000, 6, 12)
	require.NoError(t, err)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)

	// stopping early must not break later ranges
	for row := range seq {
		if row.Period == 3 {
			break
		}
	}
	assert.Equal(t, first, slices.Collect(seq))
}

func TestGenerateAmortizationSchedule_FirstPeriod(t *testing.T) {
	seq, err := GenerateAmortizationSchedule(200000, 10, 60)
	require.NoError(t, err)

	rows := slices.Collect(seq)
	assert.Equal(t, 4249.41, rows[0].Payment)
	assert.Equal(t, 1666.67, rows[0].InterestPortion)
	assert.Equal(t, 2582.74, rows[0].PrincipalPortion)
	assert.Equal(t, 197417.26, rows[0].Balance)
}

func TestGenerateAmortizationSchedule_Rejects(t *testing.T) {
	_, err := GenerateAmortizationSchedule(1000, 5, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = GenerateAmortizationSchedule(-5, 5, 12)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestYearlyPeriods(t *testing.T) {
	seq, err := GenerateAmortizationSchedule(100000, 5, 36)
	require.NoError(t, err)

	var periods []int
	for row := range YearlyPeriods(seq) {
		periods = append(periods, row.Period)
	}
	assert.Equal(t, []int{1, 12, 24, 36}, periods)
}
