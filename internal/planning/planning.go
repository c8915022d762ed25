// Package planning implements the closed-form formulas behind debt payoff
// estimates, compound growth projections and savings goal checks.
//
// All amounts are in major currency units.
package planning

import (
	"errors"
	"math"
)

// GoalSavingsShare is the share of monthly savings assumed available for a single goal.
const GoalSavingsShare = 0.3

var (
	ErrNegativeInput = errors.New("inputs must not be negative")
	ErrZeroPeriod    = errors.New("period must be greater than zero")
	ErrNonFinite     = errors.New("inputs and results must be finite numbers")
)

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type DebtPayoff struct {
	Months        float64
	TotalInterest float64
	// Payable is false when the payment does not cover the monthly interest.
	Payable bool
}

// PayoffSchedule returns how many months a fixed monthly payment needs to
// clear balance at the given APR (percent), using the annuity formula
// n = -ln(1 - r*B/P) / ln(1 + r) with r the monthly rate.
func PayoffSchedule(balance, aprPercent, payment float64) (DebtPayoff, error) {
	if !finite(balance, aprPercent, payment) {
		return DebtPayoff{}, ErrNonFinite
	}
	if balance < 0 || aprPercent < 0 || payment < 0 {
		return DebtPayoff{}, ErrNegativeInput
	}
	if balance == 0 {
		return DebtPayoff{Payable: true}, nil
	}
	if payment == 0 {
		return DebtPayoff{}, nil
	}

	r := aprPercent / 100 / 12
	if r == 0 {
		return DebtPayoff{Months: balance / payment, Payable: true}, nil
	}
	if r*balance >= payment {
		return DebtPayoff{}, nil
	}

	months := -math.Log(1-r*balance/payment) / math.Log(1+r)
	interest := payment*months - balance
	if !finite(months, interest) {
		return DebtPayoff{}, ErrNonFinite
	}
	return DebtPayoff{
		Months:        months,
		TotalInterest: interest,
		Payable:       true,
	}, nil
}

type Projection struct {
	FutureValue   float64
	Contributions float64
	Growth        float64
}

// FutureValue projects a fixed monthly contribution compounded monthly:
// FV = PMT * ((1+r)^n - 1) / r.
func FutureValue(monthly, annualRate float64, years int) (Projection, error) {
	if !finite(monthly, annualRate) {
		return Projection{}, ErrNonFinite
	}
	if monthly < 0 || annualRate < 0 {
		return Projection{}, ErrNegativeInput
	}
	if years <= 0 {
		return Projection{}, ErrZeroPeriod
	}

	n := float64(years) * 12
	contributions := monthly * n
	r := annualRate / 12

	fv := contributions
	if r > 0 {
		fv = monthly * ((math.Pow(1+r, n) - 1) / r)
	}
	if !finite(fv, contributions, fv-contributions) {
		return Projection{}, ErrNonFinite
	}
	return Projection{
		FutureValue:   fv,
		Contributions: contributions,
		Growth:        fv - contributions,
	}, nil
}

type GoalCheck struct {
	RequiredMonthly  float64
	AvailableMonthly float64
	Feasible         bool
	// RealisticMonths is the timeline at the available rate; 0 when nothing is available.
	RealisticMonths float64
}

// GoalFeasibility checks whether a goal fits in the share of monthly savings
// reserved for goals.
func GoalFeasibility(goalAmount float64, months int, monthlySavings float64) (GoalCheck, error) {
	if !finite(goalAmount, monthlySavings) {
		return GoalCheck{}, ErrNonFinite
	}
	if goalAmount < 0 || monthlySavings < 0 {
		return GoalCheck{}, ErrNegativeInput
	}
	if months <= 0 {
		return GoalCheck{}, ErrZeroPeriod
	}

	required := goalAmount / float64(months)
	available := monthlySavings * GoalSavingsShare

	check := GoalCheck{
		RequiredMonthly:  required,
		AvailableMonthly: available,
		Feasible:         available > 0 && required <= available,
	}
	if available > 0 {
		check.RealisticMonths = goalAmount / available
	}
	return check, nil
}
