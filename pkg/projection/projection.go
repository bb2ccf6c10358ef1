// Package projection implements the savings simulators: the future value of
// a recurring monthly contribution and the number of months needed to reach
// a savings target under monthly compounding.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/carlitos-finanzas/carlitos/pkg/constants"
	"github.com/carlitos-finanzas/carlitos/pkg/datetime"
	"github.com/carlitos-finanzas/carlitos/pkg/mathutil"
)

// MaxMonths is the iteration ceiling of MonthsToReachTarget. A result equal
// to MaxMonths means the target was not reached within the modeled horizon.
const MaxMonths = constants.MaxSimulationMonths

// MaxYears is the longest plan FutureValueMonthly and Schedule accept, the
// same horizon as MaxMonths.
const MaxYears = MaxMonths / constants.MonthsPerYear

// MillionTarget is the default target of the time-to-target simulator.
const MillionTarget = constants.MillionTarget

var (
	// ErrInvalidInput is wrapped by the Validate methods.
	ErrInvalidInput = errors.New("invalid simulator input")
	// ErrOutOfRange is returned when a valid plan grows past float64.
	ErrOutOfRange = errors.New("simulation result out of range")
)

// ContributionPlan is the input of the future value simulator.
type ContributionPlan struct {
	Monthly    float64 `json:"monthly"`
	AnnualRate float64 `json:"annualRate"` // decimal fraction, 0.05 = 5%
	Years      int     `json:"years"`
}

// SavingsTarget is the input of the time-to-target simulator.
type SavingsTarget struct {
	Monthly    float64 `json:"monthly"`
	AnnualRate float64 `json:"annualRate"` // decimal fraction
	Target     float64 `json:"target"`
}

// Duration breaks a month count into years and remaining months.
type Duration struct {
	Months          int  `json:"months"`
	Years           int  `json:"years"`
	RemainingMonths int  `json:"remainingMonths"`
	Saturated       bool `json:"saturated"`
}

// Point is one row of a contribution schedule.
type Point struct {
	Date        string  `json:"date"`
	Year        int     `json:"year"`
	Contributed float64 `json:"contributed"`
	Interest    float64 `json:"interest"`
	Balance     float64 `json:"balance"`
}

// FutureValueMonthly returns the value after years of monthly contributions
// compounded at annualRate/12 per month. A zero rate is a plain sum.
func FutureValueMonthly(monthly, annualRate float64, years int) float64 {
	r := annualRate / constants.MonthsPerYear
	n := float64(years * constants.MonthsPerYear)
	if r == 0 {
		return monthly * n
	}
	return monthly * (math.Pow(1+r, n) - 1) / r
}

// MonthsToReachTarget simulates month-by-month compounding until the balance
// reaches target. The count saturates at MaxMonths.
func MonthsToReachTarget(monthly, annualRate, target float64) int {
	r := annualRate / constants.MonthsPerYear
	balance := 0.0
	months := 0
	for balance < target && months < MaxMonths {
		balance = balance*(1+r) + monthly
		months++
	}
	return months
}

// Saturated reports whether a MonthsToReachTarget result hit the cap.
func Saturated(months int) bool {
	return months >= MaxMonths
}

// PercentToRate converts a percentage as entered in a form into the decimal
// fraction used by the simulators.
func PercentToRate(percent float64) float64 {
	return mathutil.PercentToDecimal(percent)
}

// Validate rejects plans the simulator would answer with a meaningless value.
func (p ContributionPlan) Validate() error {
	if p.Monthly < 0 {
		return fmt.Errorf("%w: monthly contribution %.2f must not be negative", ErrInvalidInput, p.Monthly)
	}
	if p.AnnualRate < 0 {
		return fmt.Errorf("%w: annual rate %.4f must not be negative", ErrInvalidInput, p.AnnualRate)
	}
	if p.Years < 0 {
		return fmt.Errorf("%w: years %d must not be negative", ErrInvalidInput, p.Years)
	}
	if p.Years > MaxYears {
		return fmt.Errorf("%w: years %d exceeds the %d year horizon", ErrInvalidInput, p.Years, MaxYears)
	}
	return nil
}

// CheckFinite returns ErrOutOfRange when any value is infinite or NaN.
func CheckFinite(values ...float64) error {
	for _, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("%w: try a lower rate, contribution or duration", ErrOutOfRange)
		}
	}
	return nil
}

// FutureValue evaluates FutureValueMonthly for the plan.
func (p ContributionPlan) FutureValue() float64 {
	return FutureValueMonthly(p.Monthly, p.AnnualRate, p.Years)
}

// TotalContributed is the sum of all contributions, without growth.
func (p ContributionPlan) TotalContributed() float64 {
	return p.Monthly * float64(p.Years*constants.MonthsPerYear)
}

// Validate rejects targets the simulator could never answer meaningfully.
func (s SavingsTarget) Validate() error {
	if s.Monthly < 0 {
		return fmt.Errorf("%w: monthly contribution %.2f must not be negative", ErrInvalidInput, s.Monthly)
	}
	if s.AnnualRate < 0 {
		return fmt.Errorf("%w: annual rate %.4f must not be negative", ErrInvalidInput, s.AnnualRate)
	}
	if s.Target <= 0 {
		return fmt.Errorf("%w: target %.2f must be positive", ErrInvalidInput, s.Target)
	}
	return nil
}

// Months evaluates MonthsToReachTarget for the target.
func (s SavingsTarget) Months() int {
	return MonthsToReachTarget(s.Monthly, s.AnnualRate, s.Target)
}

// Duration evaluates the target and splits the result into years and months.
func (s SavingsTarget) Duration() Duration {
	return SplitMonths(s.Months())
}

// SplitMonths converts a month count into a Duration.
func SplitMonths(months int) Duration {
	return Duration{
		Months:          months,
		Years:           months / constants.MonthsPerYear,
		RemainingMonths: months % constants.MonthsPerYear,
		Saturated:       Saturated(months),
	}
}

// Schedule returns the balance at the end of every year of the plan. start
// labels the first contribution month ("2006-01"); an empty start yields
// schedule rows without dates. The last balance matches FutureValueMonthly.
// Plans that fail Validate are rejected.
func Schedule(plan ContributionPlan, start string) ([]Point, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if plan.Years == 0 {
		return nil, nil
	}

	r := plan.AnnualRate / constants.MonthsPerYear
	points := make([]Point, 0, plan.Years)
	balance := 0.0
	contributed := 0.0
	for month := 1; month <= plan.Years*constants.MonthsPerYear; month++ {
		balance = balance*(1+r) + plan.Monthly
		contributed += plan.Monthly
		if month%constants.MonthsPerYear != 0 {
			continue
		}
		if err := CheckFinite(balance, contributed); err != nil {
			return nil, err
		}

		point := Point{
			Year:        month / constants.MonthsPerYear,
			Contributed: contributed,
			Interest:    balance - contributed,
			Balance:     balance,
		}
		if start != "" {
			date, err := datetime.OffsetDate(start, datetime.DateTimeLayout, month-1)
			if err != nil {
				return nil, fmt.Errorf("invalid schedule start %q: %w", start, err)
			}
			point.Date = date
		}
		points = append(points, point)
	}
	return points, nil
}
