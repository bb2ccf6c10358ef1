package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carlitos-finanzas/carlitos/pkg/datetime"
	"github.com/carlitos-finanzas/carlitos/pkg/mathutil"
	"github.com/carlitos-finanzas/carlitos/pkg/projection"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Range selects the window of the activity chart.
type Range string

const (
	RangeDay   Range = "day"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
)

// ParseRange defaults to RangeMonth for an empty value.
func ParseRange(value string) (Range, error) {
	switch Range(strings.ToLower(strings.TrimSpace(value))) {
	case "", RangeMonth:
		return RangeMonth, nil
	case RangeWeek:
		return RangeWeek, nil
	case RangeDay:
		return RangeDay, nil
	}
	return "", fmt.Errorf("unknown range %q, expected day, week or month", value)
}

// Bucket is one bar of the activity chart.
type Bucket struct {
	Label   string          `json:"label"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Overview buckets txs for the chart ending at now. The day range has one
// bucket per hour of the day over the last 24 hours, the week and month
// ranges one bucket per calendar day over the last 7 and 30 days.
func Overview(txs []Transaction, r Range, now time.Time) []Bucket {
	var buckets []Bucket
	switch r {
	case RangeDay:
		buckets = make([]Bucket, 24)
		for h := range buckets {
			buckets[h] = newBucket(fmt.Sprintf("%d:00", h))
		}
		for _, tx := range txs {
			age := now.Sub(tx.Date)
			if age < 0 || age > 24*time.Hour {
				continue
			}
			buckets[tx.Date.In(now.Location()).Hour()].add(tx)
		}
	default:
		days := 30
		if r == RangeWeek {
			days = 7
		}
		buckets = make([]Bucket, days)
		for i := range buckets {
			buckets[i] = newBucket(now.AddDate(0, 0, i-days+1).Format("2006-01-02"))
		}
		for _, tx := range txs {
			diff := datetime.DaysBetween(tx.Date, now)
			if diff < 0 || diff >= days {
				continue
			}
			buckets[days-1-diff].add(tx)
		}
	}
	return buckets
}

func newBucket(label string) Bucket {
	return Bucket{Label: label, Income: decimal.Zero, Expense: decimal.Zero}
}

func (b *Bucket) add(tx Transaction) {
	if tx.Kind == Income {
		b.Income = b.Income.Add(tx.Amount)
		return
	}
	b.Expense = b.Expense.Add(tx.Amount)
}

// Overview buckets the stored transactions.
func (s *Service) Overview(ctx context.Context, r Range) ([]Bucket, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return Overview(txs, r, s.now()), nil
}

// GoalProgress reports how close a goal is.
type GoalProgress struct {
	Goal      Goal                 `json:"goal"`
	Current   decimal.Decimal      `json:"current"`
	Remaining decimal.Decimal      `json:"remaining"`
	Percent   float64              `json:"percent"`
	Reached   bool                 `json:"reached"`
	ETA       *projection.Duration `json:"eta,omitempty"`
}

// GoalProgress evaluates a goal. Savings goals compare the income recorded
// so far with the target and, when monthly is positive, estimate the time to
// close the gap at annualRate. Reduction goals compare this month's expenses with the
// target as a spending limit.
func (s *Service) GoalProgress(ctx context.Context, id uuid.UUID, monthly, annualRate float64) (GoalProgress, error) {
	goal, err := s.Goal(ctx, id)
	if err != nil {
		return GoalProgress{}, err
	}
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return GoalProgress{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	return EvaluateGoal(goal, txs, s.now(), monthly, annualRate), nil
}

// EvaluateGoal is the pure part of GoalProgress.
func EvaluateGoal(goal Goal, txs []Transaction, now time.Time, monthly, annualRate float64) GoalProgress {
	target, _ := goal.Target.Float64()
	out := GoalProgress{Goal: goal}

	if goal.Kind == ReductionGoal {
		month := datetime.MonthOf(now)
		spent := decimal.Zero
		for _, tx := range txs {
			if tx.Kind == Expense && !tx.Date.Before(month) && !tx.Date.After(now) {
				spent = spent.Add(tx.Amount)
			}
		}
		spentF, _ := spent.Float64()
		out.Current = spent
		out.Remaining = decimal.Max(goal.Target.Sub(spent), decimal.Zero)
		out.Percent = mathutil.Round(mathutil.ProgressPercent(spentF, target))
		out.Reached = spent.LessThanOrEqual(goal.Target)
		return out
	}

	saved := Summarize(txs).Income
	savedF, _ := saved.Float64()
	out.Current = saved
	out.Remaining = decimal.Max(goal.Target.Sub(saved), decimal.Zero)
	out.Percent = mathutil.Round(mathutil.ProgressPercent(savedF, target))
	out.Reached = out.Remaining.IsZero()

	if !out.Reached && monthly > 0 {
		remaining, _ := out.Remaining.Float64()
		eta := projection.SplitMonths(projection.MonthsToReachTarget(monthly, annualRate, remaining))
		out.ETA = &eta
	}
	return out
}
