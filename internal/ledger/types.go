// Package ledger records income and expense transactions and savings goals,
// and derives the dashboard figures from them: balance, activity charts,
// goal progress and exports.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carlitos-finanzas/carlitos/internal/progress"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a transaction or goal does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransaction is wrapped by transaction validation errors.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrInvalidGoal is wrapped by goal validation errors.
	ErrInvalidGoal = errors.New("invalid goal")
)

// Kind tells income from expenses. The values match the exported files.
type Kind string

const (
	Income  Kind = "ingreso"
	Expense Kind = "egreso"
)

// ParseKind accepts the Spanish values as well as "income" and "expense".
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ingreso", "income":
		return Income, nil
	case "egreso", "gasto", "expense":
		return Expense, nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidTransaction, value)
}

const (
	defaultIncomeCategory  = "Varios"
	defaultExpenseCategory = "Gastos Varios"
)

// Transaction is one movement of money.
type Transaction struct {
	ID       uuid.UUID       `json:"id"`
	Kind     Kind            `json:"kind"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
	Category string          `json:"category"`
	Note     string          `json:"note,omitempty"`
}

// TransactionInput is what a caller submits to record a transaction.
type TransactionInput struct {
	Kind     string          `json:"kind"`
	Amount   decimal.Decimal `json:"amount"`
	Date     *time.Time      `json:"date,omitempty"`
	Category string          `json:"category,omitempty"`
	Note     string          `json:"note,omitempty"`
}

// Signed returns the amount with the sign of its effect on the balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// GoalKind distinguishes saving up from cutting spending.
type GoalKind string

const (
	SavingsGoal   GoalKind = "ahorro"
	ReductionGoal GoalKind = "reduccion"
)

// Goal is a savings target or a monthly spending limit.
type Goal struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	Kind      GoalKind        `json:"kind"`
	Target    decimal.Decimal `json:"target"`
	CreatedAt time.Time       `json:"createdAt"`
}

// GoalInput is what a caller submits to create a goal.
type GoalInput struct {
	Title  string          `json:"title"`
	Kind   string          `json:"kind,omitempty"`
	Target decimal.Decimal `json:"target"`
}

// Summary aggregates all transactions.
type Summary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
	Count   int             `json:"count"`
}

// Snapshot is the full state of one user, as pushed to remote storage.
type Snapshot struct {
	User         string                          `json:"user"`
	Transactions []Transaction                   `json:"transactions"`
	Goals        []Goal                          `json:"goals"`
	Profile      progress.Profile                `json:"profile"`
	Lessons      map[string]progress.LessonState `json:"lessons,omitempty"`
	UpdatedAt    time.Time                       `json:"updatedAt"`
}

// Repository persists ledger and progress state locally.
type Repository interface {
	SaveTransaction(ctx context.Context, tx Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	ListTransactions(ctx context.Context) ([]Transaction, error)
	SaveGoal(ctx context.Context, goal Goal) error
	DeleteGoal(ctx context.Context, id uuid.UUID) error
	ListGoals(ctx context.Context) ([]Goal, error)
	LoadProfile(ctx context.Context) (progress.Profile, bool, error)
	SaveProfile(ctx context.Context, profile progress.Profile) error
	LoadLessons(ctx context.Context) (map[string]progress.LessonState, error)
	SaveLessons(ctx context.Context, lessons map[string]progress.LessonState) error
}

// Syncer copies a snapshot to remote storage.
type Syncer interface {
	Push(ctx context.Context, snapshot Snapshot) error
}
