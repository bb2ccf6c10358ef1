package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/carlitos-finanzas/carlitos/internal/ledger"
	"github.com/carlitos-finanzas/carlitos/internal/progress"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(nil, filepath.Join(t.TempDir(), "nested", "carlitos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// repositories runs each test against both implementations.
func repositories(t *testing.T) map[string]ledger.Repository {
	return map[string]ledger.Repository{
		"memory": NewMemoryStore(),
		"sqlite": openTestSQLite(t),
	}
}

func TestRepositoryTransactions(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			date := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
			tx := ledger.Transaction{
				ID:       uuid.New(),
				Kind:     ledger.Expense,
				Amount:   decimal.RequireFromString("12.34"),
				Date:     date,
				Category: "Comida",
				Note:     "almuerzo",
			}
			require.NoError(t, repo.SaveTransaction(ctx, tx))

			txs, err := repo.ListTransactions(ctx)
			require.NoError(t, err)
			require.Len(t, txs, 1)
			assert.Equal(t, tx.ID, txs[0].ID)
			assert.Equal(t, tx.Kind, txs[0].Kind)
			assert.True(t, tx.Amount.Equal(txs[0].Amount))
			assert.True(t, tx.Date.Equal(txs[0].Date))
			assert.Equal(t, "almuerzo", txs[0].Note)

			tx.Note = "cena"
			require.NoError(t, repo.SaveTransaction(ctx, tx))
			txs, err = repo.ListTransactions(ctx)
			require.NoError(t, err)
			require.Len(t, txs, 1, "saving an existing id updates it")
			assert.Equal(t, "cena", txs[0].Note)

			require.NoError(t, repo.DeleteTransaction(ctx, tx.ID))
			err = repo.DeleteTransaction(ctx, tx.ID)
			assert.True(t, errors.Is(err, ledger.ErrNotFound))
		})
	}
}

func TestRepositoryGoals(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			goal := ledger.Goal{
				ID:        uuid.New(),
				Title:     "Viaje",
				Kind:      ledger.SavingsGoal,
				Target:    decimal.NewFromInt(5000),
				CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			}
			require.NoError(t, repo.SaveGoal(ctx, goal))

			goals, err := repo.ListGoals(ctx)
			require.NoError(t, err)
			require.Len(t, goals, 1)
			assert.Equal(t, "Viaje", goals[0].Title)
			assert.True(t, goals[0].Target.Equal(goal.Target))

			require.NoError(t, repo.DeleteGoal(ctx, goal.ID))
			assert.True(t, errors.Is(repo.DeleteGoal(ctx, goal.ID), ledger.ErrNotFound))
		})
	}
}

func TestRepositoryProfileAndLessons(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := repo.LoadProfile(ctx)
			require.NoError(t, err)
			assert.False(t, ok)

			profile := progress.Profile{Name: "Ana", XP: 120, Coins: 7, Mentor: "saver"}
			require.NoError(t, repo.SaveProfile(ctx, profile))
			got, ok, err := repo.LoadProfile(ctx)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, profile, got)

			lessons, err := repo.LoadLessons(ctx)
			require.NoError(t, err)
			assert.Nil(t, lessons)

			state := progress.InitialState()
			require.NoError(t, repo.SaveLessons(ctx, state))
			lessons, err = repo.LoadLessons(ctx)
			require.NoError(t, err)
			assert.Equal(t, state, lessons)
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carlitos.db")
	ctx := context.Background()

	s, err := OpenSQLite(nil, path)
	require.NoError(t, err)
	require.NoError(t, s.SaveProfile(ctx, progress.Profile{Name: "Luis", XP: 10}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(nil, path)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.LoadProfile(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Luis", got.Name)
	assert.Equal(t, path, s.Path())
}
