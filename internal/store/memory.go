// Package store persists the ledger and progress state on the local machine.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/carlitos-finanzas/carlitos/internal/ledger"
	"github.com/carlitos-finanzas/carlitos/internal/progress"
	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. It is used by tests and
// by ephemeral runs.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]ledger.Transaction
	goals        map[uuid.UUID]ledger.Goal
	profile      *progress.Profile
	lessons      map[string]progress.LessonState
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[uuid.UUID]ledger.Transaction),
		goals:        make(map[uuid.UUID]ledger.Goal),
	}
}

func (m *MemoryStore) SaveTransaction(_ context.Context, tx ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = tx
	return nil
}

func (m *MemoryStore) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
	}
	delete(m.transactions, id)
	return nil
}

func (m *MemoryStore) ListTransactions(_ context.Context) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Transaction, 0, len(m.transactions))
	for _, tx := range m.transactions {
		out = append(out, tx)
	}
	return out, nil
}

func (m *MemoryStore) SaveGoal(_ context.Context, goal ledger.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals[goal.ID] = goal
	return nil
}

func (m *MemoryStore) DeleteGoal(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.goals[id]; !ok {
		return fmt.Errorf("goal %s: %w", id, ledger.ErrNotFound)
	}
	delete(m.goals, id)
	return nil
}

func (m *MemoryStore) ListGoals(_ context.Context) ([]ledger.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Goal, 0, len(m.goals))
	for _, g := range m.goals {
		out = append(out, g)
	}
	return out, nil
}

func (m *MemoryStore) LoadProfile(_ context.Context) (progress.Profile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return progress.Profile{}, false, nil
	}
	return *m.profile, true, nil
}

func (m *MemoryStore) SaveProfile(_ context.Context, profile progress.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = &profile
	return nil
}

func (m *MemoryStore) LoadLessons(_ context.Context) (map[string]progress.LessonState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lessons == nil {
		return nil, nil
	}
	out := make(map[string]progress.LessonState, len(m.lessons))
	for id, s := range m.lessons {
		out[id] = s
	}
	return out, nil
}

func (m *MemoryStore) SaveLessons(_ context.Context, lessons map[string]progress.LessonState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lessons = make(map[string]progress.LessonState, len(lessons))
	for id, s := range lessons {
		m.lessons[id] = s
	}
	return nil
}

var _ ledger.Repository = (*MemoryStore)(nil)
