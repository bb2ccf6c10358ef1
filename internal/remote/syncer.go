package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/carlitos-finanzas/carlitos/internal/ledger"
	"github.com/carlitos-finanzas/carlitos/pkg/constants"
	"go.uber.org/zap"
)

const (
	docTransactions = "transactions"
	docGoals        = "goals"
	docProfile      = "profile"
	docLessons      = "lessons"
)

// Syncer writes snapshots as JSON documents, one per collection, under
// "<prefix>:<user>:<collection>".
type Syncer struct {
	cache  DocumentCache
	prefix string
	logger *zap.Logger
}

// NewSyncer creates a syncer over cache. An empty prefix uses the default.
func NewSyncer(logger *zap.Logger, cache DocumentCache, prefix string) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = constants.DefaultSyncKeyPrefix
	}
	return &Syncer{cache: cache, prefix: prefix, logger: logger}
}

// Key returns the document key of a collection for user.
func (s *Syncer) Key(user, collection string) string {
	return s.prefix + ":" + user + ":" + collection
}

// Push stores every collection of snap. It stops at the first failure.
func (s *Syncer) Push(ctx context.Context, snap ledger.Snapshot) error {
	docs := []struct {
		name string
		v    interface{}
	}{
		{docTransactions, nonNil(snap.Transactions)},
		{docGoals, nonNilGoals(snap.Goals)},
		{docProfile, snap.Profile},
		{docLessons, snap.Lessons},
	}

	for _, d := range docs {
		body, err := json.Marshal(d.v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", d.name, err)
		}
		if err := s.cache.Set(ctx, s.Key(snap.User, d.name), string(body)); err != nil {
			return fmt.Errorf("failed to push %s for %s: %w", d.name, snap.User, err)
		}
	}

	s.logger.Debug("pushed snapshot",
		zap.String("op", "remote.Push"),
		zap.String("user", snap.User),
		zap.Int("transactions", len(snap.Transactions)),
		zap.Int("goals", len(snap.Goals)),
	)
	return nil
}

// Pull reads back the documents of user. Missing documents leave the
// matching snapshot fields at their zero value, which Restore skips.
func (s *Syncer) Pull(ctx context.Context, user string) (ledger.Snapshot, error) {
	snap := ledger.Snapshot{User: user}

	targets := []struct {
		name string
		v    interface{}
	}{
		{docTransactions, &snap.Transactions},
		{docGoals, &snap.Goals},
		{docProfile, &snap.Profile},
		{docLessons, &snap.Lessons},
	}

	for _, t := range targets {
		body, ok, err := s.cache.Get(ctx, s.Key(user, t.name))
		if err != nil {
			return ledger.Snapshot{}, fmt.Errorf("failed to pull %s for %s: %w", t.name, user, err)
		}
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(body), t.v); err != nil {
			return ledger.Snapshot{}, fmt.Errorf("failed to decode %s for %s: %w", t.name, user, err)
		}
	}

	return snap, nil
}

func nonNil(txs []ledger.Transaction) []ledger.Transaction {
	if txs == nil {
		return []ledger.Transaction{}
	}
	return txs
}

func nonNilGoals(goals []ledger.Goal) []ledger.Goal {
	if goals == nil {
		return []ledger.Goal{}
	}
	return goals
}

var _ ledger.Syncer = (*Syncer)(nil)
