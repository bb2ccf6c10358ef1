package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/carlitos-finanzas/carlitos/internal/progress"
	"github.com/carlitos-finanzas/carlitos/pkg/constants"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service is the dashboard backend. Every mutation is written to the local
// repository first and then pushed to the syncer on a best-effort basis,
// after the service lock is released.
type Service struct {
	logger      *zap.Logger
	repo        Repository
	syncer      Syncer
	syncTimeout time.Duration
	user        string
	profileName string
	now         func() time.Time

	// mu serializes read-modify-write cycles on the profile and lessons.
	mu  sync.Mutex
	seq uint64 // snapshots taken, guarded by mu

	// pushMu orders pushes so an older snapshot never overwrites a newer one.
	pushMu sync.Mutex
	pushed uint64 // last pushed seq, guarded by pushMu
}

// Option customizes a Service.
type Option func(*Service)

// WithSyncer enables best-effort remote sync after each mutation.
func WithSyncer(syncer Syncer) Option {
	return func(s *Service) { s.syncer = syncer }
}

// WithSyncTimeout bounds each push made after a mutation.
func WithSyncTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.syncTimeout = d
		}
	}
}

// WithUser sets the user ID used in snapshots.
func WithUser(user string) Option {
	return func(s *Service) {
		if strings.TrimSpace(user) != "" {
			s.user = user
		}
	}
}

// WithProfileName sets the name of a freshly created profile.
func WithProfileName(name string) Option {
	return func(s *Service) { s.profileName = name }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a ledger service on top of repo.
func NewService(logger *zap.Logger, repo Repository, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		logger: logger,
		repo:   repo,
		user:        constants.DefaultUserID,
		now:         time.Now,
		syncTimeout: constants.DefaultSyncTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// AddTransaction validates and records a transaction and rewards the profile.
func (s *Service) AddTransaction(ctx context.Context, in TransactionInput) (Transaction, progress.Reward, error) {
	kind, err := ParseKind(in.Kind)
	if err != nil {
		return Transaction{}, progress.Reward{}, err
	}
	if in.Amount.IsZero() {
		return Transaction{}, progress.Reward{}, fmt.Errorf("%w: amount must not be zero", ErrInvalidTransaction)
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = defaultIncomeCategory
		if kind == Expense {
			category = defaultExpenseCategory
		}
	}

	date := s.now()
	if in.Date != nil && !in.Date.IsZero() {
		date = *in.Date
	}

	tx := Transaction{
		ID:       uuid.New(),
		Kind:     kind,
		Amount:   in.Amount.Abs(),
		Date:     date,
		Category: category,
		Note:     strings.TrimSpace(in.Note),
	}

	reward := progress.TransactionReward(tx.Amount)
	err = s.mutate(ctx, func() error {
		if err := s.repo.SaveTransaction(ctx, tx); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}
		if err := s.rewardLocked(ctx, reward); err != nil {
			// The transaction and its reward are stored together or not at all.
			if delErr := s.repo.DeleteTransaction(ctx, tx.ID); delErr != nil {
				s.logger.Error("failed to roll back transaction",
					zap.String("op", "ledger.AddTransaction"),
					zap.String("id", tx.ID.String()),
					zap.Error(delErr),
				)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return Transaction{}, progress.Reward{}, err
	}

	s.logger.Debug("transaction recorded",
		zap.String("op", "ledger.AddTransaction"),
		zap.String("id", tx.ID.String()),
		zap.String("kind", string(tx.Kind)),
		zap.String("amount", tx.Amount.StringFixed(2)),
	)
	return tx, reward, nil
}

func (s *Service) rewardLocked(ctx context.Context, reward progress.Reward) error {
	profile, err := s.loadProfile(ctx)
	if err != nil {
		return err
	}
	profile.Apply(reward)
	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// DeleteTransaction removes a transaction.
func (s *Service) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, func() error {
		return s.repo.DeleteTransaction(ctx, id)
	})
}

// Transactions lists all transactions, newest first.
func (s *Service) Transactions(ctx context.Context) ([]Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
	return txs, nil
}

// Summary totals income and expenses.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	return Summarize(txs), nil
}

// Summarize totals income and expenses of txs.
func Summarize(txs []Transaction) Summary {
	sum := Summary{Income: decimal.Zero, Expense: decimal.Zero, Balance: decimal.Zero}
	for _, tx := range txs {
		switch tx.Kind {
		case Income:
			sum.Income = sum.Income.Add(tx.Amount)
		case Expense:
			sum.Expense = sum.Expense.Add(tx.Amount)
		}
		sum.Count++
	}
	sum.Balance = sum.Income.Sub(sum.Expense)
	return sum
}

// AddGoal validates and records a goal.
func (s *Service) AddGoal(ctx context.Context, in GoalInput) (Goal, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Goal{}, fmt.Errorf("%w: title cannot be empty", ErrInvalidGoal)
	}
	if !in.Target.IsPositive() {
		return Goal{}, fmt.Errorf("%w: target must be positive", ErrInvalidGoal)
	}

	kind := SavingsGoal
	switch strings.ToLower(strings.TrimSpace(in.Kind)) {
	case "", string(SavingsGoal), "savings":
	case string(ReductionGoal), "reducción", "reduction":
		kind = ReductionGoal
	default:
		return Goal{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidGoal, in.Kind)
	}

	goal := Goal{
		ID:        uuid.New(),
		Title:     title,
		Kind:      kind,
		Target:    in.Target,
		CreatedAt: s.now(),
	}

	err := s.mutate(ctx, func() error {
		if err := s.repo.SaveGoal(ctx, goal); err != nil {
			return fmt.Errorf("failed to save goal: %w", err)
		}
		return nil
	})
	if err != nil {
		return Goal{}, err
	}
	return goal, nil
}

// DeleteGoal removes a goal.
func (s *Service) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, func() error {
		return s.repo.DeleteGoal(ctx, id)
	})
}

// Goals lists goals, oldest first.
func (s *Service) Goals(ctx context.Context) ([]Goal, error) {
	goals, err := s.repo.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	sort.SliceStable(goals, func(i, j int) bool {
		return goals[i].CreatedAt.Before(goals[j].CreatedAt)
	})
	return goals, nil
}

// Goal returns one goal.
func (s *Service) Goal(ctx context.Context, id uuid.UUID) (Goal, error) {
	goals, err := s.repo.ListGoals(ctx)
	if err != nil {
		return Goal{}, fmt.Errorf("failed to list goals: %w", err)
	}
	for _, g := range goals {
		if g.ID == id {
			return g, nil
		}
	}
	return Goal{}, fmt.Errorf("goal %s: %w", id, ErrNotFound)
}

// Profile returns the stored profile, creating it on first use.
func (s *Service) Profile(ctx context.Context) (progress.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadProfile(ctx)
}

// SetMentor stores the assigned mentor on the profile.
func (s *Service) SetMentor(ctx context.Context, mentor string) (progress.Profile, error) {
	var profile progress.Profile
	err := s.mutate(ctx, func() error {
		var err error
		if profile, err = s.loadProfile(ctx); err != nil {
			return err
		}
		profile.Mentor = mentor
		if err := s.repo.SaveProfile(ctx, profile); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return progress.Profile{}, err
	}
	return profile, nil
}

// Lessons returns the lesson map filtered by difficulty.
func (s *Service) Lessons(ctx context.Context, filter progress.Difficulty) ([]progress.Lesson, error) {
	state, err := s.repo.LoadLessons(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load lessons: %w", err)
	}
	return progress.NewMap(state).Lessons(filter), nil
}

// CompleteLesson completes a lesson, unlocks the next and credits the
// lesson reward.
func (s *Service) CompleteLesson(ctx context.Context, id string) (progress.Profile, error) {
	var profile progress.Profile
	err := s.mutate(ctx, func() error {
		state, err := s.repo.LoadLessons(ctx)
		if err != nil {
			return fmt.Errorf("failed to load lessons: %w", err)
		}
		m := progress.NewMap(state)
		reward, err := m.Complete(id)
		if err != nil {
			return err
		}
		if err := s.repo.SaveLessons(ctx, m.State()); err != nil {
			return fmt.Errorf("failed to save lessons: %w", err)
		}
		if profile, err = s.loadProfile(ctx); err != nil {
			return err
		}
		profile.Apply(reward)
		if err := s.repo.SaveProfile(ctx, profile); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return progress.Profile{}, err
	}
	return profile, nil
}

// Snapshot assembles the full local state.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(ctx)
}

// Sync pushes the current state to the syncer, if any. Failures are logged
// and reported but leave local state untouched.
func (s *Service) Sync(ctx context.Context) error {
	if s.syncer == nil {
		return nil
	}
	s.mu.Lock()
	pending, err := s.captureLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.push(ctx, pending)
}

// Restore writes a snapshot into the local repository. Records are upserted
// by ID; local records missing from the snapshot are kept. An empty profile
// or lesson map leaves the local one untouched.
func (s *Service) Restore(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range snap.Transactions {
		if err := s.repo.SaveTransaction(ctx, tx); err != nil {
			return fmt.Errorf("failed to restore transaction %s: %w", tx.ID, err)
		}
	}
	for _, goal := range snap.Goals {
		if err := s.repo.SaveGoal(ctx, goal); err != nil {
			return fmt.Errorf("failed to restore goal %s: %w", goal.ID, err)
		}
	}
	if !snap.Profile.IsZero() {
		if err := s.repo.SaveProfile(ctx, snap.Profile); err != nil {
			return fmt.Errorf("failed to restore profile: %w", err)
		}
	}
	if len(snap.Lessons) > 0 {
		if err := s.repo.SaveLessons(ctx, snap.Lessons); err != nil {
			return fmt.Errorf("failed to restore lessons: %w", err)
		}
	}

	s.logger.Info("restored snapshot",
		zap.String("op", "ledger.Restore"),
		zap.String("user", snap.User),
		zap.Int("transactions", len(snap.Transactions)),
		zap.Int("goals", len(snap.Goals)),
	)
	return nil
}

func (s *Service) snapshotLocked(ctx context.Context) (Snapshot, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	goals, err := s.repo.ListGoals(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to list goals: %w", err)
	}
	profile, err := s.loadProfile(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	lessons, err := s.repo.LoadLessons(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load lessons: %w", err)
	}
	return Snapshot{
		User:         s.user,
		Transactions: txs,
		Goals:        goals,
		Profile:      profile,
		Lessons:      lessons,
		UpdatedAt:    s.now().UTC(),
	}, nil
}

// pendingSync is a snapshot taken under mu and pushed once mu is released.
type pendingSync struct {
	snap Snapshot
	seq  uint64
}

// mutate runs fn under mu. On success the resulting state is pushed to the
// syncer after mu is released; push failures are logged, never returned.
func (s *Service) mutate(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	err := fn()
	var pending *pendingSync
	var snapErr error
	if err == nil && s.syncer != nil {
		pending, snapErr = s.captureLocked(ctx)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if snapErr == nil && pending != nil {
		snapErr = s.push(ctx, pending)
	}
	if snapErr != nil {
		s.logger.Warn("remote sync failed, keeping local state",
			zap.String("op", "ledger.sync"),
			zap.String("user", s.user),
			zap.Error(snapErr),
		)
	}
	return nil
}

func (s *Service) captureLocked(ctx context.Context) (*pendingSync, error) {
	snap, err := s.snapshotLocked(ctx)
	if err != nil {
		return nil, err
	}
	s.seq++
	return &pendingSync{snap: snap, seq: s.seq}, nil
}

// push sends a captured snapshot within syncTimeout. A snapshot older than
// the last one pushed is dropped.
func (s *Service) push(ctx context.Context, p *pendingSync) error {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	if p.seq <= s.pushed {
		return nil
	}

	pushCtx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()
	if err := s.syncer.Push(pushCtx, p.snap); err != nil {
		return err
	}
	s.pushed = p.seq
	return nil
}

func (s *Service) loadProfile(ctx context.Context) (progress.Profile, error) {
	profile, ok, err := s.repo.LoadProfile(ctx)
	if err != nil {
		return progress.Profile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	if !ok {
		profile = progress.NewProfile(s.profileName)
	}
	return profile, nil
}
