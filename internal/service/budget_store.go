package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/util"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PersistFunc writes one snapshot to durable storage (remote plus local
// cache). The store calls it with a deep copy, never the live aggregate.
type PersistFunc func(ctx context.Context, snapshot *domain.BudgetAggregate) error

// BudgetStoreDeps bundles the collaborators a store needs.
type BudgetStoreDeps struct {
	Recurrence *RecurrenceService
	Gate       *GateService
	Rewards    *RewardService
	Clock      util.Clock
	Publisher  websocket.EventPublisher
	Persist    PersistFunc
	Debounce   time.Duration
	Logger     zerolog.Logger
}

// BudgetStore is the single mutable state container for one user session.
// Every mutation is synchronous and atomic from the caller's perspective; the
// only asynchrony is the deferred save performed by the scheduler.
type BudgetStore struct {
	mu     sync.Mutex
	agg    *domain.BudgetAggregate
	loaded bool

	// fallbackLoad is set when hydration fell back after a remote load
	// failure. In that state the revision counter may be behind the remote
	// copy, so stale-revision rejections must not be dropped as success.
	fallbackLoad bool

	recurrence *RecurrenceService
	gate       *GateService
	rewards    *RewardService
	clock      util.Clock
	publisher  websocket.EventPublisher
	scheduler  *SaveScheduler
	logger     zerolog.Logger
}

// NewBudgetStore creates a store seeded with defaults for the given identity.
// Saves stay suppressed until Hydrate marks the initial load complete, so a
// not-yet-hydrated remote copy can never be overwritten with defaults.
func NewBudgetStore(identity domain.Identity, deps BudgetStoreDeps) *BudgetStore {
	agg := domain.NewBudgetAggregate()
	agg.Identity = identity

	s := &BudgetStore{
		agg:        agg,
		recurrence: deps.Recurrence,
		gate:       deps.Gate,
		rewards:    deps.Rewards,
		clock:      deps.Clock,
		publisher:  deps.Publisher,
		logger:     deps.Logger.With().Str("component", "budget_store").Str("user_id", identity.ID).Logger(),
	}

	persist := deps.Persist
	s.scheduler = NewSaveScheduler(deps.Clock, deps.Debounce, func(ctx context.Context) error {
		// Snapshot at write time: the save always reflects the latest state,
		// not the state when scheduling was requested.
		return persist(ctx, s.Snapshot())
	}, deps.Logger)

	s.scheduler.OnStateChange(func(state ConnectionState) {
		if s.publisher != nil {
			s.publisher.Publish(identity.ID, websocket.SyncStatus(map[string]string{"state": string(state)}))
		}
	})

	return s
}

// Hydrate replaces the aggregate wholesale with a loaded snapshot (or seeds
// defaults when snapshot is nil) and marks the initial load complete. It also
// rolls recurring transactions forward, since materialization runs on load.
func (s *BudgetStore) Hydrate(snapshot *domain.BudgetAggregate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity := s.agg.Identity
	if snapshot != nil {
		s.agg = snapshot
	} else {
		s.agg = domain.NewBudgetAggregate()
	}
	s.agg.Identity = identity
	s.sanitize()

	advanced := s.recurrence.MaterializeAll(s.agg, s.clock.Now())
	s.agg.RebuildMonthlyTotals()
	s.loaded = true

	if advanced > 0 {
		s.logger.Info().Int("advanced", advanced).Msg("Materialized recurring transactions on load")
		s.bumpLocked()
		s.scheduleLocked()
	}
}

// markLoadDegraded records that hydration ran on fallback state because the
// remote snapshot exists but could not be read. The connection reports
// degraded right away, so clients see the outage before the first save is
// even attempted.
func (s *BudgetStore) markLoadDegraded() {
	s.mu.Lock()
	s.fallbackLoad = true
	s.mu.Unlock()
	s.scheduler.MarkDegraded()

	s.logger.Warn().Msg("Store running on fallback state after failed remote load")
}

// loadDegraded reports whether the store is still on fallback state.
func (s *BudgetStore) loadDegraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallbackLoad
}

// confirmRemoteWrite clears the fallback flag once a write actually landed on
// the remote store; from here on the local revision is authoritative again.
func (s *BudgetStore) confirmRemoteWrite() {
	s.mu.Lock()
	s.fallbackLoad = false
	s.mu.Unlock()
}

// Loaded reports whether the initial load completed.
func (s *BudgetStore) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Identity returns the identity attached to the aggregate.
func (s *BudgetStore) Identity() domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agg.Identity
}

// Snapshot returns a deep copy of the aggregate.
func (s *BudgetStore) Snapshot() *domain.BudgetAggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agg.Clone()
}

// ConnectionState returns the persistence health.
func (s *BudgetStore) ConnectionState() ConnectionState {
	return s.scheduler.State()
}

// ForceSave bypasses the debounce and writes synchronously. Used where
// immediate durability matters, e.g. right after login or on logout. Refused
// before hydration so a default aggregate can never clobber the remote copy.
func (s *BudgetStore) ForceSave(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.loaded
	id := s.agg.Identity.ID
	s.mu.Unlock()

	if !loaded {
		return domain.ErrNotLoaded
	}
	if id == "" {
		return nil
	}
	return s.scheduler.Flush(ctx)
}

// Close cancels any pending debounce timer.
func (s *BudgetStore) Close() {
	s.scheduler.Stop()
}

// TransactionInput holds the input for creating or updating a transaction.
type TransactionInput struct {
	Amount           decimal.Decimal
	Category         string
	Date             *time.Time
	Recurring        bool
	RecurringType    string
	RecurringEndDate *time.Time
}

// AddTransaction appends a transaction to the expense or income collection,
// enforcing the plan's transaction limit.
func (s *BudgetStore) AddTransaction(txType domain.TransactionType, input TransactionInput) (*domain.Transaction, error) {
	if txType != domain.TransactionTypeIncome && txType != domain.TransactionTypeExpense {
		return nil, domain.ErrInvalidTransactionType
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	plan := s.gate.EffectivePlan(s.agg.Subscription, s.agg.Identity.Email)
	usage := len(s.agg.Expenses) + len(s.agg.Incomes)
	if check := s.gate.CheckUsageLimit(plan, domain.FeatureMaxTransactions, usage); !check.Allowed {
		return nil, domain.ErrLimitReached
	}

	now := s.clock.Now()
	tx := &domain.Transaction{
		ID:        uuid.New().String(),
		Amount:    input.Amount,
		Category:  domain.NormalizeCategory(input.Category),
		Date:      now,
		CreatedAt: now,
	}
	// Malformed or missing dates degrade to "now" instead of failing.
	if input.Date != nil && !input.Date.IsZero() {
		tx.Date = *input.Date
	}
	if input.Recurring {
		if rt, ok := domain.ParseRecurrenceType(input.RecurringType); ok {
			tx.Recurring = true
			tx.RecurringType = rt
			tx.RecurringEndDate = input.RecurringEndDate
		}
		// Unknown recurrence types degrade to a one-off transaction.
	}

	s.recurrence.Materialize(tx, now)

	entity := websocket.EntityTypeExpense
	if txType == domain.TransactionTypeIncome {
		s.agg.Incomes = append(s.agg.Incomes, tx)
		entity = websocket.EntityTypeIncome
	} else {
		s.agg.Expenses = append(s.agg.Expenses, tx)
	}

	s.agg.RebuildMonthlyTotals()
	s.bumpLocked()
	s.scheduleLocked()
	s.publishLocked(websocket.TransactionCreated(entity, tx.Clone()))

	return tx.Clone(), nil
}

// UpdateTransaction rewrites an existing transaction in place.
func (s *BudgetStore) UpdateTransaction(txType domain.TransactionType, id string, input TransactionInput) (*domain.Transaction, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.findLocked(txType, id)
	if tx == nil {
		return nil, domain.ErrTransactionNotFound
	}

	tx.Amount = input.Amount
	tx.Category = domain.NormalizeCategory(input.Category)
	if input.Date != nil && !input.Date.IsZero() {
		tx.Date = *input.Date
	}
	tx.Recurring = false
	tx.RecurringType = ""
	tx.RecurringEndDate = nil
	if input.Recurring {
		if rt, ok := domain.ParseRecurrenceType(input.RecurringType); ok {
			tx.Recurring = true
			tx.RecurringType = rt
			tx.RecurringEndDate = input.RecurringEndDate
		}
	}

	s.recurrence.Materialize(tx, s.clock.Now())
	s.agg.RebuildMonthlyTotals()
	s.bumpLocked()
	s.scheduleLocked()
	s.publishLocked(websocket.TransactionUpdated(entityFor(txType), tx.Clone()))

	return tx.Clone(), nil
}

// DeleteTransaction removes a transaction from its collection.
func (s *BudgetStore) DeleteTransaction(txType domain.TransactionType, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection := &s.agg.Expenses
	if txType == domain.TransactionTypeIncome {
		collection = &s.agg.Incomes
	}

	for i, tx := range *collection {
		if tx.ID == id {
			*collection = append((*collection)[:i], (*collection)[i+1:]...)
			s.agg.RebuildMonthlyTotals()
			s.bumpLocked()
			s.scheduleLocked()
			s.publishLocked(websocket.TransactionDeleted(entityFor(txType), map[string]string{"id": id}))
			return nil
		}
	}
	return domain.ErrTransactionNotFound
}

// Transactions returns a copy of one collection.
func (s *BudgetStore) Transactions(txType domain.TransactionType) []*domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := s.agg.Expenses
	if txType == domain.TransactionTypeIncome {
		source = s.agg.Incomes
	}
	out := make([]*domain.Transaction, len(source))
	for i, tx := range source {
		out[i] = tx.Clone()
	}
	return out
}

// MaterializeRecurring rolls recurring transactions forward opportunistically
// and persists only if anything moved.
func (s *BudgetStore) MaterializeRecurring() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	advanced := s.recurrence.MaterializeAll(s.agg, s.clock.Now())
	if advanced > 0 {
		s.agg.RebuildMonthlyTotals()
		s.bumpLocked()
		s.scheduleLocked()
	}
	return advanced
}

// GoalInput holds the input for creating or updating a savings goal.
type GoalInput struct {
	Name     string
	Target   decimal.Decimal
	Deadline *time.Time
}

// AddSavingsGoal creates a goal, enforcing the plan's goal cap.
func (s *BudgetStore) AddSavingsGoal(input GoalInput) (*domain.SavingsGoal, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxGoalNameLength {
		return nil, domain.ErrNameTooLong
	}
	if input.Target.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	plan := s.gate.EffectivePlan(s.agg.Subscription, s.agg.Identity.Email)
	if check := s.gate.CheckUsageLimit(plan, domain.FeatureMaxSavingsGoals, len(s.agg.SavingsGoals)); !check.Allowed {
		return nil, domain.ErrLimitReached
	}

	goal := &domain.SavingsGoal{
		ID:       uuid.New().String(),
		Name:     name,
		Target:   input.Target,
		Current:  decimal.Zero,
		Deadline: input.Deadline,
	}
	s.agg.SavingsGoals = append(s.agg.SavingsGoals, goal)

	s.bumpLocked()
	s.scheduleLocked()
	s.publishLocked(websocket.GoalCreated(goal.Clone()))

	return goal.Clone(), nil
}

// UpdateSavingsGoal rewrites name, target and deadline of an existing goal.
func (s *BudgetStore) UpdateSavingsGoal(id string, input GoalInput) (*domain.SavingsGoal, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxGoalNameLength {
		return nil, domain.ErrNameTooLong
	}
	if input.Target.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	goal := s.findGoalLocked(id)
	if goal == nil {
		return nil, domain.ErrGoalNotFound
	}

	goal.Name = name
	goal.Target = input.Target
	goal.Deadline = input.Deadline

	s.bumpLocked()
	s.scheduleLocked()
	s.publishLocked(websocket.GoalUpdated(goal.Clone()))

	return goal.Clone(), nil
}

// ContributeToGoal adds to a goal's current amount. Current is intentionally
// not clamped to the target.
func (s *BudgetStore) ContributeToGoal(id string, amount decimal.Decimal) (*domain.SavingsGoal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	goal := s.findGoalLocked(id)
	if goal == nil {
		return nil, domain.ErrGoalNotFound
	}

	goal.Current = goal.Current.Add(amount)

	s.bumpLocked()
	s.scheduleLocked()
	s.publishLocked(websocket.GoalUpdated(goal.Clone()))

	return goal.Clone(), nil
}

// DeleteSavingsGoal removes a goal.
func (s *BudgetStore) DeleteSavingsGoal(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, goal := range s.agg.SavingsGoals {
		if goal.ID == id {
			s.agg.SavingsGoals = append(s.agg.SavingsGoals[:i], s.agg.SavingsGoals[i+1:]...)
			s.bumpLocked()
			s.scheduleLocked()
			s.publishLocked(websocket.GoalDeleted(map[string]string{"id": id}))
			return nil
		}
	}
	return domain.ErrGoalNotFound
}

// SavingsGoals returns a copy of the goal collection.
func (s *BudgetStore) SavingsGoals() []*domain.SavingsGoal {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.SavingsGoal, len(s.agg.SavingsGoals))
	for i, g := range s.agg.SavingsGoals {
		out[i] = g.Clone()
	}
	return out
}

// UpdateSubscription records a plan change. The payment webhook handler is
// the expected caller; from the store's perspective this is an ordinary
// mutator. Unknown plan identifiers degrade to FREE.
func (s *BudgetStore) UpdateSubscription(planID, status, stripeCustomerID, stripeSubscriptionID string) domain.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.agg.Subscription = domain.Subscription{
		CurrentPlan:          domain.ParsePlan(planID),
		Status:               status,
		StripeCustomerID:     stripeCustomerID,
		StripeSubscriptionID: stripeSubscriptionID,
	}

	s.bumpLocked()
	s.scheduleLocked()
	s.publishLocked(websocket.SubscriptionUpdated(s.agg.Subscription))

	return s.agg.Subscription
}

// Subscription returns the stored subscription state.
func (s *BudgetStore) Subscription() domain.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agg.Subscription
}

// EffectivePlan resolves the plan used for gating, including the
// privileged-identity override.
func (s *BudgetStore) EffectivePlan() domain.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate.EffectivePlan(s.agg.Subscription, s.agg.Identity.Email)
}

// EvaluateDailySpin runs the daily eligibility check. Invoked after income
// and expense mutations and directly by clients.
func (s *BudgetStore) EvaluateDailySpin() *DailySpinResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.rewards.EvaluateDailySpin(s.agg)
	if result.Granted {
		s.bumpLocked()
		s.scheduleLocked()
		s.publishLocked(websocket.DailySpinGranted(result))
	}
	return result
}

// Spin consumes one spin credit and draws a reward.
func (s *BudgetStore) Spin() (*domain.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reward, err := s.rewards.ConsumeSpinAndRoll(s.agg)
	if err != nil {
		return nil, err
	}

	s.bumpLocked()
	s.scheduleLocked()
	s.publishLocked(websocket.SpinResolved(reward))

	return reward, nil
}

// Gamification returns a copy of the gamification state.
func (s *BudgetStore) Gamification() domain.GamificationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.agg.Gamification.Clone()
}

// Reset discards all state, keeping only the identity. Explicit resets are
// the single path that throws an aggregate away.
func (s *BudgetStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity := s.agg.Identity
	s.agg = domain.NewBudgetAggregate()
	s.agg.Identity = identity

	s.bumpLocked()
	s.scheduleLocked()
}

// bumpLocked advances the revision used to reject stale remote writes.
func (s *BudgetStore) bumpLocked() {
	s.agg.Revision++
	s.agg.UpdatedAt = s.clock.Now()
}

// scheduleLocked arms the debounced save, honoring both bootstrap guards:
// no saves before hydration, no remote saves without an identity.
func (s *BudgetStore) scheduleLocked() {
	if !s.loaded {
		return
	}
	if s.agg.Identity.ID == "" {
		return
	}
	s.scheduler.Schedule()
}

func (s *BudgetStore) publishLocked(event websocket.Event) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(s.agg.Identity.ID, event)
}

func (s *BudgetStore) findLocked(txType domain.TransactionType, id string) *domain.Transaction {
	source := s.agg.Expenses
	if txType == domain.TransactionTypeIncome {
		source = s.agg.Incomes
	}
	for _, tx := range source {
		if tx.ID == id {
			return tx
		}
	}
	return nil
}

func (s *BudgetStore) findGoalLocked(id string) *domain.SavingsGoal {
	for _, goal := range s.agg.SavingsGoals {
		if goal.ID == id {
			return goal
		}
	}
	return nil
}

// sanitize repairs malformed persisted data so a bad snapshot can never crash
// clients: nil collections become empty, unknown categories and plans are
// normalized, invalid dates are replaced with "now".
func (s *BudgetStore) sanitize() {
	now := s.clock.Now()
	if s.agg.Expenses == nil {
		s.agg.Expenses = []*domain.Transaction{}
	}
	if s.agg.Incomes == nil {
		s.agg.Incomes = []*domain.Transaction{}
	}
	if s.agg.SavingsGoals == nil {
		s.agg.SavingsGoals = []*domain.SavingsGoal{}
	}
	if s.agg.Gamification.ActiveBoosters == nil {
		s.agg.Gamification.ActiveBoosters = []domain.Booster{}
	}
	if s.agg.MonthlyTotals == nil {
		s.agg.MonthlyTotals = map[string]map[domain.Category]decimal.Decimal{}
	}
	for _, collection := range [][]*domain.Transaction{s.agg.Expenses, s.agg.Incomes} {
		for _, tx := range collection {
			if tx.Date.IsZero() {
				tx.Date = now
			}
			tx.Category = domain.NormalizeCategory(string(tx.Category))
			if tx.Recurring {
				if _, ok := domain.ParseRecurrenceType(string(tx.RecurringType)); !ok {
					tx.Recurring = false
					tx.RecurringType = ""
				}
			}
		}
	}
	s.agg.Subscription.CurrentPlan = domain.ParsePlan(string(s.agg.Subscription.CurrentPlan))
	if s.agg.Gamification.Points < 0 {
		s.agg.Gamification.Points = 0
	}
	if s.agg.Gamification.Spins < 0 {
		s.agg.Gamification.Spins = 0
	}
}

func entityFor(txType domain.TransactionType) websocket.EntityType {
	if txType == domain.TransactionTypeIncome {
		return websocket.EntityTypeIncome
	}
	return websocket.EntityTypeExpense
}
