package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Identity is the authenticated user attached to an aggregate. The core treats
// it as opaque: it only keys persistence and feeds the privileged-email check.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// MonthKey formats a year/month pair as the series key (e.g. "2026-08").
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// BudgetAggregate is the root state for one user session: every collection the
// remote snapshot round-trips plus the monotonic revision used to reject stale
// writes.
type BudgetAggregate struct {
	Identity      Identity                                `json:"identity"`
	Expenses      []*Transaction                          `json:"expenses"`
	Incomes       []*Transaction                          `json:"incomes"`
	SavingsGoals  []*SavingsGoal                          `json:"savingsGoals"`
	Subscription  Subscription                            `json:"subscription"`
	Gamification  GamificationState                       `json:"gamification"`
	MonthlyTotals map[string]map[Category]decimal.Decimal `json:"monthlyTotals"`
	Revision      int64                                   `json:"revision"`
	UpdatedAt     time.Time                               `json:"updatedAt"`
}

// NewBudgetAggregate returns the default state used at first run and after an
// explicit reset.
func NewBudgetAggregate() *BudgetAggregate {
	return &BudgetAggregate{
		Expenses:      []*Transaction{},
		Incomes:       []*Transaction{},
		SavingsGoals:  []*SavingsGoal{},
		Subscription:  Subscription{CurrentPlan: PlanFree, Status: "none"},
		Gamification:  GamificationState{ActiveBoosters: []Booster{}},
		MonthlyTotals: map[string]map[Category]decimal.Decimal{},
	}
}

// Clone returns a deep copy of the aggregate, safe to hand to the persistence
// layer while mutators keep running.
func (a *BudgetAggregate) Clone() *BudgetAggregate {
	cp := &BudgetAggregate{
		Identity:      a.Identity,
		Expenses:      make([]*Transaction, len(a.Expenses)),
		Incomes:       make([]*Transaction, len(a.Incomes)),
		SavingsGoals:  make([]*SavingsGoal, len(a.SavingsGoals)),
		Subscription:  a.Subscription,
		Gamification:  *a.Gamification.Clone(),
		MonthlyTotals: make(map[string]map[Category]decimal.Decimal, len(a.MonthlyTotals)),
		Revision:      a.Revision,
		UpdatedAt:     a.UpdatedAt,
	}
	for i, t := range a.Expenses {
		cp.Expenses[i] = t.Clone()
	}
	for i, t := range a.Incomes {
		cp.Incomes[i] = t.Clone()
	}
	for i, g := range a.SavingsGoals {
		cp.SavingsGoals[i] = g.Clone()
	}
	for month, byCategory := range a.MonthlyTotals {
		inner := make(map[Category]decimal.Decimal, len(byCategory))
		for c, v := range byCategory {
			inner[c] = v
		}
		cp.MonthlyTotals[month] = inner
	}
	return cp
}

// RebuildMonthlyTotals recomputes the per-category monthly series from the
// transaction collections. Incomes add, expenses subtract.
func (a *BudgetAggregate) RebuildMonthlyTotals() {
	totals := map[string]map[Category]decimal.Decimal{}
	add := func(t *Transaction, sign decimal.Decimal) {
		key := MonthKey(t.Date)
		if totals[key] == nil {
			totals[key] = map[Category]decimal.Decimal{}
		}
		totals[key][t.Category] = totals[key][t.Category].Add(t.Amount.Mul(sign))
	}
	one := decimal.NewFromInt(1)
	minusOne := decimal.NewFromInt(-1)
	for _, t := range a.Incomes {
		add(t, one)
	}
	for _, t := range a.Expenses {
		add(t, minusOne)
	}
	a.MonthlyTotals = totals
}

// CacheSubset is the curated slice of the aggregate mirrored into the local
// durable cache so a restart can resume without a network round trip. The full
// transaction history is intentionally excluded.
type CacheSubset struct {
	Identity     Identity          `json:"identity"`
	Subscription Subscription      `json:"subscription"`
	Gamification GamificationState `json:"gamification"`
	Revision     int64             `json:"revision"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// CacheView extracts the curated cache subset from the aggregate.
func (a *BudgetAggregate) CacheView() *CacheSubset {
	return &CacheSubset{
		Identity:     a.Identity,
		Subscription: a.Subscription,
		Gamification: *a.Gamification.Clone(),
		Revision:     a.Revision,
		UpdatedAt:    a.UpdatedAt,
	}
}
