package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavingsGoal tracks progress toward a savings target. Current is deliberately
// not clamped to Target: over-funding a goal is allowed by the data model and
// any clamping is a presentation concern.
type SavingsGoal struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Target   decimal.Decimal `json:"target"`
	Current  decimal.Decimal `json:"current"`
	Deadline *time.Time      `json:"deadline,omitempty"`
}

// Clone returns a deep copy of the goal.
func (g *SavingsGoal) Clone() *SavingsGoal {
	cp := *g
	if g.Deadline != nil {
		d := *g.Deadline
		cp.Deadline = &d
	}
	return &cp
}

const MaxGoalNameLength = 255
