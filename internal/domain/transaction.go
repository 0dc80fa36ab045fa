package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
)

// ParseRecurrenceType returns the recurrence type for the given identifier.
// Unknown identifiers are reported via ok=false; callers must treat them as
// "no recurrence" rather than failing, since bad persisted data must never
// crash a client.
func ParseRecurrenceType(s string) (RecurrenceType, bool) {
	switch RecurrenceType(s) {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return RecurrenceType(s), true
	}
	return "", false
}

// Transaction is a single income or expense entry. Expenses and incomes share
// this shape and live in two separate collections on the aggregate.
type Transaction struct {
	ID               string          `json:"id"`
	Amount           decimal.Decimal `json:"amount"`
	Category         Category        `json:"category"`
	Date             time.Time       `json:"date"`
	Recurring        bool            `json:"recurring"`
	RecurringType    RecurrenceType  `json:"recurringType,omitempty"`
	RecurringEndDate *time.Time      `json:"recurringEndDate,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// Clone returns a deep copy of the transaction.
func (t *Transaction) Clone() *Transaction {
	cp := *t
	if t.RecurringEndDate != nil {
		end := *t.RecurringEndDate
		cp.RecurringEndDate = &end
	}
	return &cp
}
