package service

import (
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/util"
)

// RecurrenceService rolls recurring transactions forward so their stored date
// is never left in the past.
type RecurrenceService struct{}

// NewRecurrenceService creates a new RecurrenceService
func NewRecurrenceService() *RecurrenceService {
	return &RecurrenceService{}
}

// NextOccurrence returns the occurrence that follows date for the given
// recurrence type. ok is false for unknown recurrence types.
func (s *RecurrenceService) NextOccurrence(date time.Time, rt domain.RecurrenceType) (time.Time, bool) {
	return s.occurrenceAfter(date, date.Day(), rt)
}

// occurrenceAfter computes the occurrence after date, keeping calendar-based
// recurrences anchored to anchorDay rather than to the possibly clamped
// day-of-month of date itself.
func (s *RecurrenceService) occurrenceAfter(date time.Time, anchorDay int, rt domain.RecurrenceType) (time.Time, bool) {
	switch rt {
	case domain.RecurrenceDaily:
		return date.AddDate(0, 0, 1), true
	case domain.RecurrenceWeekly:
		return date.AddDate(0, 0, 7), true
	case domain.RecurrenceMonthly:
		return addCalendarMonths(date, 1, anchorDay), true
	case domain.RecurrenceYearly:
		return addCalendarMonths(date, 12, anchorDay), true
	}
	return date, false
}

// Materialize advances the transaction's date until it is no longer strictly
// before now, honoring the optional end date. It rewrites the date in place
// and never creates occurrence records. Returns true if the date changed.
//
// The function converges: a second call at the same now is a no-op. An end
// date earlier than the next occurrence freezes the transaction permanently.
func (s *RecurrenceService) Materialize(tx *domain.Transaction, now time.Time) bool {
	if tx == nil || !tx.Recurring {
		return false
	}
	if _, ok := domain.ParseRecurrenceType(string(tx.RecurringType)); !ok {
		return false
	}

	// The starting day-of-month is the anchor for the whole catch-up run:
	// stepping month by month through the clamped dates instead would slide
	// a day-31 schedule to the 28th permanently after the first February.
	anchorDay := tx.Date.Day()
	changed := false
	for tx.Date.Before(now) {
		next, ok := s.occurrenceAfter(tx.Date, anchorDay, tx.RecurringType)
		if !ok {
			break
		}
		if tx.RecurringEndDate != nil && next.After(*tx.RecurringEndDate) {
			// Do not manufacture occurrences beyond the end date; the date
			// stays at the last in-range occurrence forever.
			break
		}
		tx.Date = next
		changed = true
	}
	return changed
}

// MaterializeAll runs Materialize over both transaction collections and
// returns how many transactions were advanced.
func (s *RecurrenceService) MaterializeAll(agg *domain.BudgetAggregate, now time.Time) int {
	advanced := 0
	for _, tx := range agg.Expenses {
		if s.Materialize(tx, now) {
			advanced++
		}
	}
	for _, tx := range agg.Incomes {
		if s.Materialize(tx, now) {
			advanced++
		}
	}
	return advanced
}

// addCalendarMonths adds whole calendar months, landing on anchorDay clamped
// to the target month's length (an anchor of 31 yields Feb 28/29 and Mar 31
// again). time.AddDate would overflow into the next month instead.
func addCalendarMonths(t time.Time, months, anchorDay int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	day := util.ClampDayOfMonth(first.Year(), first.Month(), anchorDay).Day()
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
