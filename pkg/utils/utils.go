package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StartOfDay truncates a time to midnight in its own location. All due
// date comparisons in billing are date-only.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole days from a to b using
// date-only comparison. Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	from := StartOfDay(a)
	to := StartOfDay(b)
	return int(to.Sub(from).Hours() / 24)
}

// MonthKey formats a time as the YYYY-MM billing month key.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// RentDueDate returns the next rent due date relative to now: the rentDay
// of the current month if today is on or before it, otherwise the rentDay
// of the next month.
func RentDueDate(now time.Time, rentDay int) time.Time {
	year, month := now.Year(), now.Month()
	if now.Day() > rentDay {
		month++ // normalized by time.Date
	}
	return time.Date(year, month, rentDay, 0, 0, 0, 0, now.Location())
}

// MonthlyDueDate returns the rentDay of the month containing now,
// regardless of whether it has already passed. Used by the monthly batch,
// which only runs on the 1st.
func MonthlyDueDate(now time.Time, rentDay int) time.Time {
	return time.Date(now.Year(), now.Month(), rentDay, 0, 0, 0, 0, now.Location())
}

// ComputeBookingDeposit resolves the booking deposit for a property:
// the configured booking deposit when positive, otherwise the rent
// multiplied by fraction rounded to a whole currency unit, falling back
// to the full rent when that still comes out non-positive.
func ComputeBookingDeposit(bookingDeposit, rent, fraction decimal.Decimal) decimal.Decimal {
	if bookingDeposit.IsPositive() {
		return bookingDeposit
	}
	computed := rent.Mul(fraction).Round(0)
	if computed.IsPositive() {
		return computed
	}
	return rent
}
