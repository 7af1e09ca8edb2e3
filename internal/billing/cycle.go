// Package billing holds the pure date arithmetic of the recurring billing
// engine: the billing-cycle calculator and the period overlap detector.
// Nothing here touches the database or the clock.
package billing

import (
	"strconv"
	"time"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/models"
)

// NextBillingDate returns the date the subscription bills next, given the end
// boundary of the period just billed.
//
// WEEKLY: the period's end date is the next billing date. Consecutive periods
// share the boundary: a period 09/11-16/11 is followed by 16/11-23/11, so the
// next billing date is simply periodEnd.
//
// MONTHLY: one calendar month after periodEnd, on the subscription's billing
// day-of-month (clamped to 1..31). When the target month is shorter than the
// billing day, native calendar normalization pushes the date into the
// following month rather than clamping to month end: day 31 applied to a
// 30-day month lands on the 1st of the next month.
//
// Any other cycle returns periodEnd unchanged.
func NextBillingDate(periodEnd time.Time, cycle models.BillingCycle, billingDay string) time.Time {
	switch cycle {
	case models.BillingCycleWeekly:
		return periodEnd
	case models.BillingCycleMonthly:
		day, err := strconv.Atoi(billingDay)
		if err != nil || day < 1 {
			day = 1
		}
		if day > 31 {
			day = 31
		}
		next := periodEnd.AddDate(0, 1, 0)
		return time.Date(next.Year(), next.Month(), day,
			periodEnd.Hour(), periodEnd.Minute(), periodEnd.Second(), periodEnd.Nanosecond(), periodEnd.Location())
	default:
		return periodEnd
	}
}

// PeriodEnd returns the end boundary of the period starting at periodStart:
// seven days for WEEKLY, one calendar month for MONTHLY, the input itself for
// anything else.
func PeriodEnd(periodStart time.Time, cycle models.BillingCycle) time.Time {
	switch cycle {
	case models.BillingCycleWeekly:
		return periodStart.AddDate(0, 0, 7)
	case models.BillingCycleMonthly:
		return periodStart.AddDate(0, 1, 0)
	default:
		return periodStart
	}
}

// Overlaps reports whether [aStart, aEnd] and [bStart, bEnd] intersect.
// Both ends are inclusive: touching boundaries count as overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// EndOfDay returns t with the time portion set to 23:59:59.999, the cutoff
// the generator uses so subscriptions billing today are included.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999000000, t.Location())
}

// StartOfDay returns t truncated to midnight, the boundary the overdue
// sweeper compares due dates against.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
