package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextBillingDate_WeeklyReturnsPeriodEnd(t *testing.T) {
	periodEnd := date(2025, time.November, 16)
	got := NextBillingDate(periodEnd, models.BillingCycleWeekly, "MONDAY")
	assert.Equal(t, periodEnd, got, "weekly next billing date is the period end itself")
}

func TestNextBillingDate_MonthlyUsesBillingDay(t *testing.T) {
	// Period ending Feb 10 with billing day 15 resolves to Mar 15.
	periodEnd := date(2025, time.February, 10)
	got := NextBillingDate(periodEnd, models.BillingCycleMonthly, "15")
	assert.Equal(t, date(2025, time.March, 15), got)
}

func TestNextBillingDate_MonthlyClampsBillingDay(t *testing.T) {
	periodEnd := date(2025, time.May, 10)
	assert.Equal(t, date(2025, time.June, 1), NextBillingDate(periodEnd, models.BillingCycleMonthly, "0"))
	assert.Equal(t, date(2025, time.June, 1), NextBillingDate(periodEnd, models.BillingCycleMonthly, "-4"))
	assert.Equal(t, date(2025, time.June, 1), NextBillingDate(periodEnd, models.BillingCycleMonthly, "garbage"))
	// Values above 31 clamp to 31; July has 31 days so this stays in July.
	assert.Equal(t, date(2025, time.July, 31), NextBillingDate(date(2025, time.June, 10), models.BillingCycleMonthly, "99"))
}

func TestNextBillingDate_MonthlyRollsOverShortMonths(t *testing.T) {
	// Day 31 in a 30-day month rolls into the following month.
	periodEnd := date(2025, time.March, 10) // next month is April (30 days)
	got := NextBillingDate(periodEnd, models.BillingCycleMonthly, "31")
	assert.Equal(t, date(2025, time.May, 1), got)

	// Day 30 into February rolls forward too.
	periodEnd = date(2025, time.January, 15) // next month is February (28 days in 2025)
	got = NextBillingDate(periodEnd, models.BillingCycleMonthly, "30")
	assert.Equal(t, date(2025, time.March, 2), got)
}

func TestNextBillingDate_UnknownCycleIsIdentity(t *testing.T) {
	periodEnd := date(2025, time.November, 16)
	assert.Equal(t, periodEnd, NextBillingDate(periodEnd, models.BillingCycleTrial, "1"))
	assert.Equal(t, periodEnd, NextBillingDate(periodEnd, models.BillingCycle("SOMETHING"), "1"))
}

func TestPeriodEnd(t *testing.T) {
	start := date(2025, time.November, 9)
	assert.Equal(t, date(2025, time.November, 16), PeriodEnd(start, models.BillingCycleWeekly))
	assert.Equal(t, date(2025, time.December, 9), PeriodEnd(start, models.BillingCycleMonthly))
	assert.Equal(t, start, PeriodEnd(start, models.BillingCycleTrial))
}

func TestPeriodEnd_MonthlyAcrossYearBoundary(t *testing.T) {
	assert.Equal(t, date(2026, time.January, 15), PeriodEnd(date(2025, time.December, 15), models.BillingCycleMonthly))
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"disjoint before", date(2025, 1, 1), date(2025, 1, 5), date(2025, 1, 6), date(2025, 1, 10), false},
		{"disjoint after", date(2025, 1, 6), date(2025, 1, 10), date(2025, 1, 1), date(2025, 1, 5), false},
		{"touching boundary counts", date(2025, 1, 1), date(2025, 1, 5), date(2025, 1, 5), date(2025, 1, 10), true},
		{"contained", date(2025, 1, 1), date(2025, 1, 10), date(2025, 1, 3), date(2025, 1, 4), true},
		{"partial overlap", date(2025, 1, 1), date(2025, 1, 7), date(2025, 1, 5), date(2025, 1, 12), true},
		{"identical", date(2025, 1, 1), date(2025, 1, 7), date(2025, 1, 1), date(2025, 1, 7), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
			// Overlap is symmetric.
			assert.Equal(t, tc.want, Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd))
		})
	}
}

func TestDayBoundaries(t *testing.T) {
	at := time.Date(2025, time.November, 9, 13, 45, 12, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.November, 9, 23, 59, 59, 999000000, time.UTC), EndOfDay(at))
	assert.Equal(t, time.Date(2025, time.November, 9, 0, 0, 0, 0, time.UTC), StartOfDay(at))
}
