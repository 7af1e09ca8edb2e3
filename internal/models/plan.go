package models

import (
	"time"
)

// BillingCycle is the recurrence pattern of a plan.
type BillingCycle string

const (
	BillingCycleWeekly  BillingCycle = "WEEKLY"
	BillingCycleMonthly BillingCycle = "MONTHLY"
	BillingCycleTrial   BillingCycle = "TRIAL"
)

// ValidBillingCycle reports whether c is a known billing cycle.
func ValidBillingCycle(c BillingCycle) bool {
	switch c {
	case BillingCycleWeekly, BillingCycleMonthly, BillingCycleTrial:
		return true
	}
	return false
}

// Plan is immutable reference data describing what a subscription bills.
// Subscriptions reference plans by ID, never embed them.
type Plan struct {
	Base         `bson:",inline"`
	Name         string       `bson:"name" json:"name"`
	BasePrice    float64      `bson:"base_price" json:"base_price"`
	BillingCycle BillingCycle `bson:"billing_cycle" json:"billing_cycle"`
	TrialDays    *int         `bson:"trial_days,omitempty" json:"trial_days,omitempty"`
	CreatedAt    time.Time    `bson:"created_at" json:"created_at"`
}
