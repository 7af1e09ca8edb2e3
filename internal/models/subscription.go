package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "TRIAL"
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusSuspended SubscriptionStatus = "SUSPENDED"
	SubscriptionStatusCanceled  SubscriptionStatus = "CANCELED"
)

// ValidOperatorSubscriptionStatus reports whether s is a status an operator
// may set directly. TRIAL is only ever assigned at creation; the engine flips
// it to ACTIVE on first successful billing.
func ValidOperatorSubscriptionStatus(s SubscriptionStatus) bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusSuspended, SubscriptionStatusCanceled:
		return true
	}
	return false
}

// Subscription ties a customer to a plan. NextBillingDate is the authoritative
// cursor marking the start of the next unbilled period; it only moves forward,
// and only via the invoice generator or the payment reconciler.
type Subscription struct {
	Base            `bson:",inline"`
	CustomerID      primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	PlanID          primitive.ObjectID `bson:"plan_id" json:"plan_id"`
	CustomPrice     *float64           `bson:"custom_price,omitempty" json:"custom_price,omitempty"`
	BillingDay      string             `bson:"billing_day" json:"billing_day"` // weekday name for WEEKLY, "1".."31" for MONTHLY
	Status          SubscriptionStatus `bson:"status" json:"status"`
	NextBillingDate time.Time          `bson:"next_billing_date" json:"next_billing_date"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// Amount returns the price billed per period: the custom price when set,
// otherwise the plan's base price.
func (s *Subscription) Amount(plan *Plan) float64 {
	if s.CustomPrice != nil {
		return *s.CustomPrice
	}
	return plan.BasePrice
}
