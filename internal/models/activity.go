package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity actions written by the engine and the operator API.
const (
	ActionGenerateInvoices         = "GENERATE_INVOICES"
	ActionUpdateOverdueInvoices    = "UPDATE_OVERDUE_INVOICES"
	ActionRecordPayment            = "RECORD_PAYMENT"
	ActionCreateManualInvoice      = "CREATE_MANUAL_INVOICE"
	ActionUpdateSubscriptionStatus = "UPDATE_SUBSCRIPTION_STATUS"
	ActionSubscriptionAdvanceFail  = "SUBSCRIPTION_ADVANCE_FAILED"
)

// ActivityEntry is an append-only audit record. Nothing in the engine reads
// these back; they exist for operators.
type ActivityEntry struct {
	Base      `bson:",inline"`
	UserID    *primitive.ObjectID    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Action    string                 `bson:"action" json:"action"`
	Timestamp time.Time              `bson:"timestamp" json:"timestamp"`
	Details   map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
}
