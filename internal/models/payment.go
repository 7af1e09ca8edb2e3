package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment records money received against an invoice. Creating a payment is
// the sole trigger that moves an invoice to PAID and advances the owning
// subscription's billing cursor.
type Payment struct {
	Base             `bson:",inline"`
	InvoiceID        primitive.ObjectID `bson:"invoice_id" json:"invoice_id"`
	RecordedByUserID primitive.ObjectID `bson:"recorded_by_user_id" json:"recorded_by_user_id"`
	AmountPaid       float64            `bson:"amount_paid" json:"amount_paid"`
	PaymentDate      time.Time          `bson:"payment_date" json:"payment_date"`
	Notes            string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}
