package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusUnpaid  InvoiceStatus = "UNPAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
)

// Invoice is a bill issued to a customer. Automatic invoices carry the period
// they cover and reference the subscription that produced them; manual
// invoices have no subscription and may have no period at all.
//
// Invariant: for a given subscription, no two invoices may cover overlapping
// non-null periods. The generator enforces this, backed by the unique
// (subscription_id, period_start) index.
type Invoice struct {
	Base           `bson:",inline"`
	CustomerID     primitive.ObjectID  `bson:"customer_id" json:"customer_id"`
	SubscriptionID *primitive.ObjectID `bson:"subscription_id,omitempty" json:"subscription_id,omitempty"`
	Amount         float64             `bson:"amount" json:"amount"`
	DueDate        time.Time           `bson:"due_date" json:"due_date"` // period start for automatic invoices
	Status         InvoiceStatus       `bson:"status" json:"status"`
	IsManual       bool                `bson:"is_manual" json:"is_manual"`
	PeriodStart    *time.Time          `bson:"period_start,omitempty" json:"period_start,omitempty"`
	PeriodEnd      *time.Time          `bson:"period_end,omitempty" json:"period_end,omitempty"`
	Notes          string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updated_at"`
}

// HasPeriod reports whether the invoice states a coverage window.
func (i *Invoice) HasPeriod() bool {
	return i.PeriodStart != nil && i.PeriodEnd != nil
}
