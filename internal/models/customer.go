package models

import (
	"time"
)

// CustomerStatus is the lifecycle state of a customer.
type CustomerStatus string

const (
	CustomerStatusPending CustomerStatus = "PENDING"
	CustomerStatusActive  CustomerStatus = "ACTIVE"
	CustomerStatusLeft    CustomerStatus = "LEFT"
)

// ValidCustomerStatus reports whether s is a known customer status.
func ValidCustomerStatus(s CustomerStatus) bool {
	switch s {
	case CustomerStatusPending, CustomerStatusActive, CustomerStatusLeft:
		return true
	}
	return false
}

// Customer represents a billed party. A LEFT customer keeps their historical
// invoices but is excluded from invoice generation.
type Customer struct {
	Base      `bson:",inline"`
	Name      string         `bson:"name" json:"name"`
	Email     string         `bson:"email,omitempty" json:"email,omitempty"`
	Phone     string         `bson:"phone,omitempty" json:"phone,omitempty"`
	Status    CustomerStatus `bson:"status" json:"status"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at" json:"updated_at"`
}
