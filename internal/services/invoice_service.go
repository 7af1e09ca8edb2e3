package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/billing"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/db"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/models"
)

// IInvoiceService defines the operator-facing invoice surface. Automatic
// invoices are created only by the billing engine; this service covers manual
// invoices and reads.
type IInvoiceService interface {
	CreateManualInvoice(ctx context.Context, customerID primitive.ObjectID, amount float64, periodStart, periodEnd *time.Time, notes string, actorID primitive.ObjectID) (*models.Invoice, error)
	FindInvoiceByID(ctx context.Context, id primitive.ObjectID) (*models.Invoice, error)
	ListInvoicesForCustomer(ctx context.Context, customerID primitive.ObjectID) ([]models.Invoice, error)
}

// invoiceService implements IInvoiceService.
type invoiceService struct {
	db       *mongo.Database
	activity IActivityService
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(database *mongo.Database, activity IActivityService) IInvoiceService {
	return &invoiceService{db: database, activity: activity}
}

// CreateManualInvoice creates an ad-hoc invoice with no subscription, due by
// end of today. Period bounds are optional; when present they participate in
// the generator's overlap suppression, but no overlap check is applied
// against other manual invoices here.
func (s *invoiceService) CreateManualInvoice(ctx context.Context, customerID primitive.ObjectID, amount float64, periodStart, periodEnd *time.Time, notes string, actorID primitive.ObjectID) (*models.Invoice, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("invoice amount must be positive: %w", ErrValidation)
	}
	var customer models.Customer
	if err := s.db.Collection(db.CustomersCollection).FindOne(ctx, bson.M{"_id": customerID}).Decode(&customer); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("customer %s not found: %w", customerID.Hex(), ErrValidation)
		}
		return nil, fmt.Errorf("error finding customer %s: %w", customerID.Hex(), err)
	}
	if periodStart != nil && periodEnd != nil && periodEnd.Before(*periodStart) {
		return nil, fmt.Errorf("period end cannot precede period start: %w", ErrValidation)
	}

	now := time.Now().UTC()
	invoice := &models.Invoice{
		Base:        models.NewBase(),
		CustomerID:  customerID,
		Amount:      amount,
		DueDate:     billing.EndOfDay(now),
		Status:      models.InvoiceStatusUnpaid,
		IsManual:    true,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Notes:       notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := db.Try(func() error {
		_, insertErr := s.db.Collection(db.InvoicesCollection).InsertOne(ctx, invoice)
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert manual invoice for customer %s: %w", customerID.Hex(), err)
	}

	s.activity.Record(ctx, &actorID, models.ActionCreateManualInvoice, map[string]interface{}{
		"invoice_id":  invoice.ID.Hex(),
		"customer_id": customerID.Hex(),
		"amount":      amount,
	})
	return invoice, nil
}

func (s *invoiceService) FindInvoiceByID(ctx context.Context, id primitive.ObjectID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.Collection(db.InvoicesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&invoice)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding invoice %s: %w", id.Hex(), err)
	}
	return &invoice, nil
}

func (s *invoiceService) ListInvoicesForCustomer(ctx context.Context, customerID primitive.ObjectID) ([]models.Invoice, error) {
	cursor, err := s.db.Collection(db.InvoicesCollection).Find(ctx, bson.M{"customer_id": customerID},
		options.Find().SetSort(bson.D{{Key: "due_date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices for customer %s: %w", customerID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var invoices []models.Invoice
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, fmt.Errorf("failed to decode invoices for customer %s: %w", customerID.Hex(), err)
	}
	return invoices, nil
}
