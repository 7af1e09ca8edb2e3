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

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/db"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/models"
)

// SubscriptionAdvance moves a subscription's billing cursor forward.
// PrevNextBillingDate is the value read at the start of the run; the write is
// a compare-and-swap on it, so a concurrent advance turns this one into a
// no-op instead of a lost update.
type SubscriptionAdvance struct {
	SubscriptionID      primitive.ObjectID
	PrevNextBillingDate time.Time
	NextBillingDate     time.Time
	ActivateTrial       bool
}

// InvoiceStatusUpdate re-states an invoice's status.
type InvoiceStatusUpdate struct {
	InvoiceID primitive.ObjectID
	Status    models.InvoiceStatus
}

// BillingBatch accumulates every mutation of one engine run. CommitBatch
// applies it atomically: either the whole run lands or none of it does, and
// the next scheduled run re-derives the same state.
type BillingBatch struct {
	NewInvoices          []models.Invoice
	NewPayments          []models.Payment
	InvoiceUpdates       []InvoiceStatusUpdate
	SubscriptionAdvances []SubscriptionAdvance
	Activity             []models.ActivityEntry
}

// Empty reports whether the batch carries no writes.
func (b *BillingBatch) Empty() bool {
	return len(b.NewInvoices) == 0 && len(b.NewPayments) == 0 &&
		len(b.InvoiceUpdates) == 0 && len(b.SubscriptionAdvances) == 0 && len(b.Activity) == 0
}

// IBillingRepository is the persistence surface the billing engine runs on.
// The engine never reaches for a collection handle directly; tests substitute
// an in-memory fake.
type IBillingRepository interface {
	SubscriptionsDueForBilling(ctx context.Context, cutoff time.Time) ([]models.Subscription, error)
	SubscriptionByID(ctx context.Context, id primitive.ObjectID) (*models.Subscription, error)
	CustomerByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	PlanByID(ctx context.Context, id primitive.ObjectID) (*models.Plan, error)
	InvoiceByID(ctx context.Context, id primitive.ObjectID) (*models.Invoice, error)
	InvoiceForSubscriptionByPeriodStart(ctx context.Context, subscriptionID primitive.ObjectID, periodStart time.Time) (*models.Invoice, error)
	InvoicesForCustomer(ctx context.Context, customerID primitive.ObjectID) ([]models.Invoice, error)
	HasPaymentForInvoice(ctx context.Context, invoiceID primitive.ObjectID) (bool, error)
	MarkOverdueInvoices(ctx context.Context, before time.Time) (int64, error)
	CommitBatch(ctx context.Context, batch *BillingBatch) error
}

// billingRepository implements IBillingRepository over MongoDB.
type billingRepository struct {
	db *mongo.Database
}

// NewBillingRepository creates the Mongo-backed billing repository.
func NewBillingRepository(database *mongo.Database) IBillingRepository {
	return &billingRepository{db: database}
}

func (r *billingRepository) SubscriptionsDueForBilling(ctx context.Context, cutoff time.Time) ([]models.Subscription, error) {
	filter := bson.M{
		"status":            bson.M{"$in": []models.SubscriptionStatus{models.SubscriptionStatusActive, models.SubscriptionStatusTrial}},
		"next_billing_date": bson.M{"$lte": cutoff},
	}
	cursor, err := r.db.Collection(db.SubscriptionsCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query due subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []models.Subscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode due subscriptions: %w", err)
	}
	return subs, nil
}

func (r *billingRepository) SubscriptionByID(ctx context.Context, id primitive.ObjectID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Collection(db.SubscriptionsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding subscription %s: %w", id.Hex(), err)
	}
	return &sub, nil
}

func (r *billingRepository) CustomerByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Collection(db.CustomersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding customer %s: %w", id.Hex(), err)
	}
	return &customer, nil
}

func (r *billingRepository) PlanByID(ctx context.Context, id primitive.ObjectID) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Collection(db.PlansCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding plan %s: %w", id.Hex(), err)
	}
	return &plan, nil
}

func (r *billingRepository) InvoiceByID(ctx context.Context, id primitive.ObjectID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.Collection(db.InvoicesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&invoice)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding invoice %s: %w", id.Hex(), err)
	}
	return &invoice, nil
}

func (r *billingRepository) InvoiceForSubscriptionByPeriodStart(ctx context.Context, subscriptionID primitive.ObjectID, periodStart time.Time) (*models.Invoice, error) {
	var invoice models.Invoice
	filter := bson.M{
		"subscription_id": subscriptionID,
		"period_start":    periodStart,
	}
	err := r.db.Collection(db.InvoicesCollection).FindOne(ctx, filter).Decode(&invoice)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding invoice for subscription %s at period start: %w", subscriptionID.Hex(), err)
	}
	return &invoice, nil
}

func (r *billingRepository) InvoicesForCustomer(ctx context.Context, customerID primitive.ObjectID) ([]models.Invoice, error) {
	cursor, err := r.db.Collection(db.InvoicesCollection).Find(ctx, bson.M{"customer_id": customerID},
		options.Find().SetSort(bson.D{{Key: "period_start", Value: 1}}))
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

func (r *billingRepository) HasPaymentForInvoice(ctx context.Context, invoiceID primitive.ObjectID) (bool, error) {
	count, err := r.db.Collection(db.PaymentsCollection).CountDocuments(ctx, bson.M{"invoice_id": invoiceID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count payments for invoice %s: %w", invoiceID.Hex(), err)
	}
	return count > 0, nil
}

// MarkOverdueInvoices flips UNPAID invoices due before the given boundary to
// OVERDUE. Filtering on UNPAID makes re-runs no-ops by construction.
func (r *billingRepository) MarkOverdueInvoices(ctx context.Context, before time.Time) (int64, error) {
	filter := bson.M{
		"status":   models.InvoiceStatusUnpaid,
		"due_date": bson.M{"$lt": before},
	}
	update := bson.M{"$set": bson.M{
		"status":     models.InvoiceStatusOverdue,
		"updated_at": time.Now().UTC(),
	}}
	result, err := r.db.Collection(db.InvoicesCollection).UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	return result.ModifiedCount, nil
}

// CommitBatch applies every mutation of a run inside one multi-document
// transaction. Subscription advances carry a compare-and-swap filter on the
// previously read next_billing_date; an advance whose CAS misses simply
// matches zero documents and the cursor keeps the newer value.
func (r *billingRepository) CommitBatch(ctx context.Context, batch *BillingBatch) error {
	if batch == nil || batch.Empty() {
		return nil
	}

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session for billing batch: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now().UTC()

		if len(batch.NewInvoices) > 0 {
			docs := make([]interface{}, 0, len(batch.NewInvoices))
			for i := range batch.NewInvoices {
				inv := batch.NewInvoices[i]
				inv.GenIDIfEmpty()
				if inv.CreatedAt.IsZero() {
					inv.CreatedAt = now
				}
				inv.UpdatedAt = now
				docs = append(docs, inv)
			}
			if _, err := r.db.Collection(db.InvoicesCollection).InsertMany(sc, docs); err != nil {
				return nil, fmt.Errorf("failed to insert invoices: %w", err)
			}
		}

		if len(batch.NewPayments) > 0 {
			docs := make([]interface{}, 0, len(batch.NewPayments))
			for i := range batch.NewPayments {
				p := batch.NewPayments[i]
				p.GenIDIfEmpty()
				if p.CreatedAt.IsZero() {
					p.CreatedAt = now
				}
				docs = append(docs, p)
			}
			if _, err := r.db.Collection(db.PaymentsCollection).InsertMany(sc, docs); err != nil {
				return nil, fmt.Errorf("failed to insert payments: %w", err)
			}
		}

		for _, upd := range batch.InvoiceUpdates {
			_, err := r.db.Collection(db.InvoicesCollection).UpdateOne(sc,
				bson.M{"_id": upd.InvoiceID},
				bson.M{"$set": bson.M{"status": upd.Status, "updated_at": now}})
			if err != nil {
				return nil, fmt.Errorf("failed to update invoice %s: %w", upd.InvoiceID.Hex(), err)
			}
		}

		for _, adv := range batch.SubscriptionAdvances {
			set := bson.M{
				"next_billing_date": adv.NextBillingDate,
				"updated_at":        now,
			}
			if adv.ActivateTrial {
				set["status"] = models.SubscriptionStatusActive
			}
			// CAS on the cursor read at the start of the run.
			filter := bson.M{
				"_id":               adv.SubscriptionID,
				"next_billing_date": adv.PrevNextBillingDate,
			}
			if _, err := r.db.Collection(db.SubscriptionsCollection).UpdateOne(sc, filter, bson.M{"$set": set}); err != nil {
				return nil, fmt.Errorf("failed to advance subscription %s: %w", adv.SubscriptionID.Hex(), err)
			}
		}

		if len(batch.Activity) > 0 {
			docs := make([]interface{}, 0, len(batch.Activity))
			for i := range batch.Activity {
				entry := batch.Activity[i]
				entry.GenIDIfEmpty()
				if entry.Timestamp.IsZero() {
					entry.Timestamp = now
				}
				docs = append(docs, entry)
			}
			if _, err := r.db.Collection(db.ActivityLogCollection).InsertMany(sc, docs); err != nil {
				return nil, fmt.Errorf("failed to insert activity entries: %w", err)
			}
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("billing batch commit failed: %w", err)
	}
	return nil
}
