package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/models"
)

// fakeBillingRepository is an in-memory IBillingRepository for engine tests.
// CommitBatch mirrors the Mongo implementation's semantics, including the
// compare-and-swap on subscription advances.
type fakeBillingRepository struct {
	customers     map[primitive.ObjectID]*models.Customer
	plans         map[primitive.ObjectID]*models.Plan
	subscriptions map[primitive.ObjectID]*models.Subscription
	invoices      map[primitive.ObjectID]*models.Invoice
	payments      map[primitive.ObjectID]*models.Payment
	activity      []models.ActivityEntry

	commitErr   error // when set, CommitBatch fails with it
	commitCalls int
}

func newFakeBillingRepository() *fakeBillingRepository {
	return &fakeBillingRepository{
		customers:     make(map[primitive.ObjectID]*models.Customer),
		plans:         make(map[primitive.ObjectID]*models.Plan),
		subscriptions: make(map[primitive.ObjectID]*models.Subscription),
		invoices:      make(map[primitive.ObjectID]*models.Invoice),
		payments:      make(map[primitive.ObjectID]*models.Payment),
	}
}

func (f *fakeBillingRepository) addCustomer(c models.Customer) *models.Customer {
	c.GenIDIfEmpty()
	f.customers[c.ID] = &c
	return &c
}

func (f *fakeBillingRepository) addPlan(p models.Plan) *models.Plan {
	p.GenIDIfEmpty()
	f.plans[p.ID] = &p
	return &p
}

func (f *fakeBillingRepository) addSubscription(s models.Subscription) *models.Subscription {
	s.GenIDIfEmpty()
	f.subscriptions[s.ID] = &s
	return &s
}

func (f *fakeBillingRepository) addInvoice(i models.Invoice) *models.Invoice {
	i.GenIDIfEmpty()
	f.invoices[i.ID] = &i
	return &i
}

func (f *fakeBillingRepository) addPayment(p models.Payment) *models.Payment {
	p.GenIDIfEmpty()
	f.payments[p.ID] = &p
	return &p
}

func (f *fakeBillingRepository) SubscriptionsDueForBilling(ctx context.Context, cutoff time.Time) ([]models.Subscription, error) {
	var due []models.Subscription
	for _, sub := range f.subscriptions {
		if sub.Status != models.SubscriptionStatusActive && sub.Status != models.SubscriptionStatusTrial {
			continue
		}
		if sub.NextBillingDate.After(cutoff) {
			continue
		}
		due = append(due, *sub)
	}
	return due, nil
}

func (f *fakeBillingRepository) SubscriptionByID(ctx context.Context, id primitive.ObjectID) (*models.Subscription, error) {
	sub, ok := f.subscriptions[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *sub
	return &copied, nil
}

func (f *fakeBillingRepository) CustomerByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *c
	return &copied, nil
}

func (f *fakeBillingRepository) PlanByID(ctx context.Context, id primitive.ObjectID) (*models.Plan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *p
	return &copied, nil
}

func (f *fakeBillingRepository) InvoiceByID(ctx context.Context, id primitive.ObjectID) (*models.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *inv
	return &copied, nil
}

func (f *fakeBillingRepository) InvoiceForSubscriptionByPeriodStart(ctx context.Context, subscriptionID primitive.ObjectID, periodStart time.Time) (*models.Invoice, error) {
	for _, inv := range f.invoices {
		if inv.SubscriptionID == nil || *inv.SubscriptionID != subscriptionID {
			continue
		}
		if inv.PeriodStart != nil && inv.PeriodStart.Equal(periodStart) {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeBillingRepository) InvoicesForCustomer(ctx context.Context, customerID primitive.ObjectID) ([]models.Invoice, error) {
	var result []models.Invoice
	for _, inv := range f.invoices {
		if inv.CustomerID == customerID {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (f *fakeBillingRepository) HasPaymentForInvoice(ctx context.Context, invoiceID primitive.ObjectID) (bool, error) {
	for _, p := range f.payments {
		if p.InvoiceID == invoiceID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBillingRepository) MarkOverdueInvoices(ctx context.Context, before time.Time) (int64, error) {
	var count int64
	for _, inv := range f.invoices {
		if inv.Status == models.InvoiceStatusUnpaid && inv.DueDate.Before(before) {
			inv.Status = models.InvoiceStatusOverdue
			count++
		}
	}
	return count, nil
}

func (f *fakeBillingRepository) CommitBatch(ctx context.Context, batch *BillingBatch) error {
	f.commitCalls++
	if f.commitErr != nil {
		return f.commitErr
	}
	if batch == nil || batch.Empty() {
		return nil
	}

	for i := range batch.NewInvoices {
		inv := batch.NewInvoices[i]
		inv.GenIDIfEmpty()
		f.invoices[inv.ID] = &inv
	}
	for i := range batch.NewPayments {
		p := batch.NewPayments[i]
		p.GenIDIfEmpty()
		f.payments[p.ID] = &p
	}
	for _, upd := range batch.InvoiceUpdates {
		if inv, ok := f.invoices[upd.InvoiceID]; ok {
			inv.Status = upd.Status
		}
	}
	for _, adv := range batch.SubscriptionAdvances {
		sub, ok := f.subscriptions[adv.SubscriptionID]
		if !ok {
			continue
		}
		// CAS: only apply when the cursor still holds the value read.
		if !sub.NextBillingDate.Equal(adv.PrevNextBillingDate) {
			continue
		}
		sub.NextBillingDate = adv.NextBillingDate
		if adv.ActivateTrial {
			sub.Status = models.SubscriptionStatusActive
		}
	}
	f.activity = append(f.activity, batch.Activity...)
	return nil
}
