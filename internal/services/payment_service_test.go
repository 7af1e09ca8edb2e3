package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/models"
)

type paymentFixture struct {
	repo *fakeBillingRepository
	svc  IPaymentService
}

func newPaymentFixture() *paymentFixture {
	repo := newFakeBillingRepository()
	return &paymentFixture{repo: repo, svc: NewPaymentService(repo)}
}

// seedUnpaidWeeklyInvoice sets up a weekly subscription with an unpaid invoice
// covering 2025-11-09 to 2025-11-16, cursor still at the period start.
func (f *paymentFixture) seedUnpaidWeeklyInvoice() (*models.Subscription, *models.Invoice) {
	customer := f.repo.addCustomer(models.Customer{Name: "Acme", Status: models.CustomerStatusActive})
	plan := f.repo.addPlan(models.Plan{Name: "Weekly", BasePrice: 25.00, BillingCycle: models.BillingCycleWeekly})
	sub := f.repo.addSubscription(models.Subscription{
		CustomerID:      customer.ID,
		PlanID:          plan.ID,
		Status:          models.SubscriptionStatusActive,
		NextBillingDate: utcDate(2025, time.November, 9),
	})
	subID := sub.ID
	ps := utcDate(2025, time.November, 9)
	pe := utcDate(2025, time.November, 16)
	inv := f.repo.addInvoice(models.Invoice{
		CustomerID:     customer.ID,
		SubscriptionID: &subID,
		Amount:         25.00,
		DueDate:        ps,
		Status:         models.InvoiceStatusUnpaid,
		PeriodStart:    &ps,
		PeriodEnd:      &pe,
	})
	return sub, inv
}

func TestRecordPayment_MarksPaidAndAdvancesSubscription(t *testing.T) {
	f := newPaymentFixture()
	sub, inv := f.seedUnpaidWeeklyInvoice()
	operator := primitive.NewObjectID()

	payment, err := f.svc.RecordPayment(context.Background(), inv.ID, 25.00, utcDate(2025, time.November, 10), "cash", operator)
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, inv.ID, payment.InvoiceID)
	assert.Equal(t, operator, payment.RecordedByUserID)

	assert.Equal(t, models.InvoiceStatusPaid, f.repo.invoices[inv.ID].Status)
	assert.Len(t, f.repo.payments, 1)

	// Cursor derived from the invoice's stored period end, not the pay date.
	assert.True(t, f.repo.subscriptions[sub.ID].NextBillingDate.Equal(utcDate(2025, time.November, 16)))

	require.Len(t, f.repo.activity, 1)
	entry := f.repo.activity[0]
	assert.Equal(t, models.ActionRecordPayment, entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, operator, *entry.UserID)
}

func TestRecordPayment_InvoiceNotFound(t *testing.T) {
	f := newPaymentFixture()

	_, err := f.svc.RecordPayment(context.Background(), primitive.NewObjectID(), 25.00, utcDate(2025, time.November, 10), "", primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
	assert.Empty(t, f.repo.payments)
}

func TestRecordPayment_ManualInvoiceWithoutSubscription(t *testing.T) {
	f := newPaymentFixture()
	customer := f.repo.addCustomer(models.Customer{Name: "Walk-in", Status: models.CustomerStatusActive})
	inv := f.repo.addInvoice(models.Invoice{
		CustomerID: customer.ID,
		Amount:     15.00,
		DueDate:    utcDate(2025, time.November, 9),
		Status:     models.InvoiceStatusUnpaid,
		IsManual:   true,
	})

	payment, err := f.svc.RecordPayment(context.Background(), inv.ID, 15.00, utcDate(2025, time.November, 10), "", primitive.NewObjectID())
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, models.InvoiceStatusPaid, f.repo.invoices[inv.ID].Status)
}

func TestRecordPayment_PeriodlessInvoiceFallsBackToPaymentDate(t *testing.T) {
	f := newPaymentFixture()
	sub, inv := f.seedUnpaidWeeklyInvoice()
	f.repo.invoices[inv.ID].PeriodStart = nil
	f.repo.invoices[inv.ID].PeriodEnd = nil

	payDate := utcDate(2025, time.November, 12)
	_, err := f.svc.RecordPayment(context.Background(), inv.ID, 25.00, payDate, "", primitive.NewObjectID())
	require.NoError(t, err)

	// Weekly cycle leaves the period end unchanged, so the cursor lands on
	// the payment date itself.
	assert.True(t, f.repo.subscriptions[sub.ID].NextBillingDate.Equal(payDate))
}

func TestRecordPayment_NeverMovesCursorBackwards(t *testing.T) {
	f := newPaymentFixture()
	sub, inv := f.seedUnpaidWeeklyInvoice()
	f.repo.subscriptions[sub.ID].NextBillingDate = utcDate(2025, time.December, 1)

	_, err := f.svc.RecordPayment(context.Background(), inv.ID, 25.00, utcDate(2025, time.November, 10), "", primitive.NewObjectID())
	require.NoError(t, err)

	assert.Equal(t, models.InvoiceStatusPaid, f.repo.invoices[inv.ID].Status)
	assert.True(t, f.repo.subscriptions[sub.ID].NextBillingDate.Equal(utcDate(2025, time.December, 1)))
}

func TestRecordPayment_ActivatesTrialSubscription(t *testing.T) {
	f := newPaymentFixture()
	sub, inv := f.seedUnpaidWeeklyInvoice()
	f.repo.subscriptions[sub.ID].Status = models.SubscriptionStatusTrial

	_, err := f.svc.RecordPayment(context.Background(), inv.ID, 25.00, utcDate(2025, time.November, 10), "", primitive.NewObjectID())
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, f.repo.subscriptions[sub.ID].Status)
}

func TestRecordPayment_AdvanceFailureDoesNotRollBackPayment(t *testing.T) {
	f := newPaymentFixture()
	_, inv := f.seedUnpaidWeeklyInvoice()
	// The subscription vanishes after the invoice was issued; the advance
	// lookup fails but the payment must stand.
	if inv.SubscriptionID != nil {
		delete(f.repo.subscriptions, *inv.SubscriptionID)
	}

	payment, err := f.svc.RecordPayment(context.Background(), inv.ID, 25.00, utcDate(2025, time.November, 10), "", primitive.NewObjectID())
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, models.InvoiceStatusPaid, f.repo.invoices[inv.ID].Status)
	assert.Len(t, f.repo.payments, 1)

	// Both the payment entry and the failure entry are in the audit log.
	var actions []string
	for _, e := range f.repo.activity {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, models.ActionRecordPayment)
	assert.Contains(t, actions, models.ActionSubscriptionAdvanceFail)
}
