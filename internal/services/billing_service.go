package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/billing"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/models"
)

// IBillingService runs the two scheduled halves of the billing engine.
type IBillingService interface {
	// GenerateDueInvoices bills every subscription whose cursor falls on or
	// before the end of the given day. Returns the number of invoices created.
	GenerateDueInvoices(ctx context.Context, now time.Time) (int, error)
	// SweepOverdueInvoices flips UNPAID invoices due before today to OVERDUE.
	// Returns the number of invoices flagged.
	SweepOverdueInvoices(ctx context.Context, now time.Time) (int64, error)
}

// billingService implements IBillingService.
type billingService struct {
	repo IBillingRepository
}

// NewBillingService creates a new BillingService.
func NewBillingService(repo IBillingRepository) IBillingService {
	return &billingService{repo: repo}
}

// GenerateDueInvoices scans subscriptions due by end of day, applies the
// exact-match and overlap idempotency checks, and commits all resulting
// mutations as one atomic batch. A failure on one subscription is logged and
// skipped; it never aborts the rest of the run.
func (s *billingService) GenerateDueInvoices(ctx context.Context, now time.Time) (int, error) {
	runID := uuid.NewString()
	cutoff := billing.EndOfDay(now.UTC())

	subs, err := s.repo.SubscriptionsDueForBilling(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to load due subscriptions: %w", err)
	}

	batch := &BillingBatch{}
	created := 0

	for i := range subs {
		sub := &subs[i]
		madeInvoice, err := s.processSubscription(ctx, sub, batch)
		if err != nil {
			log.Printf("[billing run %s] subscription %s skipped: %v", runID, sub.ID.Hex(), err)
			continue
		}
		if madeInvoice {
			created++
		}
	}

	batch.Activity = append(batch.Activity, models.ActivityEntry{
		Action:    models.ActionGenerateInvoices,
		Timestamp: time.Now().UTC(),
		Details:   map[string]interface{}{"run_id": runID, "count": created, "due_subscriptions": len(subs)},
	})

	if err := s.repo.CommitBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("failed to commit billing run %s: %w", runID, err)
	}

	log.Printf("[billing run %s] generated %d invoices (%d subscriptions due)", runID, created, len(subs))
	return created, nil
}

// processSubscription appends the mutations for one due subscription to the
// batch. Returns true when a new invoice was staged.
func (s *billingService) processSubscription(ctx context.Context, sub *models.Subscription, batch *BillingBatch) (bool, error) {
	// Customer churn halts billing but preserves history.
	customer, err := s.repo.CustomerByID(ctx, sub.CustomerID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, fmt.Errorf("customer %s not found", sub.CustomerID.Hex())
		}
		return false, err
	}
	if customer.Status == models.CustomerStatusLeft {
		return false, nil
	}

	plan, err := s.repo.PlanByID(ctx, sub.PlanID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, fmt.Errorf("plan %s not found", sub.PlanID.Hex())
		}
		return false, err
	}

	amount := sub.Amount(plan)
	periodStart := sub.NextBillingDate
	periodEnd := billing.PeriodEnd(periodStart, plan.BillingCycle)

	advance := SubscriptionAdvance{
		SubscriptionID:      sub.ID,
		PrevNextBillingDate: sub.NextBillingDate,
		NextBillingDate:     billing.NextBillingDate(periodEnd, plan.BillingCycle, sub.BillingDay),
		ActivateTrial:       sub.Status == models.SubscriptionStatusTrial,
	}

	// Exact-match idempotency check: an invoice for this subscription already
	// starting at the candidate period start.
	existing, err := s.repo.InvoiceForSubscriptionByPeriodStart(ctx, sub.ID, periodStart)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return false, err
	}
	if existing != nil {
		switch existing.Status {
		case models.InvoiceStatusPaid:
			// Period already billed and settled; just move the cursor on.
			batch.SubscriptionAdvances = append(batch.SubscriptionAdvances, advance)
			return false, nil
		case models.InvoiceStatusUnpaid, models.InvoiceStatusOverdue:
			paid, err := s.repo.HasPaymentForInvoice(ctx, existing.ID)
			if err != nil {
				return false, err
			}
			if paid {
				// A payment landed without the invoice being closed; close it
				// and move on.
				batch.InvoiceUpdates = append(batch.InvoiceUpdates, InvoiceStatusUpdate{
					InvoiceID: existing.ID,
					Status:    models.InvoiceStatusPaid,
				})
				batch.SubscriptionAdvances = append(batch.SubscriptionAdvances, advance)
				return false, nil
			}
			// Outstanding invoice with no payment: leave the subscription
			// stalled rather than piling up invoices.
			return false, nil
		}
	}

	// Overlap idempotency check: any paid invoice for this customer, manual
	// or automatic, already covering the candidate window.
	invoices, err := s.repo.InvoicesForCustomer(ctx, sub.CustomerID)
	if err != nil {
		return false, err
	}
	for i := range invoices {
		inv := &invoices[i]
		if !inv.HasPeriod() {
			continue
		}
		if inv.Status == models.InvoiceStatusPaid && billing.Overlaps(*inv.PeriodStart, *inv.PeriodEnd, periodStart, periodEnd) {
			// Period already covered; skip the invoice but advance the cursor.
			batch.SubscriptionAdvances = append(batch.SubscriptionAdvances, advance)
			return false, nil
		}
	}

	subID := sub.ID
	ps := periodStart
	pe := periodEnd
	batch.NewInvoices = append(batch.NewInvoices, models.Invoice{
		CustomerID:     sub.CustomerID,
		SubscriptionID: &subID,
		Amount:         amount,
		DueDate:        periodStart, // due on the billing date, not the period end
		Status:         models.InvoiceStatusUnpaid,
		IsManual:       false,
		PeriodStart:    &ps,
		PeriodEnd:      &pe,
	})
	batch.SubscriptionAdvances = append(batch.SubscriptionAdvances, advance)
	return true, nil
}

// SweepOverdueInvoices transitions lapsed invoices to OVERDUE. The filter on
// UNPAID makes repeated runs no-ops for already-flagged invoices.
func (s *billingService) SweepOverdueInvoices(ctx context.Context, now time.Time) (int64, error) {
	startOfToday := billing.StartOfDay(now.UTC())

	count, err := s.repo.MarkOverdueInvoices(ctx, startOfToday)
	if err != nil {
		return 0, fmt.Errorf("overdue sweep failed: %w", err)
	}

	batch := &BillingBatch{Activity: []models.ActivityEntry{{
		Action:    models.ActionUpdateOverdueInvoices,
		Timestamp: time.Now().UTC(),
		Details:   map[string]interface{}{"count": count},
	}}}
	if err := s.repo.CommitBatch(ctx, batch); err != nil {
		// The sweep itself succeeded; a lost audit entry is not worth a retry
		// of the whole run.
		log.Printf("failed to record overdue sweep activity: %v", err)
	}

	log.Printf("overdue sweep flagged %d invoices", count)
	return count, nil
}
