package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/billing"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/models"
)

// ErrInvoiceNotFound is surfaced to callers when the referenced invoice does not exist.
var ErrInvoiceNotFound = errors.New("invoice not found")

// IPaymentService records payments and reconciles the owning subscription.
type IPaymentService interface {
	RecordPayment(ctx context.Context, invoiceID primitive.ObjectID, amountPaid float64, paymentDate time.Time, notes string, recordedBy primitive.ObjectID) (*models.Payment, error)
}

// paymentService implements IPaymentService.
type paymentService struct {
	repo IBillingRepository
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(repo IBillingRepository) IPaymentService {
	return &paymentService{repo: repo}
}

// RecordPayment creates the payment, marks the invoice PAID and advances the
// owning subscription's billing cursor. The payment and the invoice update
// commit together; a failure advancing the subscription afterwards is logged
// and recorded in the activity log but never rolls the payment back.
func (s *paymentService) RecordPayment(ctx context.Context, invoiceID primitive.ObjectID, amountPaid float64, paymentDate time.Time, notes string, recordedBy primitive.ObjectID) (*models.Payment, error) {
	invoice, err := s.repo.InvoiceByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	payment := models.Payment{
		Base:             models.NewBase(),
		InvoiceID:        invoice.ID,
		RecordedByUserID: recordedBy,
		AmountPaid:       amountPaid,
		PaymentDate:      paymentDate,
		Notes:            notes,
		CreatedAt:        time.Now().UTC(),
	}

	userID := recordedBy
	batch := &BillingBatch{
		NewPayments: []models.Payment{payment},
		InvoiceUpdates: []InvoiceStatusUpdate{{
			InvoiceID: invoice.ID,
			Status:    models.InvoiceStatusPaid,
		}},
		Activity: []models.ActivityEntry{{
			UserID:    &userID,
			Action:    models.ActionRecordPayment,
			Timestamp: time.Now().UTC(),
			Details:   map[string]interface{}{"invoice_id": invoice.ID.Hex(), "amount_paid": amountPaid},
		}},
	}
	if err := s.repo.CommitBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to record payment for invoice %s: %w", invoiceID.Hex(), err)
	}

	// Secondary bookkeeping: move the subscription's cursor forward. The
	// payment stands even if this fails; the next generator run re-derives
	// the advance from the now-PAID invoice's stored period.
	if invoice.SubscriptionID != nil {
		if err := s.advanceSubscription(ctx, invoice, paymentDate); err != nil {
			log.Printf("payment recorded for invoice %s but subscription advance failed: %v", invoiceID.Hex(), err)
			failBatch := &BillingBatch{Activity: []models.ActivityEntry{{
				Action:    models.ActionSubscriptionAdvanceFail,
				Timestamp: time.Now().UTC(),
				Details: map[string]interface{}{
					"invoice_id":      invoice.ID.Hex(),
					"subscription_id": invoice.SubscriptionID.Hex(),
					"error":           err.Error(),
				},
			}}}
			if logErr := s.repo.CommitBatch(ctx, failBatch); logErr != nil {
				log.Printf("failed to record subscription advance failure: %v", logErr)
			}
		}
	}

	return &payment, nil
}

func (s *paymentService) advanceSubscription(ctx context.Context, invoice *models.Invoice, paymentDate time.Time) error {
	sub, err := s.repo.SubscriptionByID(ctx, *invoice.SubscriptionID)
	if err != nil {
		return fmt.Errorf("failed to load subscription %s: %w", invoice.SubscriptionID.Hex(), err)
	}
	plan, err := s.repo.PlanByID(ctx, sub.PlanID)
	if err != nil {
		return fmt.Errorf("failed to load plan %s: %w", sub.PlanID.Hex(), err)
	}

	// Manual period-less invoices fall back to the payment date as the
	// period boundary.
	periodEnd := paymentDate
	if invoice.PeriodEnd != nil {
		periodEnd = *invoice.PeriodEnd
	}

	next := billing.NextBillingDate(periodEnd, plan.BillingCycle, sub.BillingDay)
	if next.Before(sub.NextBillingDate) {
		// The cursor only ever moves forward; a later writer already won.
		return nil
	}

	batch := &BillingBatch{SubscriptionAdvances: []SubscriptionAdvance{{
		SubscriptionID:      sub.ID,
		PrevNextBillingDate: sub.NextBillingDate,
		NextBillingDate:     next,
		ActivateTrial:       sub.Status == models.SubscriptionStatusTrial,
	}}}
	return s.repo.CommitBatch(ctx, batch)
}
