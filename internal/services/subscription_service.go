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
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/config"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/db"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/models"
)

// ISubscriptionService defines the interface for subscription management.
// The engine mutates subscriptions through IBillingRepository; this service
// is the operator-facing side.
type ISubscriptionService interface {
	CreateSubscription(ctx context.Context, customerID, planID primitive.ObjectID, customPrice *float64, billingDay string, trial bool) (*models.Subscription, error)
	FindSubscriptionByID(ctx context.Context, id primitive.ObjectID) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context, customerID *primitive.ObjectID, limit int) ([]models.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, id primitive.ObjectID, status models.SubscriptionStatus, newNextBillingDate *time.Time, actorID primitive.ObjectID) error
	ChangePlan(ctx context.Context, id, newPlanID primitive.ObjectID, billingDay string) (*models.Subscription, error)
}

// subscriptionService implements ISubscriptionService.
type subscriptionService struct {
	db          *mongo.Database
	cfg         *config.Config
	planService IPlanService
	activity    IActivityService
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(database *mongo.Database, cfg *config.Config, planService IPlanService, activity IActivityService) ISubscriptionService {
	return &subscriptionService{db: database, cfg: cfg, planService: planService, activity: activity}
}

// initialNextBillingDate computes the cursor for a brand new subscription:
// today plus the trial offset for trials, otherwise the first cycle boundary.
func (s *subscriptionService) initialNextBillingDate(plan *models.Plan, billingDay string, trial bool, now time.Time) time.Time {
	today := billing.StartOfDay(now.UTC())

	if trial || plan.BillingCycle == models.BillingCycleTrial {
		trialDays := s.cfg.DefaultTrialDays
		if plan.TrialDays != nil && *plan.TrialDays > 0 {
			trialDays = *plan.TrialDays
		}
		return today.AddDate(0, 0, trialDays)
	}

	switch plan.BillingCycle {
	case models.BillingCycleWeekly:
		return today.AddDate(0, 0, 7)
	case models.BillingCycleMonthly:
		return billing.NextBillingDate(today, models.BillingCycleMonthly, billingDay)
	default:
		return today
	}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, customerID, planID primitive.ObjectID, customPrice *float64, billingDay string, trial bool) (*models.Subscription, error) {
	// Validate the references up front; a subscription with a dangling plan
	// would be silently skipped by the generator forever.
	var customer models.Customer
	if err := s.db.Collection(db.CustomersCollection).FindOne(ctx, bson.M{"_id": customerID}).Decode(&customer); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("customer %s not found: %w", customerID.Hex(), ErrValidation)
		}
		return nil, fmt.Errorf("error finding customer %s: %w", customerID.Hex(), err)
	}
	plan, err := s.planService.FindPlanByID(ctx, planID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("plan %s not found: %w", planID.Hex(), ErrValidation)
		}
		return nil, err
	}
	if customPrice != nil && *customPrice < 0 {
		return nil, fmt.Errorf("custom price cannot be negative: %w", ErrValidation)
	}

	now := time.Now().UTC()
	status := models.SubscriptionStatusActive
	if trial || plan.BillingCycle == models.BillingCycleTrial {
		status = models.SubscriptionStatusTrial
	}

	sub := &models.Subscription{
		Base:            models.NewBase(),
		CustomerID:      customerID,
		PlanID:          planID,
		CustomPrice:     customPrice,
		BillingDay:      billingDay,
		Status:          status,
		NextBillingDate: s.initialNextBillingDate(plan, billingDay, trial, now),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = db.Try(func() error {
		_, insertErr := s.db.Collection(db.SubscriptionsCollection).InsertOne(ctx, sub)
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert subscription for customer %s: %w", customerID.Hex(), err)
	}
	return sub, nil
}

func (s *subscriptionService) FindSubscriptionByID(ctx context.Context, id primitive.ObjectID) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Collection(db.SubscriptionsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding subscription %s: %w", id.Hex(), err)
	}
	return &sub, nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, customerID *primitive.ObjectID, limit int) ([]models.Subscription, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	filter := bson.M{}
	if customerID != nil {
		filter["customer_id"] = *customerID
	}
	cursor, err := s.db.Collection(db.SubscriptionsCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "next_billing_date", Value: 1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []models.Subscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode subscriptions: %w", err)
	}
	return subs, nil
}

// UpdateSubscriptionStatus is the operator-driven status transition. Resuming
// to ACTIVE accepts an operator-supplied next billing date; without one the
// cursor keeps its pre-suspension value.
func (s *subscriptionService) UpdateSubscriptionStatus(ctx context.Context, id primitive.ObjectID, status models.SubscriptionStatus, newNextBillingDate *time.Time, actorID primitive.ObjectID) error {
	if !models.ValidOperatorSubscriptionStatus(status) {
		return fmt.Errorf("invalid subscription status %q: %w", status, ErrValidation)
	}

	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if status == models.SubscriptionStatusActive && newNextBillingDate != nil {
		set["next_billing_date"] = newNextBillingDate.UTC()
	}

	result, err := s.db.Collection(db.SubscriptionsCollection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("db error updating subscription %s status: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	s.activity.Record(ctx, &actorID, models.ActionUpdateSubscriptionStatus, map[string]interface{}{
		"subscription_id": id.Hex(),
		"new_status":      string(status),
	})
	return nil
}

// ChangePlan points the subscription at a new plan and recomputes the billing
// cursor from today, as if the subscription had just been created on the new
// plan. No mid-period proration.
func (s *subscriptionService) ChangePlan(ctx context.Context, id, newPlanID primitive.ObjectID, billingDay string) (*models.Subscription, error) {
	sub, err := s.FindSubscriptionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, err := s.planService.FindPlanByID(ctx, newPlanID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("plan %s not found: %w", newPlanID.Hex(), ErrValidation)
		}
		return nil, err
	}
	if billingDay == "" {
		billingDay = sub.BillingDay
	}

	now := time.Now().UTC()
	set := bson.M{
		"plan_id":           newPlanID,
		"billing_day":       billingDay,
		"next_billing_date": s.initialNextBillingDate(plan, billingDay, sub.Status == models.SubscriptionStatusTrial, now),
		"updated_at":        now,
	}
	if _, err := s.db.Collection(db.SubscriptionsCollection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		return nil, fmt.Errorf("db error changing plan for subscription %s: %w", id.Hex(), err)
	}
	return s.FindSubscriptionByID(ctx, id)
}
