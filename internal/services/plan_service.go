package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/cache"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/config"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/db"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/models"
)

// IPlanService defines the interface for plan reference data.
type IPlanService interface {
	CreatePlan(ctx context.Context, name string, basePrice float64, cycle models.BillingCycle, trialDays *int) (*models.Plan, error)
	FindPlanByID(ctx context.Context, id primitive.ObjectID) (*models.Plan, error)
	ListPlans(ctx context.Context) ([]models.Plan, error)
}

// planService implements IPlanService. Plans are immutable once created, so
// lookups go through a short-lived Redis cache.
type planService struct {
	db  *mongo.Database
	cfg *config.Config
	rdb *redis.Client
}

// NewPlanService creates a new PlanService.
func NewPlanService(database *mongo.Database, cfg *config.Config, rdb *redis.Client) IPlanService {
	return &planService{db: database, cfg: cfg, rdb: rdb}
}

func planCacheKey(id primitive.ObjectID) string {
	return "plan:" + id.Hex()
}

func (s *planService) CreatePlan(ctx context.Context, name string, basePrice float64, cycle models.BillingCycle, trialDays *int) (*models.Plan, error) {
	if name == "" {
		return nil, fmt.Errorf("plan name is required: %w", ErrValidation)
	}
	if basePrice < 0 {
		return nil, fmt.Errorf("plan base price cannot be negative: %w", ErrValidation)
	}
	if !models.ValidBillingCycle(cycle) {
		return nil, fmt.Errorf("invalid billing cycle %q: %w", cycle, ErrValidation)
	}

	plan := &models.Plan{
		Base:         models.NewBase(),
		Name:         name,
		BasePrice:    basePrice,
		BillingCycle: cycle,
		TrialDays:    trialDays,
		CreatedAt:    time.Now().UTC(),
	}

	err := db.Try(func() error {
		_, insertErr := s.db.Collection(db.PlansCollection).InsertOne(ctx, plan)
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert plan %s: %w", name, err)
	}
	return plan, nil
}

func (s *planService) FindPlanByID(ctx context.Context, id primitive.ObjectID) (*models.Plan, error) {
	if s.rdb != nil {
		var cached models.Plan
		err := cache.GetJSON(ctx, s.rdb, planCacheKey(id), &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("Warning: plan cache read failed for %s: %v", id.Hex(), err)
		}
	}

	var plan models.Plan
	err := s.db.Collection(db.PlansCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding plan %s: %w", id.Hex(), err)
	}

	if s.rdb != nil {
		if err := cache.SetJSON(ctx, s.rdb, planCacheKey(id), &plan, s.cfg.PlanCacheTTL); err != nil {
			log.Printf("Warning: plan cache write failed for %s: %v", id.Hex(), err)
		}
	}
	return &plan, nil
}

func (s *planService) ListPlans(ctx context.Context) ([]models.Plan, error) {
	cursor, err := s.db.Collection(db.PlansCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer cursor.Close(ctx)

	var plans []models.Plan
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, fmt.Errorf("failed to decode plans: %w", err)
	}
	return plans, nil
}
