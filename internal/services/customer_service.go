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

// ICustomerService defines the interface for customer record management.
type ICustomerService interface {
	CreateCustomer(ctx context.Context, name, email, phone string, status models.CustomerStatus) (*models.Customer, error)
	FindCustomerByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	ListCustomers(ctx context.Context, limit int) ([]models.Customer, error)
	UpdateCustomerStatus(ctx context.Context, id primitive.ObjectID, status models.CustomerStatus) error
}

// customerService implements ICustomerService.
type customerService struct {
	db *mongo.Database
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(database *mongo.Database) ICustomerService {
	return &customerService{db: database}
}

func (s *customerService) CreateCustomer(ctx context.Context, name, email, phone string, status models.CustomerStatus) (*models.Customer, error) {
	if status == "" {
		status = models.CustomerStatusPending
	}
	if !models.ValidCustomerStatus(status) {
		return nil, fmt.Errorf("invalid customer status %q: %w", status, ErrValidation)
	}

	now := time.Now().UTC()
	customer := &models.Customer{
		Base:      models.NewBase(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := db.Try(func() error {
		_, insertErr := s.db.Collection(db.CustomersCollection).InsertOne(ctx, customer)
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert customer %s: %w", name, err)
	}
	return customer, nil
}

func (s *customerService) FindCustomerByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.Collection(db.CustomersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding customer %s: %w", id.Hex(), err)
	}
	return &customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context, limit int) ([]models.Customer, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	cursor, err := s.db.Collection(db.CustomersCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer cursor.Close(ctx)

	var customers []models.Customer
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, fmt.Errorf("failed to decode customers: %w", err)
	}
	return customers, nil
}

func (s *customerService) UpdateCustomerStatus(ctx context.Context, id primitive.ObjectID, status models.CustomerStatus) error {
	if !models.ValidCustomerStatus(status) {
		return fmt.Errorf("invalid customer status %q: %w", status, ErrValidation)
	}
	result, err := s.db.Collection(db.CustomersCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("db error updating customer %s status: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
