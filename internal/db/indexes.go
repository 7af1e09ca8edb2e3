package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the billing engine relies on. The unique
// (subscription_id, period_start) index on automatic invoices is the database
// level backstop for the generator's exact-match idempotency check; the
// remaining indexes keep the due-subscription scan and the per-customer
// overlap scan off collection scans.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	invoiceIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "subscription_id", Value: 1}, {Key: "period_start", Value: 1}},
			Options: options.Index().
				SetName("subscription_period").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_manual": false}),
		},
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}, {Key: "period_start", Value: 1}},
			Options: options.Index().SetName("customer_period"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "due_date", Value: 1}},
			Options: options.Index().SetName("status_due"),
		},
	}
	if _, err := database.Collection(InvoicesCollection).Indexes().CreateMany(ctx, invoiceIndexes); err != nil {
		return fmt.Errorf("failed to create invoice indexes: %w", err)
	}

	subscriptionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "next_billing_date", Value: 1}},
			Options: options.Index().SetName("status_next_billing"),
		},
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}},
			Options: options.Index().SetName("subscription_customer"),
		},
	}
	if _, err := database.Collection(SubscriptionsCollection).Indexes().CreateMany(ctx, subscriptionIndexes); err != nil {
		return fmt.Errorf("failed to create subscription indexes: %w", err)
	}

	paymentIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "invoice_id", Value: 1}},
			Options: options.Index().SetName("payment_invoice"),
		},
	}
	if _, err := database.Collection(PaymentsCollection).Indexes().CreateMany(ctx, paymentIndexes); err != nil {
		return fmt.Errorf("failed to create payment indexes: %w", err)
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("user_email").SetUnique(true),
		},
	}
	if _, err := database.Collection(UsersCollection).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	return nil
}
