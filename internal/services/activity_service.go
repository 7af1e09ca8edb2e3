package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/db"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/models"
)

// IActivityService appends to the audit trail. Write-only: nothing in the
// engine reads it back.
type IActivityService interface {
	Record(ctx context.Context, userID *primitive.ObjectID, action string, details map[string]interface{})
}

// activityService implements IActivityService.
type activityService struct {
	db *mongo.Database
}

// NewActivityService creates a new ActivityService.
func NewActivityService(database *mongo.Database) IActivityService {
	return &activityService{db: database}
}

// Record inserts an audit entry. Failures are logged and swallowed: an audit
// write must never fail the operation it describes.
func (s *activityService) Record(ctx context.Context, userID *primitive.ObjectID, action string, details map[string]interface{}) {
	entry := models.ActivityEntry{
		Base:      models.NewBase(),
		UserID:    userID,
		Action:    action,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}
	if _, err := s.db.Collection(db.ActivityLogCollection).InsertOne(ctx, entry); err != nil {
		log.Printf("Warning: failed to record activity %s: %v", action, err)
	}
}
