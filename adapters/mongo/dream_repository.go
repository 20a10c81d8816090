package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/entities"
	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/repositories"
)

// DreamRepository persists dream records in the "dreams" collection.
type DreamRepository struct {
	collection *mongo.Collection
}

// NewDreamRepository creates a new MongoDB dream repository
func NewDreamRepository(db *mongo.Database) repositories.DreamRepository {
	return &DreamRepository{
		collection: db.Collection("dreams"),
	}
}

// Create implements repositories.DreamRepository
func (r *DreamRepository) Create(ctx context.Context, dream *entities.Dream) error {
	if dream == nil {
		return errors.New("dream cannot be nil")
	}

	now := time.Now()
	if dream.CreatedAt.IsZero() {
		dream.CreatedAt = now
	}
	if dream.UpdatedAt.IsZero() {
		dream.UpdatedAt = now
	}

	result, err := r.collection.InsertOne(ctx, dream)
	if err != nil {
		return fmt.Errorf("failed to create dream: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		dream.ID = oid
	}

	return nil
}

// GetByID implements repositories.DreamRepository. Returns (nil, nil) when
// no record exists.
func (r *DreamRepository) GetByID(ctx context.Context, id string) (*entities.Dream, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil // Malformed ids look the same as absent records.
	}

	var dream entities.Dream
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&dream)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get dream %s: %w", id, err)
	}

	return &dream, nil
}

// ListByOwner implements repositories.DreamRepository, newest first.
func (r *DreamRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Dream, error) {
	if ownerID == "" {
		return nil, errors.New("owner ID cannot be empty")
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list dreams for owner %s: %w", ownerID, err)
	}
	defer cursor.Close(ctx)

	dreams := []*entities.Dream{}
	if err := cursor.All(ctx, &dreams); err != nil {
		return nil, fmt.Errorf("failed to decode dreams: %w", err)
	}

	return dreams, nil
}

// Update implements repositories.DreamRepository. Only the caller-mutable
// fields are written.
func (r *DreamRepository) Update(ctx context.Context, id string, update repositories.DreamUpdate) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid dream ID format: %w", err)
	}

	set := bson.M{"updated_at": time.Now()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.IsArchived != nil {
		set["is_archived"] = *update.IsArchived
	}
	if update.IsPrivate != nil {
		set["is_private"] = *update.IsPrivate
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update dream: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("dream with ID %s not found", id)
	}

	return nil
}

// Delete implements repositories.DreamRepository
func (r *DreamRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid dream ID format: %w", err)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete dream: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("dream with ID %s not found", id)
	}

	return nil
}
