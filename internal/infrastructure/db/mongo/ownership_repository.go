package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/citydirectory/directory-core/internal/core/domain"
)

const collectionEntities = "entities"

// OwnershipRepository implements ports.OwnershipRepository using MongoDB.
// The entities collection is written by the content service; this core only
// reads it.
type OwnershipRepository struct {
	col *mongo.Collection
}

func NewOwnershipRepository(db *mongo.Database) *OwnershipRepository {
	return &OwnershipRepository{col: db.Collection(collectionEntities)}
}

type entityDoc struct {
	EntityType string `bson:"entity_type"`
	EntityID   string `bson:"entity_id"`
	SiteKey    string `bson:"site_key"`
	PlaceID    string `bson:"place_id,omitempty"`
}

// FindOwner returns the site and place an entity belongs to. A place is its
// own place scope regardless of what is stored.
func (r *OwnershipRepository) FindOwner(ctx context.Context, e domain.EntityRef) (domain.EntityOwner, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc entityDoc
	err := r.col.FindOne(ctx, bson.M{"entity_type": string(e.Type), "entity_id": e.ID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.EntityOwner{}, domain.ErrNotFound
		}
		return domain.EntityOwner{}, fmt.Errorf("find entity owner: %w: %w", domain.ErrUnavailable, err)
	}

	owner := domain.EntityOwner{SiteKey: doc.SiteKey, PlaceID: doc.PlaceID}
	if e.Type == domain.EntityPlace {
		owner.PlaceID = e.ID
	}
	return owner, nil
}

// EnsureIndexes enforces one ownership record per entity.
func (r *OwnershipRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
