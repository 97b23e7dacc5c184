package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/citydirectory/directory-core/internal/core/domain"
)

const collectionBindings = "slug_bindings"

// Index names are matched in duplicate-key errors to tell the two uniqueness
// rules apart.
const (
	indexTriple          = "triple_unique"
	indexCanonicalEntity = "canonical_entity_unique"
)

// BindingRepository implements ports.BindingRepository using MongoDB.
//
// Uniqueness is enforced by two indexes: one binding per {lang, site_key, slug}
// and one canonical binding per {lang, entity_type, entity_id}.
type BindingRepository struct {
	col *mongo.Collection
}

func NewBindingRepository(db *mongo.Database) *BindingRepository {
	return &BindingRepository{col: db.Collection(collectionBindings)}
}

type bindingDoc struct {
	Lang        string    `bson:"lang"`
	SiteKey     string    `bson:"site_key"`
	Slug        string    `bson:"slug"`
	EntityType  string    `bson:"entity_type"`
	EntityID    string    `bson:"entity_id"`
	IsCanonical bool      `bson:"is_canonical"`
	CreatedAt   time.Time `bson:"created_at"`
	DemotedAt   time.Time `bson:"demoted_at,omitempty"`
}

func (d bindingDoc) toDomain() *domain.SlugBinding {
	return &domain.SlugBinding{
		Triple:      domain.Triple{Lang: d.Lang, SiteKey: d.SiteKey, Slug: d.Slug},
		Entity:      domain.EntityRef{Type: domain.EntityType(d.EntityType), ID: d.EntityID},
		IsCanonical: d.IsCanonical,
	}
}

func tripleFilter(t domain.Triple) bson.M {
	return bson.M{"lang": t.Lang, "site_key": t.SiteKey, "slug": t.Slug}
}

func entityFilter(lang string, e domain.EntityRef) bson.M {
	return bson.M{"lang": lang, "entity_type": string(e.Type), "entity_id": e.ID}
}

// FindBinding retrieves the binding for an exact triple, canonical or not.
func (r *BindingRepository) FindBinding(ctx context.Context, t domain.Triple) (*domain.SlugBinding, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc bindingDoc
	if err := r.col.FindOne(ctx, tripleFilter(t)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find binding: %w", err)
	}
	return doc.toDomain(), nil
}

// FindCanonical retrieves the canonical binding of an entity in lang.
func (r *BindingRepository) FindCanonical(ctx context.Context, lang string, e domain.EntityRef) (*domain.SlugBinding, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := entityFilter(lang, e)
	filter["is_canonical"] = true

	var doc bindingDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find canonical binding: %w", err)
	}
	return doc.toDomain(), nil
}

// Publish inserts b as the canonical binding of its entity. A second
// canonical binding for the entity in the same language is
// ErrAlreadyPublished; a triple bound to anything else is ErrSlugTaken.
func (r *BindingRepository) Publish(ctx context.Context, b domain.SlugBinding) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, bindingDoc{
		Lang:        b.Triple.Lang,
		SiteKey:     b.Triple.SiteKey,
		Slug:        b.Triple.Slug,
		EntityType:  string(b.Entity.Type),
		EntityID:    b.Entity.ID,
		IsCanonical: true,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		if dup := duplicateKeyError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("insert binding: %w", err)
	}
	return nil
}

// Rename demotes the entity's canonical binding in to.Lang and promotes to,
// inserting it when it is new. Both writes run in one transaction, so a
// failed promote leaves the previous canonical binding in place. Transactions
// need a replica set deployment.
func (r *BindingRepository) Rename(ctx context.Context, e domain.EntityRef, to domain.Triple) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	sess, err := r.col.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("rename: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, r.rename(sc, e, to)
	})
	return err
}

func (r *BindingRepository) rename(ctx context.Context, e domain.EntityRef, to domain.Triple) error {
	var existing bindingDoc
	err := r.col.FindOne(ctx, tripleFilter(to)).Decode(&existing)
	switch {
	case err == nil:
		if existing.EntityType != string(e.Type) || existing.EntityID != e.ID {
			return domain.ErrSlugTaken
		}
	case !errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("rename: find target: %w", err)
	}

	now := time.Now().UTC()
	demote := entityFilter(to.Lang, e)
	demote["is_canonical"] = true
	if _, err := r.col.UpdateMany(ctx, demote, bson.M{
		"$set": bson.M{"is_canonical": false, "demoted_at": now},
	}); err != nil {
		return fmt.Errorf("rename: demote: %w", err)
	}

	_, err = r.col.UpdateOne(ctx, promoteFilter(e, to), bson.M{
		"$set":         bson.M{"is_canonical": true},
		"$unset":       bson.M{"demoted_at": ""},
		"$setOnInsert": bson.M{"created_at": now},
	}, options.Update().SetUpsert(true))
	if err != nil {
		if dup := duplicateKeyError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("rename: promote: %w", err)
	}
	return nil
}

// promoteFilter matches to only while it belongs to e. If another entity
// claimed the triple in the meantime the upsert collides with the triple
// index instead of rewriting that entity's binding.
func promoteFilter(e domain.EntityRef, to domain.Triple) bson.M {
	f := tripleFilter(to)
	f["entity_type"] = string(e.Type)
	f["entity_id"] = e.ID
	return f
}

// duplicateKeyError maps a unique index violation to its domain error, or
// returns nil for any other error.
func duplicateKeyError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if strings.Contains(err.Error(), indexCanonicalEntity) {
		return domain.ErrAlreadyPublished
	}
	return domain.ErrSlugTaken
}

// EnsureIndexes creates the uniqueness indexes on the bindings collection.
func (r *BindingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "lang", Value: 1}, {Key: "site_key", Value: 1}, {Key: "slug", Value: 1}},
			Options: options.Index().SetName(indexTriple).SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "lang", Value: 1}, {Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}},
			Options: options.Index().
				SetName(indexCanonicalEntity).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_canonical": true}),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
