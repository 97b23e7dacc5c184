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

	"github.com/citydirectory/directory-core/internal/core/domain"
)

const collectionMemberships = "memberships"

const (
	scopeSite  = "site"
	scopePlace = "place"
)

// MembershipRepository implements ports.MembershipRepository using MongoDB.
// Global roles live on the user document; scoped roles in the memberships
// collection, one document per {user_id, scope, scope_id}.
type MembershipRepository struct {
	users       *mongo.Collection
	memberships *mongo.Collection
}

func NewMembershipRepository(db *mongo.Database) *MembershipRepository {
	return &MembershipRepository{
		users:       db.Collection(authCollection),
		memberships: db.Collection(collectionMemberships),
	}
}

type membershipDoc struct {
	UserID  string `bson:"user_id"`
	Scope   string `bson:"scope"`
	ScopeID string `bson:"scope_id"`
	Role    string `bson:"role"`
}

// LoadMemberships reads the user's global role and all scoped memberships.
// Stored role tokens that do not parse are reported as ErrInvalidRequest.
func (r *MembershipRepository) LoadMemberships(ctx context.Context, userID string) (domain.Grants, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.Grants{}, domain.ErrUserNotFound
	}

	var user mongoUser
	if err := r.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Grants{}, domain.ErrUserNotFound
		}
		return domain.Grants{}, fmt.Errorf("find user: %w", err)
	}

	global, err := domain.ParseRole(user.Role)
	if err != nil {
		return domain.Grants{}, fmt.Errorf("user %s: %w", userID, err)
	}
	grants := domain.Grants{
		GlobalRole: global,
		Sites:      []domain.SiteMembership{},
		Places:     []domain.PlaceMembership{},
	}

	cur, err := r.memberships.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return domain.Grants{}, fmt.Errorf("find memberships: %w", err)
	}
	var docs []membershipDoc
	if err := cur.All(ctx, &docs); err != nil {
		return domain.Grants{}, fmt.Errorf("decode memberships: %w", err)
	}

	for _, d := range docs {
		role, err := domain.ParseRole(d.Role)
		if err != nil {
			return domain.Grants{}, fmt.Errorf("membership %s/%s: %w", d.Scope, d.ScopeID, err)
		}
		switch d.Scope {
		case scopeSite:
			grants.Sites = append(grants.Sites, domain.SiteMembership{SiteID: d.ScopeID, Role: role})
		case scopePlace:
			grants.Places = append(grants.Places, domain.PlaceMembership{PlaceID: d.ScopeID, Role: role})
		}
	}
	return grants, nil
}

// EnsureIndexes enforces one membership per {user_id, scope, scope_id}.
func (r *MembershipRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.memberships.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "scope", Value: 1}, {Key: "scope_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
