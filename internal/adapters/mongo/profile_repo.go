package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/domain/model"
	apperrors "github.com/target/admin-console/internal/errors"
)

// ProfileRepo stores profiles in the users collection, keyed by uid.
type ProfileRepo struct {
	db  *mongo.Database
	col *mongo.Collection
	now func() time.Time
}

// NewProfileRepo creates a ProfileRepo on db.
func NewProfileRepo(db *mongo.Database) *ProfileRepo {
	return &ProfileRepo{db: db, col: db.Collection(usersCollection), now: time.Now}
}

// Create inserts a profile; the display id comes from the atomic "profiles" counter.
func (r *ProfileRepo) Create(ctx context.Context, uid string, req *model.CreateProfileRequest) (*model.Profile, error) {
	if req == nil {
		return nil, errors.New("create profile request is required")
	}
	if strings.TrimSpace(uid) == "" {
		return nil, apperrors.ValidationField("uid", "uid is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}

	seq, err := nextSequence(ctx, r.db, "profiles")
	if err != nil {
		return nil, err
	}
	now := r.now().UTC().Truncate(time.Millisecond)
	p := &model.Profile{
		UID:       uid,
		DisplayID: seq,
		Username:  req.Username,
		Email:     req.Email,
		Role:      req.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return nil, mapErr(err, "failed to create profile")
	}
	return p, nil
}

// List returns every profile ordered by display id.
func (r *ProfileRepo) List(ctx context.Context) ([]*model.Profile, error) {
	return r.find(ctx, bson.M{})
}

// ListByRole returns profiles holding role ordered by display id.
func (r *ProfileRepo) ListByRole(ctx context.Context, role auth.Role) ([]*model.Profile, error) {
	return r.find(ctx, bson.M{"role": role})
}

func (r *ProfileRepo) find(ctx context.Context, filter bson.M) ([]*model.Profile, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "display_id", Value: 1}}))
	if err != nil {
		return nil, mapErr(err, "failed to list profiles")
	}
	out := []*model.Profile{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mapErr(err, "failed to decode profiles")
	}
	return out, nil
}

// GetByUID returns the profile or nil when absent.
func (r *ProfileRepo) GetByUID(ctx context.Context, uid string) (*model.Profile, error) {
	return r.findOne(ctx, bson.M{"_id": uid})
}

// GetByEmail returns the first profile with the email or nil when absent.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *ProfileRepo) findOne(ctx context.Context, filter bson.M) (*model.Profile, error) {
	var p model.Profile
	err := r.col.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "display_id", Value: 1}})).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err, "failed to get profile")
	}
	return &p, nil
}

// Update applies a partial update and stamps updated_at.
func (r *ProfileRepo) Update(ctx context.Context, uid string, req model.UpdateProfileRequest) (*model.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}
	set := bson.M{"updated_at": r.now().UTC().Truncate(time.Millisecond)}
	if req.Username != nil {
		set["username"] = *req.Username
	}
	if req.Email != nil {
		set["email"] = *req.Email
	}
	if req.Role != nil {
		set["role"] = *req.Role
	}

	var p model.Profile
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": uid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		return nil, mapErr(err, "profile not found")
	}
	return &p, nil
}

// Delete removes the profile. Deleting a missing profile is not an error.
func (r *ProfileRepo) Delete(ctx context.Context, uid string) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": uid}); err != nil {
		return mapErr(err, "failed to delete profile")
	}
	return nil
}
