package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openhaus-dev/openhaus/backend/models"
)

type UserRepo struct {
	col *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{col: db.Collection("users")}
}

func (r *UserRepo) Insert(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if len(user.Role) == 0 {
		user.Role = []string{models.RoleBuyer}
	}

	_, err := r.col.InsertOne(ctx, user)
	return err
}

func (r *UserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now()}})
	return err
}

func (r *UserRepo) UpdateUsername(ctx context.Context, id primitive.ObjectID, username string) (*models.User, error) {
	return r.findOneAndSet(ctx, id, bson.M{"username": username})
}

// UpdateProfile applies the given profile fields and returns the updated user.
func (r *UserRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	return r.findOneAndSet(ctx, id, fields)
}

// AddRole grants a role via $addToSet; granting an already-held role is a
// no-op.
func (r *UserRepo) AddRole(ctx context.Context, id primitive.ObjectID, role string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"role": role}})
	return err
}

// AddEnquired records the ad on the user's enquired-properties set,
// idempotently.
func (r *UserRepo) AddEnquired(ctx context.Context, id, adID primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"enquiredProperties": adID}})
	return err
}

func (r *UserRepo) AddToWishlist(ctx context.Context, id, adID primitive.ObjectID) (*models.User, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$addToSet": bson.M{"wishlist": adID}})
}

func (r *UserRepo) RemoveFromWishlist(ctx context.Context, id, adID primitive.ObjectID) (*models.User, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$pull": bson.M{"wishlist": adID}})
}

func (r *UserRepo) findOneAndSet(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	fields["updatedAt"] = time.Now()
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": fields})
}

func (r *UserRepo) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.User, error) {
	var user models.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
