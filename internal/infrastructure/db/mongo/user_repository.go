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

	"github.com/authentiscan/identity-service/internal/core/domain"
)

const userCollection = "users"

// MongoUserRepository persists account records. OTP consumption is a single
// FindOneAndUpdate guarded by code and expiry, so two racing confirmations
// can never both succeed.
type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(userCollection)}
}

// EnsureIndexes creates the unique email index. Duplicate registrations then
// surface as duplicate-key errors regardless of request interleaving.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

type mongoOTP struct {
	Code      string `bson:"code"`
	ExpiresAt int64  `bson:"expires_at"`
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Verified     bool               `bson:"verified"`
	VerifyOTP    *mongoOTP          `bson:"verify_otp,omitempty"`
	ResetOTP     *mongoOTP          `bson:"reset_otp,omitempty"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
}

func (r *MongoUserRepository) Insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := toDoc(user)
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return fromDoc(doc), nil
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, domain.ErrUnknownEmail)
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, domain.ErrUserNotFound)
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M, notFound error) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return fromDoc(&mu), nil
}

// Update overwrites the full record. Used for OTP issuance, where
// last-write-wins is the intended supersede semantics.
func (r *MongoUserRepository) Update(ctx context.Context, user *domain.User) error {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	doc := toDoc(user)
	doc.ID = oid

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ConsumeVerifyOTP atomically flips the account to verified and clears the
// verify slot, provided the stored code matches and has not expired. Expiry
// is boundary-inclusive: a code is still consumable at exactly expires_at.
func (r *MongoUserRepository) ConsumeVerifyOTP(ctx context.Context, id, code string, now time.Time) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, domain.ErrUserNotFound
	}

	filter := bson.M{
		"_id":                   oid,
		"verified":              false,
		"verify_otp.code":       code,
		"verify_otp.expires_at": bson.M{"$gte": now.Unix()},
	}
	update := bson.M{
		"$set":   bson.M{"verified": true, "updated_at": now.Unix()},
		"$unset": bson.M{"verify_otp": ""},
	}

	err = r.coll.FindOneAndUpdate(ctx, filter, update).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume verify otp: %w", err)
	}
	return true, nil
}

// ConsumeResetOTP atomically overwrites the password hash and clears the
// reset slot under the same code-and-expiry guard.
func (r *MongoUserRepository) ConsumeResetOTP(ctx context.Context, id, code, newPasswordHash string, now time.Time) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, domain.ErrUserNotFound
	}

	filter := bson.M{
		"_id":                  oid,
		"reset_otp.code":       code,
		"reset_otp.expires_at": bson.M{"$gte": now.Unix()},
	}
	update := bson.M{
		"$set":   bson.M{"password_hash": newPasswordHash, "updated_at": now.Unix()},
		"$unset": bson.M{"reset_otp": ""},
	}

	err = r.coll.FindOneAndUpdate(ctx, filter, update).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume reset otp: %w", err)
	}
	return true, nil
}

func toDoc(u *domain.User) *mongoUser {
	return &mongoUser{
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Verified:     u.Verified,
		VerifyOTP:    otpToDoc(u.VerifyOTP),
		ResetOTP:     otpToDoc(u.ResetOTP),
		CreatedAt:    u.CreatedAt.Unix(),
		UpdatedAt:    u.UpdatedAt.Unix(),
	}
}

func fromDoc(mu *mongoUser) *domain.User {
	return &domain.User{
		ID:           mu.ID.Hex(),
		Name:         mu.Name,
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		Verified:     mu.Verified,
		VerifyOTP:    otpFromDoc(mu.VerifyOTP),
		ResetOTP:     otpFromDoc(mu.ResetOTP),
		CreatedAt:    unixToTime(mu.CreatedAt),
		UpdatedAt:    unixToTime(mu.UpdatedAt),
	}
}

func otpToDoc(o *domain.OTP) *mongoOTP {
	if o == nil {
		return nil
	}
	return &mongoOTP{Code: o.Code, ExpiresAt: o.ExpiresAt.Unix()}
}

func otpFromDoc(o *mongoOTP) *domain.OTP {
	if o == nil {
		return nil
	}
	return &domain.OTP{Code: o.Code, ExpiresAt: unixToTime(o.ExpiresAt)}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
