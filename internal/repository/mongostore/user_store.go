package mongostore

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/internal/repository"
)

// UserStore keeps accounts. Emails are stored lower-cased so the unique index is case-insensitive.
type UserStore struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{db: db, collection: db.Collection(usersCollection)}
}

func (s *UserStore) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	query := bson.M{}
	if filter.Role != nil {
		query["role"] = *filter.Role
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{bson.M{"email": pattern}, bson.M{"name": pattern}}
	}

	page, pageSize := repository.NormalizePage(filter.Page, filter.PageSize)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	users, err := findAll[models.User](ctx, s.collection, "list users", query, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, translate("count users", err)
	}
	return users, int(total), nil
}

func (s *UserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return findOne[models.User](ctx, s.collection, "find user by id", bson.M{"_id": id})
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.collection, "find user by email", bson.M{"email": normalizeEmail(email)})
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	id, err := nextID(ctx, s.db, usersCollection)
	if err != nil {
		return err
	}
	user.ID = id
	user.Email = normalizeEmail(user.Email)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if _, err := s.collection.InsertOne(ctx, user); err != nil {
		return translate("create user", err)
	}
	return nil
}

func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	update := bson.M{"$set": bson.M{
		"name":          user.Name,
		"email":         normalizeEmail(user.Email),
		"password_hash": user.PasswordHash,
		"role":          user.Role,
		"branch":        user.Branch,
		"status":        user.Status,
	}}
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		return translate("update user", err)
	}
	return requireMatched("update user", res.MatchedCount)
}

func (s *UserStore) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	if _, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login": ts}}); err != nil {
		return translate("update last login", err)
	}
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, s.collection, "delete user", id)
}
