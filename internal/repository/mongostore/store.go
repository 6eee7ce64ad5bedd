// Package mongostore implements the repository ports on MongoDB.
// Multi-document writes run in session transactions, so the server must be a replica set.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/noah-isme/colisselect-api/internal/repository"
)

const (
	shipmentsCollection     = "shipments"
	historyCollection       = "tracking_history"
	locationsCollection     = "locations"
	zonesCollection         = "zones"
	shippingRatesCollection = "shipping_rates"
	pickupRatesCollection   = "pickup_rates"
	usersCollection         = "users"
	countersCollection      = "counters"
)

// New ensures indexes and returns every store bound to db.
func New(ctx context.Context, db *mongo.Database) (*repository.Repositories, error) {
	if err := EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}
	return &repository.Repositories{
		Shipments:     NewShipmentStore(db),
		History:       NewTrackingHistoryStore(db),
		Locations:     NewLocationStore(db),
		Zones:         NewZoneStore(db),
		ShippingRates: NewShippingRateStore(db),
		PickupRates:   NewPickupRateStore(db),
		Users:         NewUserStore(db),
		Health:        health{client: db.Client()},
	}, nil
}

// EnsureIndexes creates the unique and lookup indexes. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		shipmentsCollection: {
			{
				Keys: bson.D{{Key: "tracking_number", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"tracking_number": bson.M{"$type": "string"}}),
			},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "date_created", Value: -1}, {Key: "_id", Value: -1}}},
		},
		historyCollection: {
			{Keys: bson.D{{Key: "shipment_id", Value: 1}, {Key: "date_time", Value: -1}}},
		},
		locationsCollection: {{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)}},
		zonesCollection:     {{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)}},
		usersCollection:     {{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
	}
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

type health struct {
	client *mongo.Client
}

func (h health) Ping(ctx context.Context) error {
	return h.client.Ping(ctx, readpref.Primary())
}

func (h health) Close(ctx context.Context) error {
	return h.client.Disconnect(ctx)
}

// nextID allocates the next numeric id for a collection from the counters collection.
func nextID(ctx context.Context, db *mongo.Database, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := db.Collection(countersCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).
		Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return counter.Seq, nil
}

// withTransaction runs fn inside a session transaction. fn may be retried on transient errors.
func withTransaction(ctx context.Context, db *mongo.Database, fn func(sc mongo.SessionContext) error) error {
	session, err := db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// translate maps driver errors onto the repository sentinels.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireMatched(op string, matched int64) error {
	if matched == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, op string, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer cursor.Close(ctx)

	items := make([]T, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, translate(op, err)
	}
	return items, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, op string, filter interface{}) (*T, error) {
	var item T
	if err := coll.FindOne(ctx, filter).Decode(&item); err != nil {
		return nil, translate(op, err)
	}
	return &item, nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, op string, id int64) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(op, err)
	}
	return requireMatched(op, res.DeletedCount)
}

func count(ctx context.Context, coll *mongo.Collection, op string) (int, error) {
	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, translate(op, err)
	}
	return int(n), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
