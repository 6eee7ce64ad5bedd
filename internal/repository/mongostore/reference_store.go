package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/colisselect-api/internal/models"
)

// LocationStore keeps locations.
type LocationStore struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewLocationStore(db *mongo.Database) *LocationStore {
	return &LocationStore{db: db, collection: db.Collection(locationsCollection)}
}

func (s *LocationStore) List(ctx context.Context) ([]models.Location, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findAll[models.Location](ctx, s.collection, "list locations", bson.M{}, opts)
}

func (s *LocationStore) FindByID(ctx context.Context, id int64) (*models.Location, error) {
	return findOne[models.Location](ctx, s.collection, "find location", bson.M{"_id": id})
}

func (s *LocationStore) Create(ctx context.Context, location *models.Location) error {
	id, err := nextID(ctx, s.db, locationsCollection)
	if err != nil {
		return err
	}
	location.ID = id
	if _, err := s.collection.InsertOne(ctx, location); err != nil {
		return translate("create location", err)
	}
	return nil
}

func (s *LocationStore) Update(ctx context.Context, location *models.Location) error {
	return replace(ctx, s.collection, "update location", location.ID, location)
}

func (s *LocationStore) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, s.collection, "delete location", id)
}

func (s *LocationStore) Count(ctx context.Context) (int, error) {
	return count(ctx, s.collection, "count locations")
}

// ZoneStore keeps zones.
type ZoneStore struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewZoneStore(db *mongo.Database) *ZoneStore {
	return &ZoneStore{db: db, collection: db.Collection(zonesCollection)}
}

func (s *ZoneStore) List(ctx context.Context) ([]models.Zone, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findAll[models.Zone](ctx, s.collection, "list zones", bson.M{}, opts)
}

func (s *ZoneStore) FindByID(ctx context.Context, id int64) (*models.Zone, error) {
	return findOne[models.Zone](ctx, s.collection, "find zone", bson.M{"_id": id})
}

func (s *ZoneStore) Create(ctx context.Context, zone *models.Zone) error {
	id, err := nextID(ctx, s.db, zonesCollection)
	if err != nil {
		return err
	}
	zone.ID = id
	if _, err := s.collection.InsertOne(ctx, zone); err != nil {
		return translate("create zone", err)
	}
	return nil
}

func (s *ZoneStore) Update(ctx context.Context, zone *models.Zone) error {
	return replace(ctx, s.collection, "update zone", zone.ID, zone)
}

func (s *ZoneStore) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, s.collection, "delete zone", id)
}

func (s *ZoneStore) Count(ctx context.Context) (int, error) {
	return count(ctx, s.collection, "count zones")
}

// ShippingRateStore keeps shipping tariffs.
type ShippingRateStore struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewShippingRateStore(db *mongo.Database) *ShippingRateStore {
	return &ShippingRateStore{db: db, collection: db.Collection(shippingRatesCollection)}
}

func (s *ShippingRateStore) List(ctx context.Context) ([]models.ShippingRate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	return findAll[models.ShippingRate](ctx, s.collection, "list shipping rates", bson.M{}, opts)
}

func (s *ShippingRateStore) FindByID(ctx context.Context, id int64) (*models.ShippingRate, error) {
	return findOne[models.ShippingRate](ctx, s.collection, "find shipping rate", bson.M{"_id": id})
}

func (s *ShippingRateStore) Create(ctx context.Context, rate *models.ShippingRate) error {
	id, err := nextID(ctx, s.db, shippingRatesCollection)
	if err != nil {
		return err
	}
	rate.ID = id
	if _, err := s.collection.InsertOne(ctx, rate); err != nil {
		return translate("create shipping rate", err)
	}
	return nil
}

func (s *ShippingRateStore) Update(ctx context.Context, rate *models.ShippingRate) error {
	return replace(ctx, s.collection, "update shipping rate", rate.ID, rate)
}

func (s *ShippingRateStore) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, s.collection, "delete shipping rate", id)
}

func (s *ShippingRateStore) Count(ctx context.Context) (int, error) {
	return count(ctx, s.collection, "count shipping rates")
}

// PickupRateStore keeps pickup surcharges.
type PickupRateStore struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewPickupRateStore(db *mongo.Database) *PickupRateStore {
	return &PickupRateStore{db: db, collection: db.Collection(pickupRatesCollection)}
}

func (s *PickupRateStore) List(ctx context.Context) ([]models.PickupRate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "zone", Value: 1}, {Key: "min_weight", Value: 1}})
	return findAll[models.PickupRate](ctx, s.collection, "list pickup rates", bson.M{}, opts)
}

func (s *PickupRateStore) FindByID(ctx context.Context, id int64) (*models.PickupRate, error) {
	return findOne[models.PickupRate](ctx, s.collection, "find pickup rate", bson.M{"_id": id})
}

func (s *PickupRateStore) Create(ctx context.Context, rate *models.PickupRate) error {
	id, err := nextID(ctx, s.db, pickupRatesCollection)
	if err != nil {
		return err
	}
	rate.ID = id
	if _, err := s.collection.InsertOne(ctx, rate); err != nil {
		return translate("create pickup rate", err)
	}
	return nil
}

func (s *PickupRateStore) Update(ctx context.Context, rate *models.PickupRate) error {
	return replace(ctx, s.collection, "update pickup rate", rate.ID, rate)
}

func (s *PickupRateStore) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, s.collection, "delete pickup rate", id)
}

func (s *PickupRateStore) Count(ctx context.Context) (int, error) {
	return count(ctx, s.collection, "count pickup rates")
}

func replace(ctx context.Context, coll *mongo.Collection, op string, id int64, doc interface{}) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return translate(op, err)
	}
	return requireMatched(op, res.MatchedCount)
}
