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

// ShipmentStore keeps shipments in the shipments collection.
type ShipmentStore struct {
	db         *mongo.Database
	collection *mongo.Collection
	history    *mongo.Collection
}

// NewShipmentStore constructs a ShipmentStore.
func NewShipmentStore(db *mongo.Database) *ShipmentStore {
	return &ShipmentStore{
		db:         db,
		collection: db.Collection(shipmentsCollection),
		history:    db.Collection(historyCollection),
	}
}

// List returns shipments newest first with the total matching count.
func (s *ShipmentStore) List(ctx context.Context, filter models.ShipmentFilter) ([]models.Shipment, int, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"tracking_number": pattern},
			bson.M{"shipper_name": pattern},
			bson.M{"receiver_name": pattern},
			bson.M{"origin": pattern},
			bson.M{"destination": pattern},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "date_created", Value: -1}, {Key: "_id", Value: -1}})
	if !filter.Unpaged {
		page, pageSize := repository.NormalizePage(filter.Page, filter.PageSize)
		opts.SetSkip(int64((page - 1) * pageSize)).SetLimit(int64(pageSize))
	}

	shipments, err := findAll[models.Shipment](ctx, s.collection, "list shipments", query, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, translate("count shipments", err)
	}
	return shipments, int(total), nil
}

func (s *ShipmentStore) FindByID(ctx context.Context, id int64) (*models.Shipment, error) {
	return findOne[models.Shipment](ctx, s.collection, "find shipment by id", bson.M{"_id": id})
}

func (s *ShipmentStore) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	return findOne[models.Shipment](ctx, s.collection, "find shipment by tracking number", bson.M{"tracking_number": trackingNumber})
}

// CreateWithEvent inserts the shipment and its first event in one transaction.
func (s *ShipmentStore) CreateWithEvent(ctx context.Context, shipment *models.Shipment, event *models.TrackingEvent) error {
	return withTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		id, err := nextID(sc, s.db, shipmentsCollection)
		if err != nil {
			return err
		}
		shipment.ID = id
		if _, err := s.collection.InsertOne(sc, shipment); err != nil {
			return translate("create shipment", err)
		}

		event.ShipmentID = id
		return insertEvent(sc, s.db, event)
	})
}

// Update writes the editable fields. Status and tracking number are left untouched.
func (s *ShipmentStore) Update(ctx context.Context, shipment *models.Shipment) error {
	update := bson.M{"$set": bson.M{
		"shipper_name":      shipment.ShipperName,
		"shipper_address":   shipment.ShipperAddress,
		"shipper_phone":     shipment.ShipperPhone,
		"shipper_email":     shipment.ShipperEmail,
		"receiver_name":     shipment.ReceiverName,
		"receiver_address":  shipment.ReceiverAddress,
		"receiver_phone":    shipment.ReceiverPhone,
		"receiver_email":    shipment.ReceiverEmail,
		"origin":            shipment.Origin,
		"destination":       shipment.Destination,
		"packages":          shipment.Packages,
		"total_weight":      shipment.TotalWeight,
		"product":           shipment.Product,
		"quantity":          shipment.Quantity,
		"payment_mode":      shipment.PaymentMode,
		"total_freight":     shipment.TotalFreight,
		"expected_delivery": shipment.ExpectedDelivery,
		"departure_time":    shipment.DepartureTime,
		"pickup_date":       shipment.PickupDate,
		"pickup_time":       shipment.PickupTime,
		"comments":          shipment.Comments,
	}}
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": shipment.ID}, update)
	if err != nil {
		return translate("update shipment", err)
	}
	return requireMatched("update shipment", res.MatchedCount)
}

// Delete removes the shipment and its history in one transaction.
func (s *ShipmentStore) Delete(ctx context.Context, id int64) error {
	return withTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		if err := deleteByID(sc, s.collection, "delete shipment", id); err != nil {
			return err
		}
		if _, err := s.history.DeleteMany(sc, bson.M{"shipment_id": id}); err != nil {
			return translate("delete shipment history", err)
		}
		return nil
	})
}

// Confirm moves the shipment to processing and appends event. An existing tracking number is kept.
func (s *ShipmentStore) Confirm(ctx context.Context, id int64, params models.ConfirmParams, event *models.TrackingEvent) (*models.Shipment, error) {
	update := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "status", Value: models.StatusProcessing},
		{Key: "tracking_number", Value: bson.M{"$ifNull": bson.A{"$tracking_number", bson.M{"$literal": params.TrackingNumber}}}},
		{Key: "total_freight", Value: bson.M{"$literal": params.TotalFreight}},
		{Key: "expected_delivery", Value: bson.M{"$literal": params.ExpectedDelivery}},
		{Key: "comments", Value: bson.M{"$literal": params.Comments}},
	}}}}
	return s.transition(ctx, "confirm shipment", id, update, event)
}

// Reject moves the shipment to rejected, overwrites comments and appends event.
func (s *ShipmentStore) Reject(ctx context.Context, id int64, comments string, event *models.TrackingEvent) (*models.Shipment, error) {
	update := bson.M{"$set": bson.M{"status": models.StatusRejected, "comments": comments}}
	return s.transition(ctx, "reject shipment", id, update, event)
}

func (s *ShipmentStore) transition(ctx context.Context, op string, id int64, update interface{}, event *models.TrackingEvent) (*models.Shipment, error) {
	var updated models.Shipment
	err := withTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		if err := s.collection.FindOneAndUpdate(sc, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
			return translate(op, err)
		}
		event.ShipmentID = id
		return insertEvent(sc, s.db, event)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// CountByStatus counts shipments created at or after since. A zero since counts everything.
func (s *ShipmentStore) CountByStatus(ctx context.Context, since time.Time) (map[models.ShipmentStatus]int, error) {
	pipeline := mongo.Pipeline{}
	if !since.IsZero() {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"date_created": bson.M{"$gte": since}}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}})

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translate("count shipments by status", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.ShipmentStatus `bson:"_id"`
		Count  int                   `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, translate("count shipments by status", err)
	}

	counts := make(map[models.ShipmentStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func insertEvent(ctx context.Context, db *mongo.Database, event *models.TrackingEvent) error {
	id, err := nextID(ctx, db, historyCollection)
	if err != nil {
		return err
	}
	event.ID = id
	if _, err := db.Collection(historyCollection).InsertOne(ctx, event); err != nil {
		return translate("insert tracking event", err)
	}
	return nil
}
