package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/colisselect-api/internal/models"
)

// TrackingHistoryStore keeps the event ledger in the tracking_history collection.
type TrackingHistoryStore struct {
	db         *mongo.Database
	collection *mongo.Collection
	shipments  *mongo.Collection
}

// NewTrackingHistoryStore constructs a TrackingHistoryStore.
func NewTrackingHistoryStore(db *mongo.Database) *TrackingHistoryStore {
	return &TrackingHistoryStore{
		db:         db,
		collection: db.Collection(historyCollection),
		shipments:  db.Collection(shipmentsCollection),
	}
}

func (s *TrackingHistoryStore) ListByShipment(ctx context.Context, shipmentID int64) ([]models.TrackingEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date_time", Value: -1}, {Key: "_id", Value: -1}})
	return findAll[models.TrackingEvent](ctx, s.collection, "list tracking history", bson.M{"shipment_id": shipmentID}, opts)
}

func (s *TrackingHistoryStore) FindByID(ctx context.Context, id int64) (*models.TrackingEvent, error) {
	return findOne[models.TrackingEvent](ctx, s.collection, "find tracking event", bson.M{"_id": id})
}

// Append inserts event once its shipment is known to exist, syncing the shipment status when asked.
func (s *TrackingHistoryStore) Append(ctx context.Context, event *models.TrackingEvent, syncStatus bool) error {
	return withTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		opts := options.FindOne().SetProjection(bson.M{"_id": 1})
		if err := s.shipments.FindOne(sc, bson.M{"_id": event.ShipmentID}, opts).Err(); err != nil {
			return translate("find shipment", err)
		}
		if err := insertEvent(sc, s.db, event); err != nil {
			return err
		}
		if syncStatus {
			return s.syncShipmentStatus(sc, event.ShipmentID, event.Status)
		}
		return nil
	})
}

// Update rewrites event and fills its ShipmentID from the stored document.
func (s *TrackingHistoryStore) Update(ctx context.Context, event *models.TrackingEvent, syncStatus bool) error {
	return withTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		update := bson.M{"$set": bson.M{
			"date_time":   event.DateTime,
			"location":    event.Location,
			"status":      event.Status,
			"description": event.Description,
			"latitude":    event.Latitude,
			"longitude":   event.Longitude,
		}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var stored models.TrackingEvent
		if err := s.collection.FindOneAndUpdate(sc, bson.M{"_id": event.ID}, update, opts).Decode(&stored); err != nil {
			return translate("update tracking event", err)
		}
		event.ShipmentID = stored.ShipmentID
		if syncStatus {
			return s.syncShipmentStatus(sc, event.ShipmentID, event.Status)
		}
		return nil
	})
}

func (s *TrackingHistoryStore) Delete(ctx context.Context, id int64) (*models.TrackingEvent, error) {
	var event models.TrackingEvent
	if err := s.collection.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&event); err != nil {
		return nil, translate("delete tracking event", err)
	}
	return &event, nil
}

func (s *TrackingHistoryStore) syncShipmentStatus(ctx context.Context, shipmentID int64, status string) error {
	res, err := s.shipments.UpdateOne(ctx, bson.M{"_id": shipmentID}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return translate("sync shipment status", err)
	}
	return requireMatched("sync shipment status", res.MatchedCount)
}
