package models

import "time"

// TrackingEvent is one entry of a shipment's tracking history.
// Status is free-form; only recognised values move the shipment status.
type TrackingEvent struct {
	ID          int64     `db:"id" json:"id" bson:"_id"`
	ShipmentID  int64     `db:"shipment_id" json:"shipment_id" bson:"shipment_id"`
	DateTime    time.Time `db:"date_time" json:"date_time" bson:"date_time"`
	Location    string    `db:"location" json:"location" bson:"location"`
	Status      string    `db:"status" json:"status" bson:"status"`
	Description string    `db:"description" json:"description" bson:"description"`
	Latitude    *float64  `db:"latitude" json:"latitude" bson:"latitude,omitempty"`
	Longitude   *float64  `db:"longitude" json:"longitude" bson:"longitude,omitempty"`
}

// ShipmentStatus returns the event status when it belongs to the shipment enum.
func (e TrackingEvent) ShipmentStatus() (ShipmentStatus, bool) {
	return ParseShipmentStatus(e.Status)
}

// HasCoordinates reports whether both latitude and longitude are set.
func (e TrackingEvent) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// TrackingResult is the public tracking lookup payload.
type TrackingResult struct {
	Shipment Shipment        `json:"shipment"`
	History  []TrackingEvent `json:"history"`
}

// TrackingEventRequest is the payload for appending or editing a history entry.
// DateTime accepts RFC3339, "2006-01-02 15:04:05" or "2006-01-02T15:04"; empty means now.
type TrackingEventRequest struct {
	DateTime    string   `json:"date_time"`
	Location    string   `json:"location"`
	Status      string   `json:"status"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}
