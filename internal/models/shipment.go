package models

import "time"

// ShipmentStatus is the closed set of states a shipment can be in.
type ShipmentStatus string

const (
	StatusPendingConfirmation ShipmentStatus = "pending_confirmation"
	StatusProcessing          ShipmentStatus = "processing"
	StatusPickedUp            ShipmentStatus = "picked_up"
	StatusInTransit           ShipmentStatus = "in_transit"
	StatusDelivered           ShipmentStatus = "delivered"
	StatusDelayed             ShipmentStatus = "delayed"
	StatusRejected            ShipmentStatus = "rejected"
	StatusCancelled           ShipmentStatus = "cancelled"
)

var shipmentStatuses = []ShipmentStatus{
	StatusPendingConfirmation,
	StatusProcessing,
	StatusPickedUp,
	StatusInTransit,
	StatusDelivered,
	StatusDelayed,
	StatusRejected,
	StatusCancelled,
}

// progress along pending -> processing -> picked_up -> in_transit -> delivered.
var statusProgress = map[ShipmentStatus]int{
	StatusPendingConfirmation: 0,
	StatusProcessing:          10,
	StatusPickedUp:            35,
	StatusInTransit:           65,
	StatusDelayed:             65,
	StatusDelivered:           100,
	StatusRejected:            0,
	StatusCancelled:           0,
}

// ShipmentStatuses returns every recognised status in lifecycle order.
func ShipmentStatuses() []ShipmentStatus {
	out := make([]ShipmentStatus, len(shipmentStatuses))
	copy(out, shipmentStatuses)
	return out
}

// ParseShipmentStatus reports whether raw names a recognised status.
func ParseShipmentStatus(raw string) (ShipmentStatus, bool) {
	status := ShipmentStatus(raw)
	return status, status.Valid()
}

// Valid reports whether the status belongs to the enum.
func (s ShipmentStatus) Valid() bool {
	_, ok := statusProgress[s]
	return ok
}

// Terminal reports whether the status usually ends the lifecycle. Storage does not enforce it.
func (s ShipmentStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusRejected || s == StatusCancelled
}

// Progress returns a 0..100 completion estimate used by the live feed.
func (s ShipmentStatus) Progress() int {
	return statusProgress[s]
}

// Shipment is a shipment record. Status caches the latest recognised history status.
type Shipment struct {
	ID               int64          `db:"id" json:"id" bson:"_id"`
	TrackingNumber   *string        `db:"tracking_number" json:"tracking_number" bson:"tracking_number,omitempty"`
	ShipperName      string         `db:"shipper_name" json:"shipper_name" bson:"shipper_name"`
	ShipperAddress   string         `db:"shipper_address" json:"shipper_address" bson:"shipper_address"`
	ShipperPhone     string         `db:"shipper_phone" json:"shipper_phone" bson:"shipper_phone"`
	ShipperEmail     string         `db:"shipper_email" json:"shipper_email" bson:"shipper_email"`
	ReceiverName     string         `db:"receiver_name" json:"receiver_name" bson:"receiver_name"`
	ReceiverAddress  string         `db:"receiver_address" json:"receiver_address" bson:"receiver_address"`
	ReceiverPhone    string         `db:"receiver_phone" json:"receiver_phone" bson:"receiver_phone"`
	ReceiverEmail    string         `db:"receiver_email" json:"receiver_email" bson:"receiver_email"`
	Origin           string         `db:"origin" json:"origin" bson:"origin"`
	Destination      string         `db:"destination" json:"destination" bson:"destination"`
	Status           ShipmentStatus `db:"status" json:"status" bson:"status"`
	Packages         int            `db:"packages" json:"packages" bson:"packages"`
	TotalWeight      float64        `db:"total_weight" json:"total_weight" bson:"total_weight"`
	Product          string         `db:"product" json:"product" bson:"product"`
	Quantity         int            `db:"quantity" json:"quantity" bson:"quantity"`
	PaymentMode      string         `db:"payment_mode" json:"payment_mode" bson:"payment_mode"`
	TotalFreight     float64        `db:"total_freight" json:"total_freight" bson:"total_freight"`
	ExpectedDelivery string         `db:"expected_delivery" json:"expected_delivery" bson:"expected_delivery"`
	DepartureTime    string         `db:"departure_time" json:"departure_time" bson:"departure_time"`
	PickupDate       string         `db:"pickup_date" json:"pickup_date" bson:"pickup_date"`
	PickupTime       string         `db:"pickup_time" json:"pickup_time" bson:"pickup_time"`
	Comments         string         `db:"comments" json:"comments" bson:"comments"`
	DateCreated      time.Time      `db:"date_created" json:"date_created" bson:"date_created"`
}

// TrackingNumberValue returns the tracking number or an empty string when unassigned.
func (s *Shipment) TrackingNumberValue() string {
	if s == nil || s.TrackingNumber == nil {
		return ""
	}
	return *s.TrackingNumber
}

// ShipmentFilter captures listing criteria for shipments.
type ShipmentFilter struct {
	Status   ShipmentStatus
	Search   string
	Page     int
	PageSize int
	Unpaged  bool
}

// ConfirmParams carries the values written when a shipment is confirmed.
type ConfirmParams struct {
	TrackingNumber   string
	TotalFreight     float64
	ExpectedDelivery string
	Comments         string
}

// ShipmentRequest is the payload for creating or editing a shipment.
// Zero counts fall back to 1 and an empty payment mode to Cash.
type ShipmentRequest struct {
	ShipperName      string  `json:"shipper_name"`
	ShipperAddress   string  `json:"shipper_address"`
	ShipperPhone     string  `json:"shipper_phone"`
	ShipperEmail     string  `json:"shipper_email"`
	ReceiverName     string  `json:"receiver_name"`
	ReceiverAddress  string  `json:"receiver_address"`
	ReceiverPhone    string  `json:"receiver_phone"`
	ReceiverEmail    string  `json:"receiver_email"`
	Origin           string  `json:"origin"`
	Destination      string  `json:"destination"`
	Packages         int     `json:"packages" validate:"gte=0"`
	TotalWeight      float64 `json:"total_weight" validate:"gte=0"`
	Product          string  `json:"product"`
	Quantity         int     `json:"quantity" validate:"gte=0"`
	PaymentMode      string  `json:"payment_mode"`
	TotalFreight     float64 `json:"total_freight" validate:"gte=0"`
	ExpectedDelivery string  `json:"expected_delivery"`
	DepartureTime    string  `json:"departure_time"`
	PickupDate       string  `json:"pickup_date"`
	PickupTime       string  `json:"pickup_time"`
	Comments         string  `json:"comments"`
}

// ConfirmShipmentRequest carries the operator values applied on confirmation.
type ConfirmShipmentRequest struct {
	TotalFreight     float64 `json:"total_freight" validate:"gte=0"`
	ExpectedDelivery string  `json:"expected_delivery"`
	Comments         string  `json:"comments"`
}

// RejectShipmentRequest carries the optional rejection reason.
type RejectShipmentRequest struct {
	Reason string `json:"reason"`
}
