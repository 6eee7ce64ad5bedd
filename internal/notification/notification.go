// Package notification delivers best-effort shipper notifications for confirmed and rejected shipments.
package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/colisselect-api/internal/models"
)

// Kind names the lifecycle change a notification reports.
type Kind string

const (
	KindConfirmed Kind = "shipment.confirmed"
	KindRejected  Kind = "shipment.rejected"
)

// Delivery results passed to a Recorder.
const (
	ResultDelivered = "delivered"
	ResultFailed    = "failed"
	ResultDropped   = "dropped"
)

// Notification is the message sent to the shipper.
type Notification struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	ShipmentID     int64     `json:"shipment_id"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	ShipperName    string    `json:"shipper_name"`
	ShipperEmail   string    `json:"shipper_email"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// New builds a notification for the shipment with a fresh message id.
func New(kind Kind, shipment *models.Shipment, reason string) Notification {
	return Notification{
		ID:             uuid.NewString(),
		Kind:           kind,
		ShipmentID:     shipment.ID,
		TrackingNumber: shipment.TrackingNumberValue(),
		ShipperName:    shipment.ShipperName,
		ShipperEmail:   shipment.ShipperEmail,
		Reason:         reason,
		CreatedAt:      time.Now().UTC(),
	}
}

func (n Notification) encode() ([]byte, error) {
	return json.Marshal(n)
}

// Sender delivers a notification to one sink.
type Sender interface {
	Send(ctx context.Context, n Notification) error
	Close() error
}

// Recorder counts delivery results.
type Recorder interface {
	RecordNotification(result string)
}
