package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/colisselect-api/internal/models"
	appErrors "github.com/noah-isme/colisselect-api/pkg/errors"
	"github.com/noah-isme/colisselect-api/pkg/response"
)

type feedHub interface {
	Serve(w http.ResponseWriter, r *http.Request, shipmentID int64) error
}

type shipmentLocator interface {
	Resolve(ctx context.Context, trackingNumber string) (*models.Shipment, error)
}

// RealtimeHandler upgrades shipment feed subscriptions to websockets.
type RealtimeHandler struct {
	hub     feedHub
	locator shipmentLocator
}

// NewRealtimeHandler constructs a RealtimeHandler.
func NewRealtimeHandler(hub feedHub, locator shipmentLocator) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, locator: locator}
}

// Subscribe godoc
// @Summary Live shipment feed
// @Description Upgrades to a websocket streaming status_update and gps_update messages for the shipment. Browsers may pass the token as access_token.
// @Tags Realtime
// @Param id path int true "Shipment ID"
// @Success 101
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /ws/shipments/{id} [get]
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "realtime feed disabled"))
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.serve(c, id)
}

// Track godoc
// @Summary Live feed by tracking number
// @Description Upgrades to a websocket streaming updates for the shipment behind a tracking number.
// @Tags Realtime
// @Param tracking_number path string true "Tracking number"
// @Success 101
// @Failure 404 {object} response.Envelope
// @Router /ws/track/{tracking_number} [get]
func (h *RealtimeHandler) Track(c *gin.Context) {
	if h.hub == nil || h.locator == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "realtime feed disabled"))
		return
	}
	shipment, err := h.locator.Resolve(c.Request.Context(), c.Param("tracking_number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.serve(c, shipment.ID)
}

func (h *RealtimeHandler) serve(c *gin.Context, shipmentID int64) {
	// Serve answers the handshake failure itself.
	if err := h.hub.Serve(c.Writer, c.Request, shipmentID); err != nil {
		_ = c.Error(err)
	}
}
