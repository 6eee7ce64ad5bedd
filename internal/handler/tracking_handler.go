package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/colisselect-api/internal/middleware"
	"github.com/noah-isme/colisselect-api/internal/models"
	appErrors "github.com/noah-isme/colisselect-api/pkg/errors"
	"github.com/noah-isme/colisselect-api/pkg/response"
)

type trackingService interface {
	List(ctx context.Context, shipmentID int64) ([]models.TrackingEvent, error)
	Append(ctx context.Context, shipmentID int64, req models.TrackingEventRequest) (*models.TrackingEvent, error)
	Update(ctx context.Context, eventID int64, req models.TrackingEventRequest) (*models.TrackingEvent, error)
	Delete(ctx context.Context, eventID int64) error
	Track(ctx context.Context, trackingNumber string) (*models.TrackingResult, bool, error)
}

// TrackingHandler serves the tracking history ledger and the public lookup.
type TrackingHandler struct {
	service trackingService
}

// NewTrackingHandler constructs a TrackingHandler.
func NewTrackingHandler(svc trackingService) *TrackingHandler {
	return &TrackingHandler{service: svc}
}

// List godoc
// @Summary Tracking history of a shipment
// @Description Newest event first.
// @Tags Tracking
// @Produce json
// @Param shipment_id path int true "Shipment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tracking-history/{shipment_id} [get]
func (h *TrackingHandler) List(c *gin.Context) {
	shipmentID, err := pathID(c, "shipment_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	events, err := h.service.List(c.Request.Context(), shipmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Append godoc
// @Summary Append tracking event
// @Description A recognised status also becomes the shipment status.
// @Tags Tracking
// @Accept json
// @Produce json
// @Param shipment_id path int true "Shipment ID"
// @Param payload body models.TrackingEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tracking-history/{shipment_id} [post]
func (h *TrackingHandler) Append(c *gin.Context) {
	shipmentID, err := pathID(c, "shipment_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.TrackingEventRequest
	if err := bindJSON(c, &req, "invalid tracking event payload"); err != nil {
		response.Error(c, err)
		return
	}
	event, err := h.service.Append(c.Request.Context(), shipmentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update tracking event
// @Tags Tracking
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param payload body models.TrackingEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tracking-history/{id} [put]
func (h *TrackingHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.TrackingEventRequest
	if err := bindJSON(c, &req, "invalid tracking event payload"); err != nil {
		response.Error(c, err)
		return
	}
	event, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete tracking event
// @Tags Tracking
// @Param id path int true "Event ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /tracking-history/{id} [delete]
func (h *TrackingHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Track godoc
// @Summary Public tracking lookup
// @Tags Tracking
// @Produce json
// @Param tracking_number path string true "Tracking number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /track/{tracking_number} [get]
func (h *TrackingHandler) Track(c *gin.Context) {
	trackingNumber := strings.TrimSpace(c.Param("tracking_number"))
	if trackingNumber == "" {
		response.Error(c, appErrors.Validation("tracking_number"))
		return
	}
	result, hit, err := h.service.Track(c.Request.Context(), trackingNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}
