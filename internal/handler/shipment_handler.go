package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/colisselect-api/internal/middleware"
	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/internal/service"
	"github.com/noah-isme/colisselect-api/pkg/response"
)

type shipmentService interface {
	List(ctx context.Context, filter models.ShipmentFilter) ([]models.Shipment, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.Shipment, error)
	Create(ctx context.Context, req models.ShipmentRequest, admin bool) (*models.Shipment, error)
	Update(ctx context.Context, id int64, req models.ShipmentRequest) (*models.Shipment, error)
	Delete(ctx context.Context, id int64) error
	Confirm(ctx context.Context, id int64, req models.ConfirmShipmentRequest) (*models.Shipment, error)
	Reject(ctx context.Context, id int64, req models.RejectShipmentRequest) (*models.Shipment, error)
}

type exportService interface {
	Shipments(ctx context.Context, format string, filter models.ShipmentFilter) (*service.ExportResult, error)
	Waybill(ctx context.Context, id int64) (*service.ExportResult, error)
}

// ShipmentHandler exposes shipment administration and the creation endpoint.
type ShipmentHandler struct {
	service shipmentService
	exports exportService
}

// NewShipmentHandler constructs a ShipmentHandler.
func NewShipmentHandler(svc shipmentService, exports exportService) *ShipmentHandler {
	return &ShipmentHandler{service: svc, exports: exports}
}

// List godoc
// @Summary List shipments
// @Tags Shipments
// @Produce json
// @Param status query string false "Status filter, all for every status"
// @Param search query string false "Search term"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /shipments [get]
func (h *ShipmentHandler) List(c *gin.Context) {
	shipments, pagination, err := h.service.List(c.Request.Context(), shipmentFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shipments, pagination)
}

// Get godoc
// @Summary Get shipment
// @Tags Shipments
// @Produce json
// @Param id path int true "Shipment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /shipments/{id} [get]
func (h *ShipmentHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	shipment, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shipment, nil)
}

// Create godoc
// @Summary Create shipment
// @Description Operators sending the admin marker header get a processing shipment with a tracking number; everyone else creates a pending request.
// @Tags Shipments
// @Accept json
// @Produce json
// @Param X-Admin-Request header bool false "Admin-originated request"
// @Param payload body models.ShipmentRequest true "Shipment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /shipments [post]
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req models.ShipmentRequest
	if err := bindJSON(c, &req, "invalid shipment payload"); err != nil {
		response.Error(c, err)
		return
	}
	shipment, err := h.service.Create(c.Request.Context(), req, middleware.IsAdminRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, shipment)
}

// Update godoc
// @Summary Update shipment
// @Tags Shipments
// @Accept json
// @Produce json
// @Param id path int true "Shipment ID"
// @Param payload body models.ShipmentRequest true "Shipment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /shipments/{id} [put]
func (h *ShipmentHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.ShipmentRequest
	if err := bindJSON(c, &req, "invalid shipment payload"); err != nil {
		response.Error(c, err)
		return
	}
	shipment, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shipment, nil)
}

// Delete godoc
// @Summary Delete shipment
// @Description Removes the shipment and its tracking history.
// @Tags Shipments
// @Param id path int true "Shipment ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /shipments/{id} [delete]
func (h *ShipmentHandler) Delete(c *gin.Context) {
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

// Confirm godoc
// @Summary Confirm shipment request
// @Tags Shipments
// @Accept json
// @Produce json
// @Param id path int true "Shipment ID"
// @Param payload body models.ConfirmShipmentRequest false "Freight and delivery details"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /shipments/{id}/confirm [post]
func (h *ShipmentHandler) Confirm(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.ConfirmShipmentRequest
	if err := bindOptionalJSON(c, &req, "invalid confirm payload"); err != nil {
		response.Error(c, err)
		return
	}
	shipment, err := h.service.Confirm(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shipment, nil)
}

// Reject godoc
// @Summary Reject shipment request
// @Tags Shipments
// @Accept json
// @Produce json
// @Param id path int true "Shipment ID"
// @Param payload body models.RejectShipmentRequest false "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /shipments/{id}/reject [post]
func (h *ShipmentHandler) Reject(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.RejectShipmentRequest
	if err := bindOptionalJSON(c, &req, "invalid reject payload"); err != nil {
		response.Error(c, err)
		return
	}
	shipment, err := h.service.Reject(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shipment, nil)
}

// Export godoc
// @Summary Export shipments
// @Tags Shipments
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Param status query string false "Status filter"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /shipments/export [get]
func (h *ShipmentHandler) Export(c *gin.Context) {
	filter := shipmentFilter(c)
	filter.Unpaged = true
	result, err := h.exports.Shipments(c.Request.Context(), c.DefaultQuery("format", service.FormatCSV), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Data)
}

// Waybill godoc
// @Summary Shipment waybill
// @Tags Shipments
// @Produce application/pdf
// @Param id path int true "Shipment ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /shipments/{id}/waybill [get]
func (h *ShipmentHandler) Waybill(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.Waybill(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Data)
}
