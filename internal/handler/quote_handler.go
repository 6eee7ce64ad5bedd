package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/pkg/response"
)

type quoteService interface {
	Quote(ctx context.Context, req models.QuoteRequest) (*models.Quote, error)
}

type statsService interface {
	Shipments(ctx context.Context) (*models.ShipmentStats, error)
}

// QuoteHandler answers price quotes and dashboard counters.
type QuoteHandler struct {
	quotes quoteService
	stats  statsService
}

// NewQuoteHandler constructs a QuoteHandler.
func NewQuoteHandler(quotes quoteService, stats statsService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, stats: stats}
}

// Quote godoc
// @Summary Price quote
// @Description Service level prices plus every applicable shipping rate, computed on the taxed weight.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param payload body models.QuoteRequest true "Parcel dimensions"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /quotes [post]
func (h *QuoteHandler) Quote(c *gin.Context) {
	var req models.QuoteRequest
	if err := bindJSON(c, &req, "invalid quote payload"); err != nil {
		response.Error(c, err)
		return
	}
	quote, err := h.quotes.Quote(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quote, nil)
}

// Stats godoc
// @Summary Shipment counters
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *QuoteHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Shipments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
