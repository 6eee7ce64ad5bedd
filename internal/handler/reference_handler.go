package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/internal/service"
	"github.com/noah-isme/colisselect-api/pkg/response"
)

// ResourceHandler serves list/get/create/update/delete for one reference table.
type ResourceHandler[T any, R any] struct {
	name   string
	list   func(ctx context.Context) ([]T, error)
	get    func(ctx context.Context, id int64) (*T, error)
	create func(ctx context.Context, req R) (*T, error)
	update func(ctx context.Context, id int64, req R) (*T, error)
	remove func(ctx context.Context, id int64) error
}

func (h *ResourceHandler[T, R]) List(c *gin.Context) {
	items, err := h.list(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

func (h *ResourceHandler[T, R]) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

func (h *ResourceHandler[T, R]) Create(c *gin.Context) {
	var req R
	if err := bindJSON(c, &req, "invalid "+h.name+" payload"); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

func (h *ResourceHandler[T, R]) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req R
	if err := bindJSON(c, &req, "invalid "+h.name+" payload"); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

func (h *ResourceHandler[T, R]) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.remove(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Register mounts the handler on group: reads for everyone in readers, writes behind writers.
func (h *ResourceHandler[T, R]) Register(group *gin.RouterGroup, path string, readers, writers []gin.HandlerFunc) {
	read := func(handler gin.HandlerFunc) []gin.HandlerFunc { return append(append([]gin.HandlerFunc{}, readers...), handler) }
	write := func(handler gin.HandlerFunc) []gin.HandlerFunc { return append(append([]gin.HandlerFunc{}, writers...), handler) }
	group.GET(path, read(h.List)...)
	group.GET(path+"/:id", read(h.Get)...)
	group.POST(path, write(h.Create)...)
	group.PUT(path+"/:id", write(h.Update)...)
	group.DELETE(path+"/:id", write(h.Delete)...)
}

// ReferenceHandler groups the location, zone and rate table endpoints.
type ReferenceHandler struct {
	Locations     *ResourceHandler[models.Location, models.LocationRequest]
	Zones         *ResourceHandler[models.Zone, models.ZoneRequest]
	ShippingRates *ResourceHandler[models.ShippingRate, models.ShippingRateRequest]
	PickupRates   *ResourceHandler[models.PickupRate, models.PickupRateRequest]
}

// NewReferenceHandler wires the reference service into per-table handlers.
func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{
		Locations: &ResourceHandler[models.Location, models.LocationRequest]{
			name: "location", list: svc.ListLocations, get: svc.GetLocation,
			create: svc.CreateLocation, update: svc.UpdateLocation, remove: svc.DeleteLocation,
		},
		Zones: &ResourceHandler[models.Zone, models.ZoneRequest]{
			name: "zone", list: svc.ListZones, get: svc.GetZone,
			create: svc.CreateZone, update: svc.UpdateZone, remove: svc.DeleteZone,
		},
		ShippingRates: &ResourceHandler[models.ShippingRate, models.ShippingRateRequest]{
			name: "shipping rate", list: svc.ListShippingRates, get: svc.GetShippingRate,
			create: svc.CreateShippingRate, update: svc.UpdateShippingRate, remove: svc.DeleteShippingRate,
		},
		PickupRates: &ResourceHandler[models.PickupRate, models.PickupRateRequest]{
			name: "pickup rate", list: svc.ListPickupRates, get: svc.GetPickupRate,
			create: svc.CreatePickupRate, update: svc.UpdatePickupRate, remove: svc.DeletePickupRate,
		},
	}
}

// Register mounts every reference table under group.
func (h *ReferenceHandler) Register(group *gin.RouterGroup, readers, writers []gin.HandlerFunc) {
	h.Locations.Register(group, "/locations", readers, writers)
	h.Zones.Register(group, "/zones", readers, writers)
	h.ShippingRates.Register(group, "/shipping-rates", readers, writers)
	h.PickupRates.Register(group, "/pickup-rates", readers, writers)
}
