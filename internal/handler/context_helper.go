package handler

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/colisselect-api/internal/middleware"
	"github.com/noah-isme/colisselect-api/internal/models"
	appErrors "github.com/noah-isme/colisselect-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// pathID parses a numeric path parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.InvalidField(name, "invalid "+name)
	}
	return id, nil
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

func bindJSON(c *gin.Context, dst interface{}, message string) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, dst interface{}, message string) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}

// shipmentFilter reads the list query. "all" or an absent status leaves the list unfiltered.
func shipmentFilter(c *gin.Context) models.ShipmentFilter {
	filter := models.ShipmentFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "limit"),
	}
	if filter.PageSize == 0 {
		filter.PageSize = queryInt(c, "page_size")
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" && !strings.EqualFold(status, "all") {
		filter.Status = models.ShipmentStatus(status)
	}
	return filter
}
