package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/internal/service"
	"github.com/noah-isme/colisselect-api/pkg/config"
	appErrors "github.com/noah-isme/colisselect-api/pkg/errors"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

type stubTokens map[string]*models.JWTClaims

func (s stubTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

var testTokens = stubTokens{
	"admin":    {UserID: 1, Role: models.RoleAdmin, Email: "admin@colisselect.com"},
	"agent":    {UserID: 2, Role: models.RoleAgent},
	"customer": {UserID: 9, Role: models.RoleUser},
}

type fakeShipmentService struct {
	filter      models.ShipmentFilter
	createAdmin *bool
	rejectReq   *models.RejectShipmentRequest
	confirmReq  *models.ConfirmShipmentRequest
	err         error
}

func (f *fakeShipmentService) List(_ context.Context, filter models.ShipmentFilter) ([]models.Shipment, *models.Pagination, error) {
	f.filter = filter
	if f.err != nil {
		return nil, nil, f.err
	}
	return []models.Shipment{{ID: 1, Status: models.StatusProcessing}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (f *fakeShipmentService) Get(_ context.Context, id int64) (*models.Shipment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Shipment{ID: id}, nil
}

func (f *fakeShipmentService) Create(_ context.Context, req models.ShipmentRequest, admin bool) (*models.Shipment, error) {
	f.createAdmin = &admin
	if f.err != nil {
		return nil, f.err
	}
	status := models.StatusPendingConfirmation
	if admin {
		status = models.StatusProcessing
	}
	return &models.Shipment{ID: 10, ShipperName: req.ShipperName, Status: status}, nil
}

func (f *fakeShipmentService) Update(_ context.Context, id int64, req models.ShipmentRequest) (*models.Shipment, error) {
	return &models.Shipment{ID: id, ShipperName: req.ShipperName}, f.err
}

func (f *fakeShipmentService) Delete(context.Context, int64) error { return f.err }

func (f *fakeShipmentService) Confirm(_ context.Context, id int64, req models.ConfirmShipmentRequest) (*models.Shipment, error) {
	f.confirmReq = &req
	return &models.Shipment{ID: id, Status: models.StatusProcessing}, f.err
}

func (f *fakeShipmentService) Reject(_ context.Context, id int64, req models.RejectShipmentRequest) (*models.Shipment, error) {
	f.rejectReq = &req
	return &models.Shipment{ID: id, Status: models.StatusRejected}, f.err
}

type fakeExportService struct {
	format string
	filter models.ShipmentFilter
}

func (f *fakeExportService) Shipments(_ context.Context, format string, filter models.ShipmentFilter) (*service.ExportResult, error) {
	f.format = format
	f.filter = filter
	return &service.ExportResult{Filename: "shipments.csv", ContentType: "text/csv", Data: []byte("id\n1\n")}, nil
}

func (f *fakeExportService) Waybill(_ context.Context, id int64) (*service.ExportResult, error) {
	return nil, appErrors.Clone(appErrors.ErrConflict, "shipment has no tracking number yet")
}

type fakeTrackingService struct {
	hit       bool
	deletedID int64
}

func (f *fakeTrackingService) List(context.Context, int64) ([]models.TrackingEvent, error) {
	return []models.TrackingEvent{}, nil
}

func (f *fakeTrackingService) Append(_ context.Context, shipmentID int64, req models.TrackingEventRequest) (*models.TrackingEvent, error) {
	if strings.TrimSpace(req.Location) == "" {
		return nil, appErrors.Validation("location")
	}
	return &models.TrackingEvent{ID: 5, ShipmentID: shipmentID, Location: req.Location, Status: req.Status}, nil
}

func (f *fakeTrackingService) Update(_ context.Context, id int64, req models.TrackingEventRequest) (*models.TrackingEvent, error) {
	return &models.TrackingEvent{ID: id, Location: req.Location}, nil
}

func (f *fakeTrackingService) Delete(_ context.Context, id int64) error {
	f.deletedID = id
	return nil
}

func (f *fakeTrackingService) Resolve(_ context.Context, trackingNumber string) (*models.Shipment, error) {
	if trackingNumber != "SHIP123456789012-COLISSELECT" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "shipment not found")
	}
	return &models.Shipment{ID: 1}, nil
}

type fakeFeedHub struct {
	served []int64
}

func (f *fakeFeedHub) Serve(_ http.ResponseWriter, _ *http.Request, shipmentID int64) error {
	f.served = append(f.served, shipmentID)
	return nil
}

func (f *fakeTrackingService) Track(_ context.Context, trackingNumber string) (*models.TrackingResult, bool, error) {
	if trackingNumber != "SHIP123456789012-COLISSELECT" {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "shipment not found")
	}
	tn := trackingNumber
	return &models.TrackingResult{Shipment: models.Shipment{ID: 1, TrackingNumber: &tn}, History: []models.TrackingEvent{}}, f.hit, nil
}

type fakeUserService struct {
	deletedID, actorID int64
	filter             models.UserFilter
}

func (f *fakeUserService) List(_ context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	f.filter = filter
	return []models.User{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (f *fakeUserService) Get(_ context.Context, id int64) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (f *fakeUserService) Create(_ context.Context, req models.CreateUserRequest) (*models.User, error) {
	return &models.User{ID: 3, Email: req.Email}, nil
}

func (f *fakeUserService) Update(_ context.Context, id int64, _ models.UpdateUserRequest) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (f *fakeUserService) Delete(_ context.Context, id, actorID int64) error {
	if id == actorID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot delete your own account")
	}
	f.deletedID, f.actorID = id, actorID
	return nil
}

type fakeAuthService struct{}

func (fakeAuthService) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if req.Password != "password123" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "admin", User: models.UserInfo{ID: 1, Email: req.Email}}, nil
}

func (fakeAuthService) Register(_ context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	return &models.LoginResponse{AccessToken: "customer", User: models.UserInfo{ID: 9, Email: req.Email}}, nil
}

func (fakeAuthService) Me(_ context.Context, id int64) (*models.UserInfo, error) {
	return &models.UserInfo{ID: id}, nil
}

type fakeQuotes struct{}

func (fakeQuotes) Quote(_ context.Context, req models.QuoteRequest) (*models.Quote, error) {
	if req.Weight <= 0 {
		return nil, appErrors.InvalidField("weight", "weight must be positive")
	}
	return &models.Quote{ActualWeight: req.Weight, TaxedWeight: req.Weight}, nil
}

func (fakeQuotes) Shipments(context.Context) (*models.ShipmentStats, error) {
	return &models.ShipmentStats{Total: 3}, nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func fakeReferenceHandler() *ReferenceHandler {
	locations := []models.Location{{ID: 1, Name: "Paris", Slug: "paris", Country: "France"}}
	return &ReferenceHandler{
		Locations: &ResourceHandler[models.Location, models.LocationRequest]{
			name: "location",
			list: func(context.Context) ([]models.Location, error) { return locations, nil },
			get: func(_ context.Context, id int64) (*models.Location, error) {
				if id != 1 {
					return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
				}
				return &locations[0], nil
			},
			create: func(_ context.Context, req models.LocationRequest) (*models.Location, error) {
				return &models.Location{ID: 2, Name: req.Name}, nil
			},
			update: func(_ context.Context, id int64, req models.LocationRequest) (*models.Location, error) {
				return &models.Location{ID: id, Name: req.Name}, nil
			},
			remove: func(context.Context, int64) error { return nil },
		},
		Zones:         &ResourceHandler[models.Zone, models.ZoneRequest]{name: "zone"},
		ShippingRates: &ResourceHandler[models.ShippingRate, models.ShippingRateRequest]{name: "shipping rate"},
		PickupRates:   &ResourceHandler[models.PickupRate, models.PickupRateRequest]{name: "pickup rate"},
	}
}

type routerFixture struct {
	router    *gin.Engine
	shipments *fakeShipmentService
	exports   *fakeExportService
	tracking  *fakeTrackingService
	users     *fakeUserService
}

func newRouterFixture(t *testing.T, mutate func(cfg *config.Config, h *Handlers)) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &routerFixture{
		shipments: &fakeShipmentService{},
		exports:   &fakeExportService{},
		tracking:  &fakeTrackingService{},
		users:     &fakeUserService{},
	}
	cfg := &config.Config{
		Env:       config.EnvProduction,
		APIPrefix: "/api",
		Admin:     config.AdminConfig{RequestHeader: "X-Admin-Request"},
	}
	h := Handlers{
		Auth:      NewAuthHandler(fakeAuthService{}),
		Users:     NewUserHandler(f.users),
		Shipments: NewShipmentHandler(f.shipments, f.exports),
		Tracking:  NewTrackingHandler(f.tracking),
		Reference: fakeReferenceHandler(),
		Quotes:    NewQuoteHandler(fakeQuotes{}, fakeQuotes{}),
		System:    NewSystemHandler(nil, map[string]Pinger{"store": pingFunc(func(context.Context) error { return nil })}),
	}
	if mutate != nil {
		mutate(cfg, &h)
	}
	f.router = NewRouter(cfg, zap.NewNop(), testTokens, nil, h)
	return f
}

func (f *routerFixture) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}
