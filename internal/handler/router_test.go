package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/pkg/config"
)

func TestCreateShipmentAdminMarker(t *testing.T) {
	cases := []struct {
		name    string
		token   string
		headers []string
		admin   bool
	}{
		{"staff with marker", "agent", []string{"X-Admin-Request", "true"}, true},
		{"staff without marker", "agent", nil, false},
		{"customer with marker", "customer", []string{"X-Admin-Request", "true"}, false},
		{"anonymous", "", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRouterFixture(t, nil)
			rec := f.do(http.MethodPost, "/api/shipments", tc.token, `{"shipper_name":"Jean"}`, tc.headers...)

			require.Equal(t, http.StatusCreated, rec.Code)
			require.NotNil(t, f.shipments.createAdmin)
			assert.Equal(t, tc.admin, *f.shipments.createAdmin)
		})
	}
}

func TestCreateShipmentRejectsMalformedJSON(t *testing.T) {
	f := newRouterFixture(t, nil)
	rec := f.do(http.MethodPost, "/api/shipments", "", `{"shipper_name":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code)
	assert.Nil(t, f.shipments.createAdmin)
}

func TestBackOfficeRequiresStaff(t *testing.T) {
	f := newRouterFixture(t, nil)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/shipments", "", "").Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/shipments", "customer", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/shipments", "agent", "").Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/users", "agent", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/users", "admin", "").Code)
}

func TestListShipmentsFilter(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/shipments?status=all&search=%20lyon%20&page=2&limit=5", "agent", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ShipmentFilter{Search: "lyon", Page: 2, PageSize: 5}, f.shipments.filter)
	assert.Equal(t, 1, decodeEnvelope(t, rec).Pagination.TotalCount)

	f.do(http.MethodGet, "/api/shipments?status=in_transit", "agent", "")
	assert.Equal(t, models.StatusInTransit, f.shipments.filter.Status)
}

func TestShipmentErrorsAreEnveloped(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/shipments/abc", "agent", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "id", decodeEnvelope(t, rec).Error.Field)

	f.shipments.err = errors.New("connection reset by peer")
	rec = f.do(http.MethodGet, "/api/shipments/4", "agent", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestRejectAcceptsEmptyBody(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(http.MethodPost, "/api/shipments/3/reject", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.shipments.rejectReq)
	assert.Empty(t, f.shipments.rejectReq.Reason)

	rec = f.do(http.MethodPost, "/api/shipments/3/confirm", "admin", `{"total_freight":42.5,"expected_delivery":"2024-06-01"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 42.5, f.shipments.confirmReq.TotalFreight)
}

func TestExportAndWaybill(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/shipments/export?status=delivered", "agent", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", f.exports.format)
	assert.True(t, f.exports.filter.Unpaged)
	assert.Equal(t, models.StatusDelivered, f.exports.filter.Status)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "shipments.csv")

	rec = f.do(http.MethodGet, "/api/shipments/3/waybill", "agent", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTrackingHistoryRoutes(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(http.MethodPost, "/api/tracking-history/7", "agent", `{"location":"Lyon","status":"in_transit"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var event models.TrackingEvent
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &event))
	assert.Equal(t, int64(7), event.ShipmentID)

	rec = f.do(http.MethodPost, "/api/tracking-history/7", "agent", `{"status":"in_transit"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "location", decodeEnvelope(t, rec).Error.Field)

	assert.Equal(t, http.StatusOK, f.do(http.MethodPut, "/api/tracking-history/5", "agent", `{"location":"Lyon"}`).Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/tracking-history/5", "agent", "").Code)
	assert.Equal(t, int64(5), f.tracking.deletedID)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodDelete, "/api/tracking-history/5", "", "").Code)
}

func TestShipmentFeedRequiresStaff(t *testing.T) {
	hub := &fakeFeedHub{}
	f := newRouterFixture(t, func(_ *config.Config, h *Handlers) {
		h.Realtime = NewRealtimeHandler(hub, &fakeTrackingService{})
	})
	upgrade := []string{"Connection", "Upgrade", "Upgrade", "websocket", "Sec-WebSocket-Version", "13", "Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ=="}

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/ws/shipments/7", "", "", upgrade...).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/ws/shipments/7", "customer", "", upgrade...).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/ws/shipments/7?access_token=forged", "", "", upgrade...).Code)
	assert.Empty(t, hub.served)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/ws/shipments/7", "agent", "", upgrade...).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/ws/shipments/8?access_token=agent", "", "", upgrade...).Code)
	assert.Equal(t, []int64{7, 8}, hub.served)
}

func TestTrackingFeedResolvesNumber(t *testing.T) {
	hub := &fakeFeedHub{}
	f := newRouterFixture(t, func(_ *config.Config, h *Handlers) {
		h.Realtime = NewRealtimeHandler(hub, &fakeTrackingService{})
	})

	rec := f.do(http.MethodGet, "/ws/track/SHIP000000000000-COLISSELECT", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, hub.served)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/ws/track/SHIP123456789012-COLISSELECT", "", "").Code)
	assert.Equal(t, []int64{1}, hub.served)
}

func TestPublicTrackReportsCacheHit(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.tracking.hit = true

	rec := f.do(http.MethodGet, "/api/track/SHIP123456789012-COLISSELECT", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeEnvelope(t, rec).Meta["cache_hit"])

	rec = f.do(http.MethodGet, "/api/track/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReferenceReadsArePublic(t *testing.T) {
	f := newRouterFixture(t, nil)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/locations", "", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/locations/9", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/locations", "", `{"name":"Rennes"}`).Code)
	assert.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/locations", "agent", `{"name":"Rennes"}`).Code)
}

func TestAuthAndUsers(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(http.MethodPost, "/api/auth/login", "", `{"email":"admin@colisselect.com","password":"password123"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/auth/login", "", `{"email":"admin@colisselect.com","password":"nope"}`).Code)
	assert.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/auth/register", "", `{"name":"C","email":"c@example.com","password":"secret1"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/auth/me", "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/auth/me", "customer", "").Code)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodDelete, "/api/users/1", "admin", "").Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/users/4", "admin", "").Code)
	assert.Equal(t, int64(4), f.users.deletedID)
	assert.Equal(t, int64(1), f.users.actorID)
}

func TestUserListFilter(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/users?role=Agent&status=inactive&search=%20sophie%20&page=2&page_size=5", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.users.filter.Role)
	require.NotNil(t, f.users.filter.Status)
	assert.Equal(t, models.RoleAgent, *f.users.filter.Role)
	assert.Equal(t, models.UserStatusInactive, *f.users.filter.Status)
	assert.Equal(t, "sophie", f.users.filter.Search)
	assert.Equal(t, 2, f.users.filter.Page)
	assert.Equal(t, 5, f.users.filter.PageSize)

	rec = f.do(http.MethodGet, "/api/users?role=driver", "admin", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "role", env.Error.Field)
}

func TestQuoteAndStats(t *testing.T) {
	f := newRouterFixture(t, nil)

	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/quotes", "", `{"origin":"Paris","destination":"Lyon","weight":2}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/quotes", "", `{"weight":0}`).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/stats", "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/stats", "agent", "").Code)
}

func TestReadyReportsFailingDependency(t *testing.T) {
	f := newRouterFixture(t, func(_ *config.Config, h *Handlers) {
		h.System = NewSystemHandler(nil, map[string]Pinger{
			"store": pingFunc(func(context.Context) error { return nil }),
			"redis": pingFunc(func(context.Context) error { return errors.New("dial tcp: refused") }),
		})
	})

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "", "").Code)
	rec := f.do(http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store":"ok"`)
}

func TestNoRouteServesAppAndJSONForAPI(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o600))

	f := newRouterFixture(t, func(cfg *config.Config, _ *Handlers) { cfg.StaticDir = dir })

	rec := f.do(http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "API route not found", decodeEnvelope(t, rec).Error.Message)

	rec = f.do(http.MethodGet, "/track/SHIP1", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "app")

	rec = f.do(http.MethodGet, "/assets/app.js", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log")

	rec = f.do(http.MethodPost, "/track/SHIP1", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
