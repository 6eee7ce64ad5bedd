package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/colisselect-api/internal/models"
	appErrors "github.com/noah-isme/colisselect-api/pkg/errors"
)

type trackingFixture struct {
	*shipmentFixture
	tracking *TrackingService
}

func newTrackingFixture(t *testing.T) *trackingFixture {
	t.Helper()
	f := newShipmentFixture(t)
	tracking := NewTrackingService(fakeHistory{db: f.db}, fakeShipments{db: f.db}, TrackingServiceOptions{
		Cache:     NewCacheService(f.cache, f.metrics, time.Minute, nil, true),
		Publisher: f.publisher,
		Metrics:   f.metrics,
	}, nil)
	tracking.now = func() time.Time { return time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC) }
	return &trackingFixture{shipmentFixture: f, tracking: tracking}
}

func (f *trackingFixture) createAdminShipment(t *testing.T) *models.Shipment {
	t.Helper()
	shipment, err := f.svc.Create(context.Background(), validShipmentRequest(), true)
	require.NoError(t, err)
	return shipment
}

func TestAppendRecognisedStatusUpdatesShipment(t *testing.T) {
	f := newTrackingFixture(t)
	shipment := f.createAdminShipment(t)

	event, err := f.tracking.Append(context.Background(), shipment.ID, models.TrackingEventRequest{
		Location: "Lyon Hub",
		Status:   "in_transit",
	})
	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.Equal(t, time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC), event.DateTime)

	reloaded, err := f.svc.Get(context.Background(), shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInTransit, reloaded.Status)
	assert.Contains(t, f.cache.deleted, TrackingCacheKey(shipment.TrackingNumberValue()))
	assert.Len(t, f.publisher.events, 2)
}

func TestAppendFreeFormStatusLeavesShipment(t *testing.T) {
	f := newTrackingFixture(t)
	shipment := f.createAdminShipment(t)

	_, err := f.tracking.Append(context.Background(), shipment.ID, models.TrackingEventRequest{
		Location: "Customs",
		Status:   "customs_hold",
	})
	require.NoError(t, err)

	reloaded, err := f.svc.Get(context.Background(), shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, reloaded.Status)
	assert.Len(t, f.db.eventsFor(shipment.ID), 2)
}

func TestAppendValidation(t *testing.T) {
	f := newTrackingFixture(t)
	shipment := f.createAdminShipment(t)

	cases := map[string]models.TrackingEventRequest{
		"location":  {Status: "in_transit"},
		"status":    {Location: "Lyon"},
		"date_time": {Location: "Lyon", Status: "in_transit", DateTime: "yesterday"},
	}
	for field, req := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := f.tracking.Append(context.Background(), shipment.ID, req)
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, field, appErr.Field)
		})
	}

	lat := 120.0
	_, err := f.tracking.Append(context.Background(), shipment.ID, models.TrackingEventRequest{Location: "x", Status: "y", Latitude: &lat})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "latitude", appErr.Field)
}

func TestAppendUnknownShipment(t *testing.T) {
	f := newTrackingFixture(t)
	_, err := f.tracking.Append(context.Background(), 55, models.TrackingEventRequest{Location: "Lyon", Status: "in_transit"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAppendParsesDateLayouts(t *testing.T) {
	f := newTrackingFixture(t)
	shipment := f.createAdminShipment(t)

	for _, raw := range []string{"2024-05-03T10:15:00Z", "2024-05-03 10:15:00", "2024-05-03T10:15"} {
		event, err := f.tracking.Append(context.Background(), shipment.ID, models.TrackingEventRequest{
			DateTime: raw, Location: "Lyon", Status: "picked_up",
		})
		require.NoError(t, err, raw)
		assert.Equal(t, time.Date(2024, 5, 3, 10, 15, 0, 0, time.UTC), event.DateTime, raw)
	}
}

func TestListHistoryNewestFirst(t *testing.T) {
	f := newTrackingFixture(t)
	shipment := f.createAdminShipment(t)

	_, err := f.tracking.Append(context.Background(), shipment.ID, models.TrackingEventRequest{DateTime: "2024-06-01 10:00:00", Location: "Lyon", Status: "in_transit"})
	require.NoError(t, err)
	_, err = f.tracking.Append(context.Background(), shipment.ID, models.TrackingEventRequest{DateTime: "2024-06-02 10:00:00", Location: "Lyon", Status: "delivered"})
	require.NoError(t, err)

	events, err := f.tracking.List(context.Background(), shipment.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "delivered", events[0].Status)
	assert.Equal(t, "in_transit", events[1].Status)
	assert.Equal(t, "processing", events[2].Status)

	_, err = f.tracking.List(context.Background(), 999)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUpdateEventSyncsStatus(t *testing.T) {
	f := newTrackingFixture(t)
	shipment := f.createAdminShipment(t)
	event, err := f.tracking.Append(context.Background(), shipment.ID, models.TrackingEventRequest{Location: "Lyon", Status: "customs_hold"})
	require.NoError(t, err)

	updated, err := f.tracking.Update(context.Background(), event.ID, models.TrackingEventRequest{Location: "Lyon", Status: "delayed"})
	require.NoError(t, err)
	assert.Equal(t, shipment.ID, updated.ShipmentID)

	reloaded, err := f.svc.Get(context.Background(), shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelayed, reloaded.Status)

	_, err = f.tracking.Update(context.Background(), 999, models.TrackingEventRequest{Location: "Lyon", Status: "delayed"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDeleteEvent(t *testing.T) {
	f := newTrackingFixture(t)
	shipment := f.createAdminShipment(t)
	event, err := f.tracking.Append(context.Background(), shipment.ID, models.TrackingEventRequest{Location: "Lyon", Status: "in_transit"})
	require.NoError(t, err)

	require.NoError(t, f.tracking.Delete(context.Background(), event.ID))
	assert.Len(t, f.db.eventsFor(shipment.ID), 1)
	assert.ErrorIs(t, f.tracking.Delete(context.Background(), event.ID), appErrors.ErrNotFound)
}

func TestTrackUsesCache(t *testing.T) {
	f := newTrackingFixture(t)
	shipment := f.createAdminShipment(t)
	tn := shipment.TrackingNumberValue()

	result, hit, err := f.tracking.Track(context.Background(), tn)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, shipment.ID, result.Shipment.ID)
	require.Len(t, result.History, 1)

	_, hit, err = f.tracking.Track(context.Background(), tn)
	require.NoError(t, err)
	assert.True(t, hit)

	_, err = f.tracking.Append(context.Background(), shipment.ID, models.TrackingEventRequest{Location: "Lyon", Status: "in_transit"})
	require.NoError(t, err)

	result, hit, err = f.tracking.Track(context.Background(), tn)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, result.History, 2)
	assert.Equal(t, models.StatusInTransit, result.Shipment.Status)
}

// gatedHistory parks the first ListByShipment call until released.
type gatedHistory struct {
	fakeHistory
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedHistory) ListByShipment(ctx context.Context, shipmentID int64) ([]models.TrackingEvent, error) {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.fakeHistory.ListByShipment(ctx, shipmentID)
}

func TestTrackDoesNotCacheResultOverlappingAWrite(t *testing.T) {
	f := newTrackingFixture(t)
	shipment := f.createAdminShipment(t)
	tn := shipment.TrackingNumberValue()

	gated := &gatedHistory{fakeHistory: fakeHistory{db: f.db}, entered: make(chan struct{}), release: make(chan struct{})}
	reader := NewTrackingService(gated, fakeShipments{db: f.db}, TrackingServiceOptions{
		Cache:   NewCacheService(f.cache, f.metrics, time.Minute, nil, true),
		Metrics: f.metrics,
	}, nil)

	type lookup struct {
		result *models.TrackingResult
		err    error
	}
	done := make(chan lookup, 1)
	go func() {
		result, _, err := reader.Track(context.Background(), tn)
		done <- lookup{result, err}
	}()

	<-gated.entered
	_, err := f.tracking.Append(context.Background(), shipment.ID, models.TrackingEventRequest{Location: "Paris", Status: "delivered"})
	require.NoError(t, err)
	close(gated.release)

	inflight := <-done
	require.NoError(t, inflight.err)
	assert.Equal(t, models.StatusProcessing, inflight.result.Shipment.Status)

	result, hit, err := f.tracking.Track(context.Background(), tn)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.StatusDelivered, result.Shipment.Status)
	assert.Len(t, result.History, 2)

	_, hit, err = f.tracking.Track(context.Background(), tn)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestTrackUnknownNumber(t *testing.T) {
	f := newTrackingFixture(t)
	_, _, err := f.tracking.Track(context.Background(), "SHIP000000000000-COLISSELECT")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, _, err = f.tracking.Track(context.Background(), " ")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestResolveTrackingNumber(t *testing.T) {
	f := newTrackingFixture(t)
	shipment := f.createAdminShipment(t)

	found, err := f.tracking.Resolve(context.Background(), " "+shipment.TrackingNumberValue()+" ")
	require.NoError(t, err)
	assert.Equal(t, shipment.ID, found.ID)

	_, err = f.tracking.Resolve(context.Background(), "SHIP000000000000-COLISSELECT")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.tracking.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
