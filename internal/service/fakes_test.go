package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/internal/notification"
	"github.com/noah-isme/colisselect-api/internal/repository"
	appErrors "github.com/noah-isme/colisselect-api/pkg/errors"
)

// memoryDB backs fakeShipments and fakeHistory with shared state.
type memoryDB struct {
	mu        sync.Mutex
	shipments map[int64]models.Shipment
	events    map[int64]models.TrackingEvent
	nextID    int64
	nextEvent int64

	// duplicates makes the next N tracking-number writes fail with ErrDuplicate.
	duplicates int
	failWith   error
}

func newMemoryDB() *memoryDB {
	return &memoryDB{shipments: map[int64]models.Shipment{}, events: map[int64]models.TrackingEvent{}}
}

func (db *memoryDB) eventsFor(shipmentID int64) []models.TrackingEvent {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []models.TrackingEvent
	for _, e := range db.events {
		if e.ShipmentID == shipmentID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateTime.Equal(out[j].DateTime) {
			return out[i].ID > out[j].ID
		}
		return out[i].DateTime.After(out[j].DateTime)
	})
	return out
}

func (db *memoryDB) insertEventLocked(event *models.TrackingEvent) {
	db.nextEvent++
	event.ID = db.nextEvent
	db.events[event.ID] = *event
}

func (db *memoryDB) tnTakenLocked(tn string, except int64) bool {
	for id, s := range db.shipments {
		if id != except && s.TrackingNumberValue() == tn {
			return true
		}
	}
	return false
}

type fakeShipments struct{ db *memoryDB }

func (f fakeShipments) List(_ context.Context, filter models.ShipmentFilter) ([]models.Shipment, int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWith != nil {
		return nil, 0, f.db.failWith
	}
	var out []models.Shipment
	for _, s := range f.db.shipments {
		if filter.Status == "" || s.Status == filter.Status {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (f fakeShipments) FindByID(_ context.Context, id int64) (*models.Shipment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.shipments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (f fakeShipments) FindByTrackingNumber(_ context.Context, tn string) (*models.Shipment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, s := range f.db.shipments {
		if s.TrackingNumberValue() == tn {
			out := s
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeShipments) CreateWithEvent(_ context.Context, shipment *models.Shipment, event *models.TrackingEvent) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWith != nil {
		return f.db.failWith
	}
	if shipment.TrackingNumber != nil {
		if f.db.duplicates > 0 {
			f.db.duplicates--
			return repository.ErrDuplicate
		}
		if f.db.tnTakenLocked(*shipment.TrackingNumber, 0) {
			return repository.ErrDuplicate
		}
	}
	f.db.nextID++
	shipment.ID = f.db.nextID
	f.db.shipments[shipment.ID] = *shipment
	event.ShipmentID = shipment.ID
	f.db.insertEventLocked(event)
	return nil
}

func (f fakeShipments) Update(_ context.Context, shipment *models.Shipment) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	current, ok := f.db.shipments[shipment.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := *shipment
	updated.Status = current.Status
	updated.TrackingNumber = current.TrackingNumber
	updated.DateCreated = current.DateCreated
	f.db.shipments[shipment.ID] = updated
	return nil
}

func (f fakeShipments) Delete(_ context.Context, id int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.shipments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.shipments, id)
	for eid, e := range f.db.events {
		if e.ShipmentID == id {
			delete(f.db.events, eid)
		}
	}
	return nil
}

func (f fakeShipments) Confirm(_ context.Context, id int64, params models.ConfirmParams, event *models.TrackingEvent) (*models.Shipment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.shipments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if s.TrackingNumber == nil {
		if f.db.duplicates > 0 {
			f.db.duplicates--
			return nil, repository.ErrDuplicate
		}
		tn := params.TrackingNumber
		s.TrackingNumber = &tn
	}
	s.Status = models.StatusProcessing
	s.TotalFreight = params.TotalFreight
	s.ExpectedDelivery = params.ExpectedDelivery
	s.Comments = params.Comments
	f.db.shipments[id] = s
	event.ShipmentID = id
	f.db.insertEventLocked(event)
	return &s, nil
}

func (f fakeShipments) Reject(_ context.Context, id int64, comments string, event *models.TrackingEvent) (*models.Shipment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.shipments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s.Status = models.StatusRejected
	s.Comments = comments
	f.db.shipments[id] = s
	event.ShipmentID = id
	f.db.insertEventLocked(event)
	return &s, nil
}

func (f fakeShipments) CountByStatus(_ context.Context, since time.Time) (map[models.ShipmentStatus]int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failWith != nil {
		return nil, f.db.failWith
	}
	counts := map[models.ShipmentStatus]int{}
	for _, s := range f.db.shipments {
		if since.IsZero() || !s.DateCreated.Before(since) {
			counts[s.Status]++
		}
	}
	return counts, nil
}

type fakeHistory struct{ db *memoryDB }

func (f fakeHistory) ListByShipment(_ context.Context, shipmentID int64) ([]models.TrackingEvent, error) {
	return f.db.eventsFor(shipmentID), nil
}

func (f fakeHistory) FindByID(_ context.Context, id int64) (*models.TrackingEvent, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	e, ok := f.db.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (f fakeHistory) Append(_ context.Context, event *models.TrackingEvent, syncStatus bool) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.shipments[event.ShipmentID]
	if !ok {
		return repository.ErrNotFound
	}
	f.db.insertEventLocked(event)
	if syncStatus {
		s.Status = models.ShipmentStatus(event.Status)
		f.db.shipments[s.ID] = s
	}
	return nil
}

func (f fakeHistory) Update(_ context.Context, event *models.TrackingEvent, syncStatus bool) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	current, ok := f.db.events[event.ID]
	if !ok {
		return repository.ErrNotFound
	}
	event.ShipmentID = current.ShipmentID
	f.db.events[event.ID] = *event
	if syncStatus {
		s := f.db.shipments[event.ShipmentID]
		s.Status = models.ShipmentStatus(event.Status)
		f.db.shipments[s.ID] = s
	}
	return nil
}

func (f fakeHistory) Delete(_ context.Context, id int64) (*models.TrackingEvent, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	e, ok := f.db.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(f.db.events, id)
	return &e, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notification.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.TrackingEvent
}

func (r *recordingPublisher) PublishEvent(_ *models.Shipment, event *models.TrackingEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
}

type memoryCache struct {
	mu          sync.Mutex
	values      map[string]models.TrackingResult
	generations map[string]int64
	deleted     []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]models.TrackingResult{}, generations: map[string]int64{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*models.TrackingResult)) = v
	return nil
}

func (m *memoryCache) Generation(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generations[key], nil
}

func (m *memoryCache) SetIfGeneration(_ context.Context, key string, generation int64, value interface{}, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generations[key] != generation {
		return false, nil
	}
	m.values[key] = *(value.(*models.TrackingResult))
	return true, nil
}

func (m *memoryCache) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		m.generations[k]++
		delete(m.values, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}
