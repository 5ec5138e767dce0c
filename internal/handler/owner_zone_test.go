package handler

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-zone-service/internal/queue"
	"github.com/iliyamo/parking-zone-service/internal/repository"
)

// fakeZoneStore keeps zones in memory and applies the same conditional
// availability update the SQL layer does.
type fakeZoneStore struct {
	mu     sync.Mutex
	nextID uint64
	zones  map[uint64]*repository.Zone
}

func newFakeZoneStore() *fakeZoneStore {
	return &fakeZoneStore{nextID: 1, zones: map[uint64]*repository.Zone{}}
}

func (s *fakeZoneStore) Create(_ context.Context, _ uint64, z *repository.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	z.ID = s.nextID
	s.nextID++
	cp := *z
	s.zones[z.ID] = &cp
	return nil
}

func (s *fakeZoneStore) Update(_ context.Context, _ uint64, z *repository.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.zones[z.ID]
	if !ok {
		return repository.ErrZoneNotFound
	}
	z.LocationID = cur.LocationID
	cp := *z
	s.zones[z.ID] = &cp
	return nil
}

func (s *fakeZoneStore) AdjustAvailability(_ context.Context, _ uint64, zoneID uint64, delta int32) (*repository.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zones[zoneID]
	if !ok {
		return nil, repository.ErrZoneNotFound
	}
	next := int64(z.AvailableSlots) + int64(delta)
	if next < 0 || next > int64(z.TotalSlots) {
		return nil, repository.ErrSlotsOutOfRange
	}
	z.AvailableSlots = uint32(next)
	cp := *z
	return &cp, nil
}

func (s *fakeZoneStore) Delete(_ context.Context, _ uint64, zoneID uint64) (*repository.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zones[zoneID]
	if !ok {
		return nil, repository.ErrZoneNotFound
	}
	delete(s.zones, zoneID)
	return z, nil
}

func TestZoneCreate(t *testing.T) {
	store := newFakeZoneStore()
	pub := &fakePublisher{}
	h := NewZoneHandler(store, pub, zap.NewNop())

	c, rec := newTestContext(t, http.MethodPost, "/v1/owner/locations/31/zones",
		`{"name":"P1 North","total_slots":50,"cost_per_hour_cents":250,"lat":52.52,"lng":13.405}`, 7)
	c.SetParamNames("id")
	c.SetParamValues("31")
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	// Omitted available_slots defaults to total_slots.
	assert.Contains(t, rec.Body.String(), `"available_slots":50`)

	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.ActionCreated, pub.events[0].Action)
	assert.Equal(t, uint64(31), pub.events[0].LocationID)
}

func TestZoneCreateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing coordinates", `{"name":"P1","total_slots":50,"lng":13.405}`},
		{"available exceeds total", `{"name":"P1","total_slots":50,"available_slots":60,"lat":52.52,"lng":13.405}`},
		{"zero capacity", `{"name":"P1","total_slots":0,"lat":52.52,"lng":13.405}`},
		{"empty name", `{"total_slots":50,"lat":52.52,"lng":13.405}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeZoneStore()
			h := NewZoneHandler(store, &fakePublisher{}, zap.NewNop())

			c, rec := newTestContext(t, http.MethodPost, "/v1/owner/locations/31/zones", tt.body, 7)
			c.SetParamNames("id")
			c.SetParamValues("31")
			require.NoError(t, h.Create(c))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, store.zones, "nothing may be stored on validation failure")
		})
	}
}

func TestZoneAdjustAvailability(t *testing.T) {
	store := newFakeZoneStore()
	require.NoError(t, store.Create(context.Background(), 7, &repository.Zone{
		LocationID: 31, Name: "P1", TotalSlots: 50, AvailableSlots: 10, Lat: 52.52, Lng: 13.405,
	}))
	pub := &fakePublisher{}
	h := NewZoneHandler(store, pub, zap.NewNop())

	adjust := func(body string) int {
		c, rec := newTestContext(t, http.MethodPatch, "/v1/owner/zones/1/availability", body, 7)
		c.SetParamNames("id")
		c.SetParamValues("1")
		require.NoError(t, h.AdjustAvailability(c))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, adjust(`{"delta":-3}`))
	assert.Equal(t, uint32(7), store.zones[1].AvailableSlots)

	// Underflow and overflow leave the stored value untouched.
	assert.Equal(t, http.StatusConflict, adjust(`{"delta":-8}`))
	assert.Equal(t, uint32(7), store.zones[1].AvailableSlots)
	assert.Equal(t, http.StatusConflict, adjust(`{"delta":44}`))
	assert.Equal(t, uint32(7), store.zones[1].AvailableSlots)

	assert.Equal(t, http.StatusBadRequest, adjust(`{"delta":0}`))

	// Only the successful adjustment published an event.
	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.ActionAvailability, pub.events[0].Action)
}

func TestZoneDelete(t *testing.T) {
	store := newFakeZoneStore()
	require.NoError(t, store.Create(context.Background(), 7, &repository.Zone{
		LocationID: 31, Name: "P1", TotalSlots: 50, AvailableSlots: 50, Lat: 52.52, Lng: 13.405,
	}))
	pub := &fakePublisher{}
	h := NewZoneHandler(store, pub, zap.NewNop())

	c, rec := newTestContext(t, http.MethodDelete, "/v1/owner/zones/1", "", 7)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.ActionDeleted, pub.events[0].Action)

	c, rec = newTestContext(t, http.MethodDelete, "/v1/owner/zones/1", "", 7)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
