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

// fakeOwnerRemover mimics the cascade transaction: the first removal of an
// owner reports their holdings, every later one is a zero-count no-op.
type fakeOwnerRemover struct {
	mu       sync.Mutex
	admins   map[uint64]bool
	holdings map[uint64]repository.CascadeResult
}

func (f *fakeOwnerRemover) RemoveOwner(_ context.Context, actorID, ownerID uint64) (repository.CascadeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.admins[actorID] {
		return repository.CascadeResult{}, repository.ErrForbidden
	}
	res, ok := f.holdings[ownerID]
	if !ok {
		return repository.CascadeResult{}, nil
	}
	delete(f.holdings, ownerID)
	return res, nil
}

// fakePublisher records published events instead of dialing a broker.
type fakePublisher struct {
	mu     sync.Mutex
	events []queue.ZoneChangedEvent
}

func (f *fakePublisher) PublishZoneChanged(_ context.Context, ev queue.ZoneChangedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func TestRemoveOwnerCascade(t *testing.T) {
	remover := &fakeOwnerRemover{
		admins: map[uint64]bool{100: true},
		holdings: map[uint64]repository.CascadeResult{
			7: {LocationsRemoved: 2, ZonesRemoved: 5, LocationIDs: []uint64{31, 32}},
		},
	}
	pub := &fakePublisher{}
	h := NewAdminOwnerHandler(remover, pub, zap.NewNop())

	c, rec := newTestContext(t, http.MethodDelete, "/v1/admin/owners/7", "", 100)
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.RemoveOwner(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"locations_removed":2,"zones_removed":5}`, rec.Body.String())

	// One change event per removed location so the snapshots recompute.
	require.Len(t, pub.events, 2)
	assert.Equal(t, queue.ActionOwnerRemoved, pub.events[0].Action)
	assert.ElementsMatch(t, []uint64{31, 32},
		[]uint64{pub.events[0].LocationID, pub.events[1].LocationID})
}

// Removing an owner who holds nothing, including one already removed, is a
// clean success with zero counts.
func TestRemoveOwnerIdempotent(t *testing.T) {
	remover := &fakeOwnerRemover{
		admins: map[uint64]bool{100: true},
		holdings: map[uint64]repository.CascadeResult{
			7: {LocationsRemoved: 2, ZonesRemoved: 5, LocationIDs: []uint64{31, 32}},
		},
	}
	h := NewAdminOwnerHandler(remover, &fakePublisher{}, zap.NewNop())

	for i, want := range []string{
		`{"locations_removed":2,"zones_removed":5}`,
		`{"locations_removed":0,"zones_removed":0}`,
	} {
		c, rec := newTestContext(t, http.MethodDelete, "/v1/admin/owners/7", "", 100)
		c.SetParamNames("id")
		c.SetParamValues("7")
		require.NoError(t, h.RemoveOwner(c))
		assert.Equal(t, http.StatusOK, rec.Code, "call %d", i)
		assert.JSONEq(t, want, rec.Body.String(), "call %d", i)
	}
}

func TestRemoveOwnerForbidden(t *testing.T) {
	remover := &fakeOwnerRemover{admins: map[uint64]bool{}}
	h := NewAdminOwnerHandler(remover, &fakePublisher{}, zap.NewNop())

	c, rec := newTestContext(t, http.MethodDelete, "/v1/admin/owners/7", "", 55)
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.RemoveOwner(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
