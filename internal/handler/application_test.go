package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-zone-service/internal/middleware"
	"github.com/iliyamo/parking-zone-service/internal/repository"
)

// fakeApplicationStore reproduces the storage-level guarantees in memory:
// at most one pending application per user, a decision that only lands on a
// row still in status 'pending', and a reviewer role check.
type fakeApplicationStore struct {
	mu     sync.Mutex
	nextID uint64
	apps   map[uint64]*repository.Application
	admins map[uint64]bool
}

func newFakeApplicationStore(adminIDs ...uint64) *fakeApplicationStore {
	admins := make(map[uint64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &fakeApplicationStore{nextID: 1, apps: map[uint64]*repository.Application{}, admins: admins}
}

func (s *fakeApplicationStore) Submit(_ context.Context, userID uint64, contact repository.ApplicationContact) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.apps {
		if a.UserID == userID && a.Status == repository.StatusPending {
			return 0, repository.ErrDuplicateApplication
		}
	}
	id := s.nextID
	s.nextID++
	s.apps[id] = &repository.Application{
		ID:           id,
		UserID:       userID,
		Status:       repository.StatusPending,
		ContactName:  contact.Name,
		ContactPhone: contact.Phone,
		CompanyName:  contact.Company,
	}
	return id, nil
}

func (s *fakeApplicationStore) Decide(_ context.Context, applicationID, reviewerID uint64, approve bool, notes string) (repository.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.admins[reviewerID] {
		return repository.Application{}, repository.ErrForbidden
	}
	a, ok := s.apps[applicationID]
	if !ok {
		return repository.Application{}, repository.ErrApplicationNotFound
	}
	if a.Status != repository.StatusPending {
		return repository.Application{}, repository.ErrAlreadyProcessed
	}
	if approve {
		a.Status = repository.StatusApproved
	} else {
		a.Status = repository.StatusRejected
	}
	a.ReviewedBy = &reviewerID
	a.AdminNotes = &notes
	return *a, nil
}

func (s *fakeApplicationStore) ListByUser(_ context.Context, userID uint64) ([]repository.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.Application
	for _, a := range s.apps {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeApplicationStore) ListByStatus(_ context.Context, status string) ([]repository.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.Application
	for _, a := range s.apps {
		if status == "" || a.Status == status {
			out = append(out, *a)
		}
	}
	return out, nil
}

// newTestContext builds an Echo context carrying an authenticated user id,
// the way JWTAuth would have left it.
func newTestContext(t *testing.T, method, path, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID > 0 {
		c.Set(middleware.ContextUserID, userID)
	}
	return c, rec
}

func TestApplicationSubmit(t *testing.T) {
	store := newFakeApplicationStore()
	h := NewApplicationHandler(store)

	c, rec := newTestContext(t, http.MethodPost, "/v1/owner-applications",
		`{"contact_name":"Ada","contact_phone":"+49123","company_name":"Park GmbH"}`, 7)
	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	// A second submission while the first is still pending conflicts.
	c, rec = newTestContext(t, http.MethodPost, "/v1/owner-applications",
		`{"contact_name":"Ada","contact_phone":"+49123"}`, 7)
	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Missing contact details never reach the store.
	c, rec = newTestContext(t, http.MethodPost, "/v1/owner-applications",
		`{"contact_name":"Ada"}`, 8)
	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	apps, _ := store.ListByUser(context.Background(), 8)
	assert.Empty(t, apps)
}

func TestApplicationSubmitUnauthenticated(t *testing.T) {
	h := NewApplicationHandler(newFakeApplicationStore())
	c, rec := newTestContext(t, http.MethodPost, "/v1/owner-applications",
		`{"contact_name":"Ada","contact_phone":"+49123"}`, 0)
	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// Two admins decide the same application at once. Exactly one decision
// lands; the other gets a conflict and the stored status never flips twice.
func TestApplicationDecideConcurrent(t *testing.T) {
	store := newFakeApplicationStore(100, 101)
	h := NewApplicationHandler(store)

	id, err := store.Submit(context.Background(), 7, repository.ApplicationContact{Name: "Ada", Phone: "+49123"})
	require.NoError(t, err)

	decide := func(reviewerID uint64, body string) int {
		c, rec := newTestContext(t, http.MethodPost, "/", body, reviewerID)
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatUint(id, 10))
		assert.NoError(t, h.Decide(c))
		return rec.Code
	}

	codes := make(chan int, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); codes <- decide(100, `{"approve":true}`) }()
	go func() { defer wg.Done(); codes <- decide(101, `{"approve":false,"admin_notes":"no"}`) }()
	wg.Wait()
	close(codes)

	var ok, conflict int
	for code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		}
	}
	assert.Equal(t, 1, ok, "exactly one decision succeeds")
	assert.Equal(t, 1, conflict, "the losing decision conflicts")

	app := store.apps[id]
	assert.Contains(t, []string{repository.StatusApproved, repository.StatusRejected}, app.Status)
}

// The reviewer check lives in the store itself, so a caller that slipped
// past the route guard with a forged role claim still gets 403 and the
// application stays pending.
func TestApplicationDecideForbidden(t *testing.T) {
	store := newFakeApplicationStore(100)
	h := NewApplicationHandler(store)

	id, err := store.Submit(context.Background(), 7, repository.ApplicationContact{Name: "Ada", Phone: "+49123"})
	require.NoError(t, err)

	c, rec := newTestContext(t, http.MethodPost, "/", `{"approve":true}`, 55)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(id, 10))
	require.NoError(t, h.Decide(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, repository.StatusPending, store.apps[id].Status)
}

func TestApplicationListForReview(t *testing.T) {
	store := newFakeApplicationStore()
	h := NewApplicationHandler(store)
	_, err := store.Submit(context.Background(), 7, repository.ApplicationContact{Name: "Ada", Phone: "+49123"})
	require.NoError(t, err)

	c, rec := newTestContext(t, http.MethodGet, "/v1/admin/owner-applications?status=pending", "", 100)
	require.NoError(t, h.ListForReview(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)

	c, rec = newTestContext(t, http.MethodGet, "/v1/admin/owner-applications?status=bogus", "", 100)
	require.NoError(t, h.ListForReview(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
