package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-zone-service/internal/repository"
)

// ApplicationStore is the slice of the application repository the handlers
// need. *repository.ApplicationRepo implements it.
type ApplicationStore interface {
	Submit(ctx context.Context, userID uint64, contact repository.ApplicationContact) (uint64, error)
	Decide(ctx context.Context, applicationID, reviewerID uint64, approve bool, notes string) (repository.Application, error)
	ListByUser(ctx context.Context, userID uint64) ([]repository.Application, error)
	ListByStatus(ctx context.Context, status string) ([]repository.Application, error)
}

// ApplicationHandler serves the owner application workflow: submission by
// users, review queue and decision by super admins.
type ApplicationHandler struct {
	Store ApplicationStore
}

func NewApplicationHandler(store ApplicationStore) *ApplicationHandler {
	if store == nil {
		panic("nil store passed to NewApplicationHandler")
	}
	return &ApplicationHandler{Store: store}
}

type submitApplicationReq struct {
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	CompanyName  string `json:"company_name"`
}

type decideApplicationReq struct {
	Approve    bool   `json:"approve"`
	AdminNotes string `json:"admin_notes"`
}

// Submit handles POST /v1/owner-applications. A second submission while one
// is still pending is rejected with 409.
func (h *ApplicationHandler) Submit(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req submitApplicationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ContactName == "" || req.ContactPhone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "contact_name and contact_phone required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Store.Submit(ctx, userID, repository.ApplicationContact{
		Name:    req.ContactName,
		Phone:   req.ContactPhone,
		Company: req.CompanyName,
	})
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "status": repository.StatusPending})
}

// ListMine handles GET /v1/owner-applications and returns the caller's own
// applications, newest first.
func (h *ApplicationHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	apps, err := h.Store.ListByUser(ctx, userID)
	if err != nil {
		return writeRepoError(c, err)
	}
	if apps == nil {
		apps = []repository.Application{}
	}
	return c.JSON(http.StatusOK, apps)
}

// ListForReview handles GET /v1/admin/owner-applications?status=pending.
func (h *ApplicationHandler) ListForReview(c echo.Context) error {
	status := c.QueryParam("status")
	switch status {
	case "", repository.StatusPending, repository.StatusApproved, repository.StatusRejected:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	apps, err := h.Store.ListByStatus(ctx, status)
	if err != nil {
		return writeRepoError(c, err)
	}
	if apps == nil {
		apps = []repository.Application{}
	}
	return c.JSON(http.StatusOK, apps)
}

// Decide handles POST /v1/admin/owner-applications/:id/decision. The store
// resolves the application and, on approval, escalates the applicant's role
// in the same transaction. Exactly one of two concurrent decisions on the
// same application succeeds; the loser gets 409.
func (h *ApplicationHandler) Decide(c echo.Context) error {
	reviewerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req decideApplicationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	app, err := h.Store.Decide(ctx, id, reviewerID, req.Approve, req.AdminNotes)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, app)
}
