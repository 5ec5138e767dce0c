package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-zone-service/internal/auth"
)

func TestRequireCapability(t *testing.T) {
	tests := []struct {
		name     string
		role     interface{} // value placed in the context, may be absent
		cap      auth.Capability
		wantCode int
	}{
		{"owner manages own locations", auth.RoleLocationOwner, auth.CapManageOwnLocations, http.StatusOK},
		{"admin manages own locations", auth.RoleSuperAdmin, auth.CapManageOwnLocations, http.StatusOK},
		{"admin reviews applications", auth.RoleSuperAdmin, auth.CapReviewApplications, http.StatusOK},
		{"owner cannot review applications", auth.RoleLocationOwner, auth.CapReviewApplications, http.StatusForbidden},
		{"user cannot manage locations", auth.RoleUser, auth.CapManageOwnLocations, http.StatusForbidden},
		{"owner cannot remove owners", auth.RoleLocationOwner, auth.CapRemoveOwners, http.StatusForbidden},
		{"unknown role denied", auth.Role("root"), auth.CapRemoveOwners, http.StatusForbidden},
		{"missing role denied", nil, auth.CapManageOwnLocations, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.role != nil {
				c.Set(ContextRole, tt.role)
			}

			next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
			require.NoError(t, RequireCapability(tt.cap)(next)(c))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
