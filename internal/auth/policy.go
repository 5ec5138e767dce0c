// Package auth defines the three roles recognised by the service and the
// capability policy evaluated against them. The policy is pure: route
// guards use it for early rejection, and the repositories re-evaluate it
// against the profiles table before every mutation, so a client that skips
// the HTTP guard still cannot act beyond its stored role.
package auth

// Role is the sole authorization signal in the system. It lives on the
// profile row and is copied into the JWT role claim at login.
type Role string

const (
	RoleUser          Role = "user"
	RoleLocationOwner Role = "location_owner"
	RoleSuperAdmin    Role = "super_admin"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleLocationOwner, RoleSuperAdmin:
		return true
	}
	return false
}

// Capability names an operation class a role may be granted.
type Capability string

const (
	// CapViewMap covers the public read surface: locations, zones and
	// availability statistics.
	CapViewMap Capability = "view_map"
	// CapManageOwnLocations covers create/update/delete of locations and
	// zones the actor owns.
	CapManageOwnLocations Capability = "manage_own_locations"
	// CapManageAllLocations covers mutations on any location regardless
	// of owner.
	CapManageAllLocations Capability = "manage_all_locations"
	// CapReviewApplications covers listing and deciding owner applications.
	CapReviewApplications Capability = "review_applications"
	// CapRemoveOwners covers the ownership cascade removal.
	CapRemoveOwners Capability = "remove_owners"
)

// Can reports whether role grants cap. It has no side effects and unknown
// roles or capabilities are always denied.
func Can(role Role, cap Capability) bool {
	switch cap {
	case CapViewMap:
		return role.Valid()
	case CapManageOwnLocations:
		return role == RoleLocationOwner || role == RoleSuperAdmin
	case CapManageAllLocations, CapReviewApplications, CapRemoveOwners:
		return role == RoleSuperAdmin
	}
	return false
}
