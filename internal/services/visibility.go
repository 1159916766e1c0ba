package services

import (
	"github.com/alnoor-edu/school-ops-service/internal/models"
)

// visibleRoles is the fixed visibility matrix: which candidate roles each
// viewer role may see in the staff list. Unknown viewer roles have no entry
// and therefore see nothing (fail closed).
var visibleRoles = map[models.UserRole]map[models.UserRole]bool{
	models.RoleAdmin: {
		models.RoleStaff:       true,
		models.RoleMaintenance: true,
		models.RoleHR:          true,
		models.RoleAdmin:       true,
	},
	models.RoleHR: {
		models.RoleStaff:       true,
		models.RoleMaintenance: true,
		models.RoleHR:          true,
	},
	models.RoleMaintenance: {
		models.RoleStaff:       true,
		models.RoleMaintenance: true,
	},
	models.RoleStaff: {
		models.RoleStaff: true,
	},
}

// ResolveVisible returns the sub-sequence of candidates the viewer may see,
// preserving input order. Candidate roles default to staff when unset. An
// unrecognized viewer role yields an empty result.
func ResolveVisible(viewerRole models.UserRole, candidates []*models.User) []*models.User {
	allowed, ok := visibleRoles[viewerRole]
	if !ok {
		return []*models.User{}
	}

	visible := make([]*models.User, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}
		if allowed[candidate.EffectiveRole()] {
			visible = append(visible, candidate)
		}
	}

	return visible
}

// CanViewRole reports whether the viewer role may see records of the target
// role. Same matrix as ResolveVisible, for single-record reads.
func CanViewRole(viewerRole, targetRole models.UserRole) bool {
	return visibleRoles[viewerRole][targetRole]
}

// CanManageStaff reports whether the role gets management actions (mutations,
// document access) on staff records. Deliberately independent of visibility:
// a maintenance viewer can see a record without ever being able to manage it.
func CanManageStaff(role models.UserRole) bool {
	return role == models.RoleAdmin || role == models.RoleHR
}
