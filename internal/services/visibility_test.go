package services

import (
	"testing"

	"github.com/alnoor-edu/school-ops-service/internal/models"
)

func directoryFixture() []*models.User {
	return []*models.User{
		{ID: "u1", DisplayName: "Amal", Role: models.RoleStaff},
		{ID: "u2", DisplayName: "Hassan", Role: models.RoleMaintenance},
		{ID: "u3", DisplayName: "Layla", Role: models.RoleHR},
		{ID: "u4", DisplayName: "Khalid", Role: models.RoleAdmin},
		{ID: "u5", DisplayName: "Noor", Role: models.RoleStaff},
	}
}

func idsOf(users []*models.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolveVisible(t *testing.T) {
	candidates := directoryFixture()

	t.Run("admin sees everyone in order", func(t *testing.T) {
		got := idsOf(ResolveVisible(models.RoleAdmin, candidates))
		want := []string{"u1", "u2", "u3", "u4", "u5"}
		if !equalIDs(got, want) {
			t.Errorf("admin visibility = %v, want %v", got, want)
		}
	})

	t.Run("hr never sees admin records", func(t *testing.T) {
		got := ResolveVisible(models.RoleHR, candidates)
		for _, u := range got {
			if u.Role == models.RoleAdmin {
				t.Errorf("hr viewer saw admin record %s", u.ID)
			}
		}
		want := []string{"u1", "u2", "u3", "u5"}
		if !equalIDs(idsOf(got), want) {
			t.Errorf("hr visibility = %v, want %v", idsOf(got), want)
		}
	})

	t.Run("maintenance sees staff and maintenance only", func(t *testing.T) {
		got := idsOf(ResolveVisible(models.RoleMaintenance, candidates))
		want := []string{"u1", "u2", "u5"}
		if !equalIDs(got, want) {
			t.Errorf("maintenance visibility = %v, want %v", got, want)
		}
	})

	t.Run("staff sees staff only", func(t *testing.T) {
		got := idsOf(ResolveVisible(models.RoleStaff, candidates))
		want := []string{"u1", "u5"}
		if !equalIDs(got, want) {
			t.Errorf("staff visibility = %v, want %v", got, want)
		}
	})

	t.Run("unknown viewer role sees nothing", func(t *testing.T) {
		got := ResolveVisible(models.UserRole("contractor"), candidates)
		if len(got) != 0 {
			t.Errorf("unknown viewer saw %d records, want 0", len(got))
		}
		if got == nil {
			t.Error("expected empty slice, got nil")
		}
	})

	t.Run("result is a subset of input for every role", func(t *testing.T) {
		index := make(map[string]bool, len(candidates))
		for _, u := range candidates {
			index[u.ID] = true
		}
		for _, role := range []models.UserRole{models.RoleStaff, models.RoleMaintenance, models.RoleHR, models.RoleAdmin} {
			for _, u := range ResolveVisible(role, candidates) {
				if !index[u.ID] {
					t.Errorf("role %s produced record %s not in input", role, u.ID)
				}
			}
		}
	})

	t.Run("admin result is a superset of every other role", func(t *testing.T) {
		adminSet := make(map[string]bool)
		for _, u := range ResolveVisible(models.RoleAdmin, candidates) {
			adminSet[u.ID] = true
		}
		for _, role := range []models.UserRole{models.RoleStaff, models.RoleMaintenance, models.RoleHR} {
			for _, u := range ResolveVisible(role, candidates) {
				if !adminSet[u.ID] {
					t.Errorf("role %s saw %s which admin did not", role, u.ID)
				}
			}
		}
	})

	t.Run("candidate without role defaults to staff", func(t *testing.T) {
		unset := []*models.User{{ID: "u9", DisplayName: "New Hire"}}
		got := ResolveVisible(models.RoleStaff, unset)
		if len(got) != 1 || got[0].ID != "u9" {
			t.Errorf("role-less candidate not visible to staff viewer: %v", idsOf(got))
		}
	})

	t.Run("nil candidates are skipped", func(t *testing.T) {
		withNil := []*models.User{nil, {ID: "u1", Role: models.RoleStaff}, nil}
		got := ResolveVisible(models.RoleAdmin, withNil)
		if len(got) != 1 {
			t.Errorf("expected 1 visible record, got %d", len(got))
		}
	})
}

func TestCanManageStaff(t *testing.T) {
	tests := []struct {
		role models.UserRole
		want bool
	}{
		{models.RoleAdmin, true},
		{models.RoleHR, true},
		{models.RoleMaintenance, false},
		{models.RoleStaff, false},
		{models.UserRole("contractor"), false},
		{models.UserRole(""), false},
	}
	for _, tt := range tests {
		if got := CanManageStaff(tt.role); got != tt.want {
			t.Errorf("CanManageStaff(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

// Visibility grants reads; management is a separate, narrower grant.
func TestVisibilityDoesNotImplyManagement(t *testing.T) {
	candidates := directoryFixture()

	visible := ResolveVisible(models.RoleMaintenance, candidates)
	if len(visible) == 0 {
		t.Fatal("maintenance should see some records")
	}
	if CanManageStaff(models.RoleMaintenance) {
		t.Error("maintenance can see staff records but must not manage them")
	}
}
