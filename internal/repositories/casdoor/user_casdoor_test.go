package casdoor

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/alnoor-edu/school-ops-service/internal/models"
)

func newCachedRepoForTest(t *testing.T) *UserCasdoor {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return &UserCasdoor{
		redis:       client,
		retry:       DefaultRetryPolicy,
		cachePrefix: "directory:",
		cacheTTL:    15 * time.Minute,
	}
}

func TestConvertCasdoorUserToModel(t *testing.T) {
	repo := &UserCasdoor{}

	t.Run("full record maps cleanly", func(t *testing.T) {
		user := repo.convertCasdoorUserToModel(&casdoorsdk.User{
			Id:          "u-1",
			DisplayName: "Amal Ahmed",
			Email:       "amal@alnoor.edu.bh",
			Properties: map[string]string{
				"role":        "hr",
				"status":      "approved",
				"nationality": "Bahraini",
				"cprExpiry":   "2027-06-30",
				"iban":        "BH67BMAG00001299123456",
				"arabicName":  "أمل أحمد",
			},
		})

		if user.Role != models.RoleHR {
			t.Errorf("role = %s, want hr", user.Role)
		}
		if user.Status != models.StatusApproved {
			t.Errorf("status = %s, want approved", user.Status)
		}
		if user.CPRExpiry == nil || user.CPRExpiry.Format("2006-01-02") != "2027-06-30" {
			t.Errorf("cpr expiry = %v", user.CPRExpiry)
		}
		if user.ArabicName != "أمل أحمد" {
			t.Errorf("arabic name = %q", user.ArabicName)
		}
	})

	t.Run("provider admin flag wins over role property", func(t *testing.T) {
		user := repo.convertCasdoorUserToModel(&casdoorsdk.User{
			Id:         "u-2",
			IsAdmin:    true,
			Properties: map[string]string{"role": "staff"},
		})
		if user.Role != models.RoleAdmin {
			t.Errorf("role = %s, want admin", user.Role)
		}
	})

	t.Run("unknown role defaults to staff", func(t *testing.T) {
		user := repo.convertCasdoorUserToModel(&casdoorsdk.User{
			Id:         "u-3",
			Properties: map[string]string{"role": "janitor"},
		})
		if user.Role != models.RoleStaff {
			t.Errorf("role = %s, want staff", user.Role)
		}
	})

	t.Run("unknown status degrades to pending", func(t *testing.T) {
		user := repo.convertCasdoorUserToModel(&casdoorsdk.User{
			Id:         "u-4",
			Properties: map[string]string{"status": "active"},
		})
		if user.Status != models.StatusPending {
			t.Errorf("status = %s, want pending", user.Status)
		}
	})

	t.Run("malformed expiry dates become absent not errors", func(t *testing.T) {
		user := repo.convertCasdoorUserToModel(&casdoorsdk.User{
			Id: "u-5",
			Properties: map[string]string{
				"cprExpiry":  "30/06/2027",
				"visaExpiry": "not-a-date",
			},
		})
		if user.CPRExpiry != nil || user.VisaExpiry != nil {
			t.Errorf("malformed dates must map to nil, got %v / %v", user.CPRExpiry, user.VisaExpiry)
		}
	})

	t.Run("record without properties still maps", func(t *testing.T) {
		user := repo.convertCasdoorUserToModel(&casdoorsdk.User{Id: "u-6", Email: "x@y.bh"})
		if user.Status != models.StatusPending || user.Role != models.RoleStaff {
			t.Errorf("defaults wrong: role=%s status=%s", user.Role, user.Status)
		}
	})

	t.Run("nil record maps to nil", func(t *testing.T) {
		if repo.convertCasdoorUserToModel(nil) != nil {
			t.Error("nil input must map to nil")
		}
	})
}

func TestApplyModelToCasdoorUser(t *testing.T) {
	repo := &UserCasdoor{}
	expiry := time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)

	model := &models.User{
		ID:          "u-1",
		DisplayName: "Amal Ahmed",
		Email:       "amal@alnoor.edu.bh",
		Role:        models.RoleHR,
		Status:      models.StatusApproved,
		Nationality: "Bahraini",
		CPRExpiry:   &expiry,
		IBAN:        "BH67BMAG00001299123456",
		ArabicName:  "أمل أحمد",
	}

	casdoorUser := &casdoorsdk.User{}
	repo.applyModelToCasdoorUser(model, casdoorUser)

	if casdoorUser.Properties["role"] != "hr" {
		t.Errorf("role property = %q", casdoorUser.Properties["role"])
	}
	if casdoorUser.Properties["cprExpiry"] != "2027-06-30" {
		t.Errorf("cprExpiry property = %q", casdoorUser.Properties["cprExpiry"])
	}
	if casdoorUser.Properties["visaExpiry"] != "" {
		t.Errorf("absent visa must write empty, got %q", casdoorUser.Properties["visaExpiry"])
	}

	// Round trip back through the read mapping.
	back := repo.convertCasdoorUserToModel(casdoorUser)
	if back.Role != model.Role || back.Status != model.Status || back.IBAN != model.IBAN {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestUserCacheRoundTrip(t *testing.T) {
	repo := newCachedRepoForTest(t)
	ctx := context.Background()

	user := &models.User{
		ID:          "u-1",
		Email:       "amal@alnoor.edu.bh",
		DisplayName: "Amal Ahmed",
		Role:        models.RoleHR,
		Status:      models.StatusApproved,
	}

	if err := repo.setUserCache(ctx, "id:u-1", user); err != nil {
		t.Fatalf("setUserCache() error = %v", err)
	}

	cached, err := repo.getUserFromCache(ctx, "id:u-1")
	if err != nil {
		t.Fatalf("getUserFromCache() error = %v", err)
	}
	if cached == nil || cached.ID != "u-1" || cached.Role != models.RoleHR {
		t.Errorf("cached user = %+v", cached)
	}

	t.Run("invalidation clears both keys", func(t *testing.T) {
		if err := repo.setUserCache(ctx, "email:amal@alnoor.edu.bh", user); err != nil {
			t.Fatalf("setUserCache() error = %v", err)
		}

		repo.invalidateUserCache(ctx, user)

		for _, key := range []string{"id:u-1", "email:amal@alnoor.edu.bh"} {
			got, err := repo.getUserFromCache(ctx, key)
			if err != nil || got != nil {
				t.Errorf("key %s should be gone, got %+v err %v", key, got, err)
			}
		}
	})

	t.Run("cache miss is a nil user not an error", func(t *testing.T) {
		got, err := repo.getUserFromCache(ctx, "id:absent")
		if err != nil || got != nil {
			t.Errorf("miss = %+v, %v; want nil, nil", got, err)
		}
	})
}

// Without Redis the directory reads fall through to the provider.
func TestUserCacheDisabled(t *testing.T) {
	repo := &UserCasdoor{}
	ctx := context.Background()

	got, err := repo.getUserFromCache(ctx, "id:u-1")
	if err != nil || got != nil {
		t.Errorf("nil-redis cache read = %+v, %v; want nil, nil", got, err)
	}
	if err := repo.setUserCache(ctx, "id:u-1", &models.User{ID: "u-1"}); err != nil {
		t.Errorf("nil-redis cache write error = %v", err)
	}
}
