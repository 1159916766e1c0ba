package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alnoor-edu/school-ops-service/internal/events"
	"github.com/alnoor-edu/school-ops-service/internal/models"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
	"github.com/alnoor-edu/school-ops-service/internal/validator"
)

// mockUserRepo is an in-memory UserRepository for service tests.
type mockUserRepo struct {
	users map[string]*models.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (m *mockUserRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	users, err := m.ListAll(ctx)
	return users, int64(len(users)), err
}

func (m *mockUserRepo) ListAll(ctx context.Context) ([]*models.User, error) {
	out := make([]*models.User, 0, len(m.users))
	for _, user := range m.users {
		copied := *user
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) WaitForUser(ctx context.Context, id string) (*models.User, error) {
	return m.GetByID(ctx, id)
}

// mockStaffRepository satisfies the aggregate with only the user store wired.
type mockStaffRepository struct {
	users *mockUserRepo
}

func (m *mockStaffRepository) Ticket() repositories.TicketRepository     { return nil }
func (m *mockStaffRepository) Schedule() repositories.ScheduleRepository { return nil }
func (m *mockStaffRepository) Leave() repositories.LeaveRepository       { return nil }
func (m *mockStaffRepository) User() repositories.UserRepository         { return m.users }
func (m *mockStaffRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockStaffRepository) Ping(ctx context.Context) error { return nil }
func (m *mockStaffRepository) Close() error                   { return nil }

func newStaffServiceForTest(t *testing.T, superAdminEmail string) (StaffService, *mockUserRepo) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := events.NewMockEventPublisher(logger)
	users := newMockUserRepo()
	service := NewStaffService(&mockStaffRepository{users: users}, publisher, logger, validator.New(), superAdminEmail)
	return service, users
}

func seedDirectoryUser(users *mockUserRepo, id string, role models.UserRole) *models.User {
	user := &models.User{
		ID:          id,
		Email:       id + "@school.bh",
		DisplayName: "User " + id,
		Role:        role,
		Status:      models.StatusApproved,
		Nationality: "Bahraini",
		CPRExpiry:   datePtr(time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)),
		VisaExpiry:  datePtr(time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)),
		IBAN:        "BH67BMAG00001299123456",
		ArabicName:  "أمل",
	}
	users.users[id] = user
	return user
}

func TestStaffService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("new accounts come up pending with the staff role", func(t *testing.T) {
		service, _ := newStaffServiceForTest(t, "principal@school.bh")

		user, err := service.Register(ctx, &RegisterStaffRequest{
			Email:       "Amal@School.bh",
			DisplayName: "Amal",
		})
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if user.ID == "" {
			t.Error("registered account must carry a generated ID")
		}
		if user.Email != "amal@school.bh" {
			t.Errorf("email = %s, want lowercased amal@school.bh", user.Email)
		}
		if user.Role != models.RoleStaff || user.Status != models.StatusPending {
			t.Errorf("role/status = %s/%s, want staff/pending", user.Role, user.Status)
		}
	})

	t.Run("super admin email bootstraps approved admin", func(t *testing.T) {
		service, _ := newStaffServiceForTest(t, "principal@school.bh")

		user, err := service.Register(ctx, &RegisterStaffRequest{
			Email:       "principal@school.bh",
			DisplayName: "Principal",
		})
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if user.Role != models.RoleAdmin || user.Status != models.StatusApproved {
			t.Errorf("role/status = %s/%s, want admin/approved", user.Role, user.Status)
		}
	})

	t.Run("duplicate email is refused", func(t *testing.T) {
		service, users := newStaffServiceForTest(t, "")
		seedDirectoryUser(users, "u1", models.RoleStaff)

		_, err := service.Register(ctx, &RegisterStaffRequest{
			Email:       "u1@school.bh",
			DisplayName: "Duplicate",
		})
		if !errors.Is(err, ErrEmailTaken) {
			t.Errorf("Register() error = %v, want ErrEmailTaken", err)
		}
	})
}

func TestStaffService_GetVisible(t *testing.T) {
	ctx := context.Background()
	service, users := newStaffServiceForTest(t, "")
	seedDirectoryUser(users, "staff-1", models.RoleStaff)
	seedDirectoryUser(users, "staff-2", models.RoleStaff)
	seedDirectoryUser(users, "hr-1", models.RoleHR)
	seedDirectoryUser(users, "admin-1", models.RoleAdmin)

	t.Run("self read returns the full record", func(t *testing.T) {
		user, err := service.GetVisible(ctx, "staff-1", "staff-1", models.RoleStaff)
		if err != nil {
			t.Fatalf("GetVisible() error = %v", err)
		}
		if user.IBAN == "" || user.CPRExpiry == nil || user.VisaExpiry == nil {
			t.Error("self read must keep the document fields")
		}
	})

	t.Run("staff reading a colleague gets documents withheld", func(t *testing.T) {
		user, err := service.GetVisible(ctx, "staff-2", "staff-1", models.RoleStaff)
		if err != nil {
			t.Fatalf("GetVisible() error = %v", err)
		}
		if user.IBAN != "" || user.CPRExpiry != nil || user.VisaExpiry != nil {
			t.Errorf("document fields leaked to a staff viewer: iban=%q cpr=%v visa=%v", user.IBAN, user.CPRExpiry, user.VisaExpiry)
		}
		if user.DisplayName != "User staff-2" {
			t.Errorf("display name = %s, want User staff-2", user.DisplayName)
		}
	})

	t.Run("staff reading an admin reads as not found", func(t *testing.T) {
		if _, err := service.GetVisible(ctx, "admin-1", "staff-1", models.RoleStaff); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetVisible(admin by staff) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("hr reading an admin reads as not found", func(t *testing.T) {
		if _, err := service.GetVisible(ctx, "admin-1", "hr-1", models.RoleHR); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetVisible(admin by hr) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("hr reading staff keeps the documents", func(t *testing.T) {
		user, err := service.GetVisible(ctx, "staff-1", "hr-1", models.RoleHR)
		if err != nil {
			t.Fatalf("GetVisible() error = %v", err)
		}
		if user.IBAN == "" || user.CPRExpiry == nil {
			t.Error("hr viewer must keep the document fields")
		}
	})

	t.Run("maintenance sees the record but not the documents", func(t *testing.T) {
		seedDirectoryUser(users, "maint-1", models.RoleMaintenance)

		user, err := service.GetVisible(ctx, "staff-1", "maint-1", models.RoleMaintenance)
		if err != nil {
			t.Fatalf("GetVisible() error = %v", err)
		}
		if user.IBAN != "" || user.VisaExpiry != nil {
			t.Error("document fields leaked to a maintenance viewer")
		}
	})

	t.Run("unknown viewer role reads as not found", func(t *testing.T) {
		if _, err := service.GetVisible(ctx, "staff-1", "x-1", models.UserRole("intern")); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetVisible(unknown role) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("missing record reads as not found", func(t *testing.T) {
		if _, err := service.GetVisible(ctx, "ghost", "admin-1", models.RoleAdmin); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetVisible(missing) error = %v, want ErrNotFound", err)
		}
	})
}
