package casdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/alnoor-edu/school-ops-service/internal/models"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
)

// CasdoorConfig holds the configuration for the Casdoor connection.
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// RetryPolicy bounds the read-after-write polling against the eventually
// consistent directory. Named and injected so tests can tighten it.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy matches the provider's typical propagation delay.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	Delay:       400 * time.Millisecond,
}

// Property keys used to carry the HR profile on the Casdoor user record.
const (
	propStatus      = "status"
	propNationality = "nationality"
	propCPRExpiry   = "cprExpiry"
	propVisaExpiry  = "visaExpiry"
	propIBAN        = "iban"
	propArabicName  = "arabicName"

	expiryDateLayout = "2006-01-02"
)

type UserCasdoor struct {
	client *casdoorsdk.Client
	redis  *redis.Client
	config CasdoorConfig
	retry  RetryPolicy

	cachePrefix string
	cacheTTL    time.Duration
}

func NewUserCasdoor(config CasdoorConfig, redisClient *redis.Client, retry RetryPolicy) repositories.UserRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy
	}

	return &UserCasdoor{
		client:      client,
		redis:       redisClient,
		config:      config,
		retry:       retry,
		cachePrefix: "directory:",
		cacheTTL:    15 * time.Minute,
	}
}

// ===== CACHE METHODS =====

func (u *UserCasdoor) getCacheKey(key string) string {
	return fmt.Sprintf("%s%s", u.cachePrefix, key)
}

func (u *UserCasdoor) getUserFromCache(ctx context.Context, key string) (*models.User, error) {
	if u.redis == nil {
		return nil, nil
	}

	data, err := u.redis.Get(ctx, u.getCacheKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached user: %w", err)
	}

	return &user, nil
}

func (u *UserCasdoor) setUserCache(ctx context.Context, key string, user *models.User) error {
	if u.redis == nil {
		return nil
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user for cache: %w", err)
	}

	return u.redis.Set(ctx, u.getCacheKey(key), data, u.cacheTTL).Err()
}

func (u *UserCasdoor) invalidateUserCache(ctx context.Context, user *models.User) {
	if u.redis == nil || user == nil {
		return
	}
	u.redis.Del(ctx,
		u.getCacheKey(fmt.Sprintf("id:%s", user.ID)),
		u.getCacheKey(fmt.Sprintf("email:%s", user.Email)),
	)
}

// ===== CONVERSION METHODS =====

// convertCasdoorUserToModel maps a Casdoor record onto the console's user
// model. Malformed property values degrade to absent fields.
func (u *UserCasdoor) convertCasdoorUserToModel(casdoorUser *casdoorsdk.User) *models.User {
	if casdoorUser == nil {
		return nil
	}

	var createdAt, updatedAt time.Time
	if casdoorUser.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, casdoorUser.CreatedTime)
	}
	if casdoorUser.UpdatedTime != "" {
		updatedAt, _ = time.Parse(time.RFC3339, casdoorUser.UpdatedTime)
	}

	props := casdoorUser.Properties

	role := models.NormalizeRole(getProperty(props, "role"))
	if casdoorUser.IsAdmin {
		role = models.RoleAdmin
	}

	status := models.UserStatus(getProperty(props, propStatus))
	switch status {
	case models.StatusPending, models.StatusApproved, models.StatusBlocked:
	default:
		status = models.StatusPending
	}

	return &models.User{
		ID:          casdoorUser.Id,
		DisplayName: casdoorUser.DisplayName,
		Email:       casdoorUser.Email,
		Role:        role,
		Status:      status,
		Nationality: getProperty(props, propNationality),
		CPRExpiry:   parseExpiry(getProperty(props, propCPRExpiry)),
		VisaExpiry:  parseExpiry(getProperty(props, propVisaExpiry)),
		IBAN:        getProperty(props, propIBAN),
		ArabicName:  getProperty(props, propArabicName),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// applyModelToCasdoorUser writes the console fields back onto a Casdoor record.
func (u *UserCasdoor) applyModelToCasdoorUser(user *models.User, casdoorUser *casdoorsdk.User) {
	casdoorUser.DisplayName = user.DisplayName
	casdoorUser.Email = user.Email

	if casdoorUser.Properties == nil {
		casdoorUser.Properties = make(map[string]string)
	}
	casdoorUser.Properties["role"] = string(user.EffectiveRole())
	casdoorUser.Properties[propStatus] = string(user.Status)
	casdoorUser.Properties[propNationality] = user.Nationality
	casdoorUser.Properties[propCPRExpiry] = formatExpiry(user.CPRExpiry)
	casdoorUser.Properties[propVisaExpiry] = formatExpiry(user.VisaExpiry)
	casdoorUser.Properties[propIBAN] = user.IBAN
	casdoorUser.Properties[propArabicName] = user.ArabicName
}

func getProperty(props map[string]string, key string) string {
	if props == nil {
		return ""
	}
	return props[key]
}

func parseExpiry(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(expiryDateLayout, value)
	if err != nil {
		return nil
	}
	return &t
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(expiryDateLayout)
}

// ===== READ OPERATIONS =====

func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	cacheKey := fmt.Sprintf("id:%s", id)
	if cachedUser, err := u.getUserFromCache(ctx, cacheKey); err == nil && cachedUser != nil {
		return cachedUser, nil
	}

	casdoorUser, err := u.client.GetUserByUserId(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
	}
	if casdoorUser == nil {
		return nil, fmt.Errorf("%w: id %s", repositories.ErrUserNotFound, id)
	}

	user := u.convertCasdoorUserToModel(casdoorUser)

	u.setUserCache(ctx, cacheKey, user)
	u.setUserCache(ctx, fmt.Sprintf("email:%s", user.Email), user)

	return user, nil
}

func (u *UserCasdoor) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	cacheKey := fmt.Sprintf("email:%s", email)
	if cachedUser, err := u.getUserFromCache(ctx, cacheKey); err == nil && cachedUser != nil {
		return cachedUser, nil
	}

	casdoorUser, err := u.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email from Casdoor: %w", err)
	}
	if casdoorUser == nil {
		return nil, fmt.Errorf("%w: email %s", repositories.ErrUserNotFound, email)
	}

	user := u.convertCasdoorUserToModel(casdoorUser)

	u.setUserCache(ctx, cacheKey, user)
	u.setUserCache(ctx, fmt.Sprintf("id:%s", user.ID), user)

	return user, nil
}

// List retrieves a paginated directory page with an optional query.
func (u *UserCasdoor) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}

	// Casdoor pages are 1-indexed.
	page := (filters.Offset / filters.Limit) + 1
	if page < 1 {
		page = 1
	}

	queryMap := make(map[string]string)
	if filters.Query != "" {
		queryMap["field"] = "email"
		queryMap["value"] = filters.Query
	}

	casdoorUsers, count, err := u.client.GetPaginationUsers(page, filters.Limit, queryMap)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users from Casdoor: %w", err)
	}

	users := make([]*models.User, 0, len(casdoorUsers))
	for _, casdoorUser := range casdoorUsers {
		user := u.convertCasdoorUserToModel(casdoorUser)
		if user != nil {
			users = append(users, user)
			u.setUserCache(ctx, fmt.Sprintf("id:%s", user.ID), user)
		}
	}

	return users, int64(count), nil
}

// ListAll retrieves the full directory, used by the compliance scan which
// needs every record regardless of paging.
func (u *UserCasdoor) ListAll(ctx context.Context) ([]*models.User, error) {
	casdoorUsers, err := u.client.GetUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to list all users from Casdoor: %w", err)
	}

	users := make([]*models.User, 0, len(casdoorUsers))
	for _, casdoorUser := range casdoorUsers {
		if user := u.convertCasdoorUserToModel(casdoorUser); user != nil {
			users = append(users, user)
		}
	}

	return users, nil
}

// ===== WRITE OPERATIONS =====

func (u *UserCasdoor) Create(ctx context.Context, user *models.User) error {
	casdoorUser := &casdoorsdk.User{
		Owner:             u.config.OrganizationName,
		Name:              user.Email,
		Id:                user.ID,
		CreatedTime:       time.Now().UTC().Format(time.RFC3339),
		SignupApplication: u.config.ApplicationName,
	}
	u.applyModelToCasdoorUser(user, casdoorUser)

	ok, err := u.client.AddUser(casdoorUser)
	if err != nil {
		return fmt.Errorf("failed to create user in Casdoor: %w", err)
	}
	if !ok {
		return fmt.Errorf("Casdoor rejected user creation for %s", user.Email)
	}

	return nil
}

func (u *UserCasdoor) Update(ctx context.Context, user *models.User) error {
	casdoorUser, err := u.client.GetUserByUserId(user.ID)
	if err != nil {
		return fmt.Errorf("failed to load user for update: %w", err)
	}
	if casdoorUser == nil {
		return fmt.Errorf("%w: id %s", repositories.ErrUserNotFound, user.ID)
	}

	u.applyModelToCasdoorUser(user, casdoorUser)

	ok, err := u.client.UpdateUser(casdoorUser)
	if err != nil {
		return fmt.Errorf("failed to update user in Casdoor: %w", err)
	}
	if !ok {
		return fmt.Errorf("Casdoor rejected user update for %s", user.ID)
	}

	u.invalidateUserCache(ctx, user)
	return nil
}

// WaitForUser polls until a just-created record becomes readable. The
// provider is eventually consistent, so a bounded retry with a fixed delay
// replaces the unbounded polling loop the old console used. Exhausting the
// policy yields ErrDirectoryTimeout.
func (u *UserCasdoor) WaitForUser(ctx context.Context, id string) (*models.User, error) {
	var lastErr error

	for attempt := 0; attempt < u.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(u.retry.Delay):
			}
		}

		casdoorUser, err := u.client.GetUserByUserId(id)
		if err != nil {
			lastErr = err
			continue
		}
		if casdoorUser != nil {
			return u.convertCasdoorUserToModel(casdoorUser), nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: last error: %v", repositories.ErrDirectoryTimeout, lastErr)
	}
	return nil, repositories.ErrDirectoryTimeout
}
