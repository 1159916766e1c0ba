package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/alnoor-edu/school-ops-service/internal/config"
	"github.com/alnoor-edu/school-ops-service/internal/models"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
)

// CasdoorAuthMiddleware authenticates requests against the Casdoor directory.
type CasdoorAuthMiddleware struct {
	client   *casdoorsdk.Client
	userRepo repositories.UserRepository
	config   config.CasdoorConfig
}

func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, userRepo repositories.UserRepository) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return &CasdoorAuthMiddleware{
		client:   client,
		userRepo: userRepo,
		config:   cfg,
	}
}

// AuthMiddleware validates the bearer token and loads the directory record
// into the request context. Blocked accounts are rejected here, before any
// handler runs.
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "authorization header missing")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := cam.client.ParseJwtToken(tokenParts[1])
		if err != nil {
			abortUnauthorized(c, fmt.Sprintf("invalid token: %v", err))
			return
		}

		user, err := cam.extractUserFromClaims(c.Request.Context(), claims)
		if err != nil {
			abortUnauthorized(c, fmt.Sprintf("failed to resolve user: %v", err))
			return
		}

		if user.Status == models.StatusBlocked {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "forbidden",
				Message: "account is blocked",
			})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_role", user.EffectiveRole())
		c.Set("user_email", user.Email)

		c.Next()
	}
}

// RequireApprovedMiddleware rejects accounts still awaiting approval. Runs
// after AuthMiddleware; pending users keep access to their own profile so
// they can see their signup state.
func (cam *CasdoorAuthMiddleware) RequireApprovedMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUserFromContext(c)
		if !ok || !user.IsApproved() {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "forbidden",
				Message: "account is awaiting approval",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRoleMiddleware checks that the authenticated user carries one of the
// given roles. Admin always passes.
func (cam *CasdoorAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			abortForbidden(c, "user role not found in context")
			return
		}

		role, ok := userRole.(models.UserRole)
		if !ok {
			abortForbidden(c, "invalid user role format")
			return
		}

		hasRequiredRole := false
		for _, requiredRole := range requiredRoles {
			if role == requiredRole || role == models.RoleAdmin {
				hasRequiredRole = true
				break
			}
		}

		if !hasRequiredRole {
			abortForbidden(c, fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles))
			return
		}

		c.Next()
	}
}

// extractUserFromClaims resolves the token subject to a directory record.
// Unlike the token claims, the directory carries the current approval status
// and role, so the directory always wins.
func (cam *CasdoorAuthMiddleware) extractUserFromClaims(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	userID := claims.Id
	if userID == "" {
		return nil, fmt.Errorf("invalid user ID in token")
	}

	user, err := cam.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ===== CONTEXT HELPERS =====

func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get("user")
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

func GetUserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func GetUserRoleFromContext(c *gin.Context) (models.UserRole, bool) {
	v, ok := c.Get("user_role")
	if !ok {
		return "", false
	}
	role, ok := v.(models.UserRole)
	return role, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
	c.Abort()
}

func abortForbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, ErrorResponse{
		Error:   "forbidden",
		Message: message,
	})
	c.Abort()
}
