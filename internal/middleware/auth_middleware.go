package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/errors"
	"github.com/wastebill/wastebill-backend/pkg/redis"
	"github.com/wastebill/wastebill-backend/pkg/util"
)

// Context keys for the authenticated subject
const (
	UserIDKey      = "user_id"
	SubjectKey     = "subject"
	UserRoleKey    = "user_role"
	ClaimsKey      = "claims"
	AccessTokenKey = "access_token"
)

// RevocationChecker reports whether a token id has been revoked
type RevocationChecker func(ctx context.Context, jti string) (bool, error)

type AuthMiddleware struct {
	jwtSecret string
	isRevoked RevocationChecker
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		isRevoked: redis.IsTokenBlacklisted,
	}
}

// WithRevocationChecker replaces the redis blacklist lookup
func (m *AuthMiddleware) WithRevocationChecker(fn RevocationChecker) *AuthMiddleware {
	m.isRevoked = fn
	return m
}

// Authenticate validates the bearer access token (or ?token= for websockets)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		var token string
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				log.Warn("Invalid authorization header format", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, errors.MsgTokenInvalid)
				c.Abort()
				return
			}
			token = parts[1]
		} else {
			token = c.Query("token")
			if token == "" {
				log.Warn("Missing authorization header", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.Unauthorized(c, "")
				c.Abort()
				return
			}
		}

		claims, err := util.ValidateTokenOfType(token, m.jwtSecret, util.AccessToken)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			if stderrors.Is(err, util.ErrExpiredToken) {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, errors.MsgTokenExpired)
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, errors.MsgTokenInvalid)
			}
			c.Abort()
			return
		}

		if m.isRevoked != nil {
			revoked, err := m.isRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// blacklist unavailable: accept the signed token
				log.Warn("Token blacklist check failed", map[string]interface{}{
					"error": err.Error(),
				})
			} else if revoked {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenRevoked, errors.MsgTokenRevoked)
				c.Abort()
				return
			}
		}

		c.Set(UserIDKey, claims.SubjectID)
		c.Set(SubjectKey, claims.Subject)
		c.Set(UserRoleKey, claims.Role)
		c.Set(ClaimsKey, claims)
		c.Set(AccessTokenKey, token)

		log.Debug("Request authenticated", map[string]interface{}{
			"subject_id": claims.SubjectID,
			"role":       claims.Role,
		})

		c.Next()
	}
}

// RequireResident allows only resident tokens
func (m *AuthMiddleware) RequireResident() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := GetUserRole(c)
		if role != model.ResidentRole {
			GetLoggerFromContext(c).Warn("Resident route called with non-resident token", map[string]interface{}{
				"role": role,
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzResidentOnly, errors.MsgResidentOnly)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin allows any active back-office role
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := GetUserRole(c)
		if !model.AdminRole(role).Valid() {
			GetLoggerFromContext(c).Warn("Admin route called with non-admin token", map[string]interface{}{
				"role": role,
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzAdminOnly, errors.MsgAdminOnly)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePermission checks the caller's role against Policy
func (m *AuthMiddleware) RequirePermission(perm Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		role, _ := GetUserRole(c)
		if !Allowed(model.AdminRole(role), perm) {
			adminID, _ := GetUserID(c)
			log.Warn("Insufficient permissions", map[string]interface{}{
				"admin_id":   adminID,
				"role":       role,
				"permission": perm,
				"path":       c.Request.URL.Path,
			})
			errors.Forbidden(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID returns the resident or admin id of the caller
func GetUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// GetUserRole returns "resident" or an admin role
func GetUserRole(c *gin.Context) (string, bool) {
	v, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}

// GetClaims returns the parsed token claims
func GetClaims(c *gin.Context) (*util.Claims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*util.Claims)
	return claims, ok
}
