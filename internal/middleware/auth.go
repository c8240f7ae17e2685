package middleware

import (
	"swiftmeet-server/internal/models"
	"swiftmeet-server/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SessionUserKey is the session key holding the authenticated user's id.
const SessionUserKey = "user_id"

const contextUserKey = "currentUser"

// SessionUser resolves the session's opaque user id to a stored user.
// Returns false for anonymous sessions and for stale ids with no user row.
func SessionUser(c *gin.Context, db *gorm.DB) (models.User, bool) {
	raw := sessions.Default(c).Get(SessionUserKey)
	id, ok := raw.(string)
	if !ok || id == "" {
		return models.User{}, false
	}

	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return models.User{}, false
	}
	return user, true
}

// AuthRequired creates a middleware that rejects unauthenticated requests and
// stores the resolved user in the request context for downstream handlers.
func AuthRequired(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := SessionUser(c, db)
		if !ok {
			utils.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

// AdminRequired creates a middleware restricting a route to admin users.
// It should be used *after* AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || user.Role != models.RoleAdmin {
			utils.Forbidden(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user resolved by AuthRequired.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, exists := c.Get(contextUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
