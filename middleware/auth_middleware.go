package middleware

import (
	"net/http"
	"strings"

	"qqueue-app/qqueue/models"
	"qqueue-app/qqueue/services"

	"github.com/gin-gonic/gin"
)

const viewerKey = "viewer"

// CurrentViewer returns the viewer identity stored by the auth middleware.
// Routes registered without either middleware see an anonymous viewer.
func CurrentViewer(c *gin.Context) models.Viewer {
	if value, exists := c.Get(viewerKey); exists {
		if viewer, ok := value.(models.Viewer); ok {
			return viewer
		}
	}
	return models.AnonymousViewer()
}

// AuthMiddleware rejects requests without a valid Bearer token.
func AuthMiddleware(authService services.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(viewerKey, models.UserViewer(claims.UserID))
		c.Set("username", claims.Username)

		c.Next()
	}
}

// OptionalAuthMiddleware resolves a viewer for endpoints that admit anonymous
// viewers (teaser list, profiles). A missing header means anonymous; a header
// that is present but invalid is still rejected.
func OptionalAuthMiddleware(authService services.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(viewerKey, models.AnonymousViewer())
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(viewerKey, models.UserViewer(claims.UserID))
		c.Set("username", claims.Username)

		c.Next()
	}
}
