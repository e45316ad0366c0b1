package routes

import (
	"net/http"

	"qqueue-app/qqueue/services"
	"qqueue-app/qqueue/utils/token"

	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes wires the event stream endpoint. The token comes
// from the query string because browsers cannot set headers on websocket
// upgrades.
func RegisterWebSocketRoutes(router *gin.Engine, ws services.WebSocketServiceInterface, jwtSecret string) {
	router.GET("/ws", func(c *gin.Context) {
		claims, err := token.ExtractAndValidateToken(c, []byte(jwtSecret))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		ws.HandleConnection(c, claims.UserID)
	})
}
