package routes

import (
	"errors"
	"net/http"

	"qqueue-app/qqueue/database"
	"qqueue-app/qqueue/middleware"
	"qqueue-app/qqueue/models"
	"qqueue-app/qqueue/services"

	"github.com/gin-gonic/gin"
)

func RegisterUserRoutes(router *gin.Engine, db *database.Database, userService services.UserServiceInterface, profileService services.ProfileServiceInterface, authService services.AuthServiceInterface) {
	// Profile reads admit anonymous viewers; they get recruit messages only.
	public := router.Group("/api/v1", middleware.OptionalAuthMiddleware(authService))
	{
		public.GET("/users", func(c *gin.Context) { GetUsers(c, db, profileService) })
		public.GET("/users/:id", func(c *gin.Context) { GetUserProfile(c, db, profileService) })
	}

	protected := router.Group("/api/v1", middleware.AuthMiddleware(authService))
	{
		protected.PUT("/users/:id", func(c *gin.Context) { UpdateUser(c, db, userService) })
		protected.DELETE("/users/:id", func(c *gin.Context) { DeleteUser(c, db, userService) })
	}
}

func GetUsers(c *gin.Context, db *database.Database, profileService services.ProfileServiceInterface) {
	index, err := profileService.ListUsers(db, middleware.CurrentViewer(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, index)
}

func GetUserProfile(c *gin.Context, db *database.Database, profileService services.ProfileServiceInterface) {
	profile, err := profileService.GetProfile(db, c.Param("id"), middleware.CurrentViewer(c))
	if err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func UpdateUser(c *gin.Context, db *database.Database, userService services.UserServiceInterface) {
	var update models.UserUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := userService.UpdateUser(db, c.Param("id"), middleware.CurrentViewer(c), update)
	if err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func DeleteUser(c *gin.Context, db *database.Database, userService services.UserServiceInterface) {
	if err := userService.DeleteUser(db, c.Param("id"), middleware.CurrentViewer(c)); err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, gin.H{})
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to perform this action"})
	case errors.Is(err, services.ErrEmailExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
	case errors.Is(err, services.ErrUsernameExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
