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

const taskIndexPath = "/api/v1/tasks"

func RegisterTaskRoutes(router *gin.Engine, db *database.Database, taskService services.TaskServiceInterface, commentService services.CommentServiceInterface, authService services.AuthServiceInterface) {
	// Read endpoints admit anonymous viewers (teaser list, masked detail).
	public := router.Group("/api/v1", middleware.OptionalAuthMiddleware(authService))
	{
		public.GET("/tasks", func(c *gin.Context) { GetTasks(c, db, taskService) })
		public.GET("/tasks/:id", func(c *gin.Context) { GetTaskById(c, db, taskService) })
		public.GET("/tasks/:id/comments", func(c *gin.Context) { GetTaskComments(c, db, commentService) })
	}

	protected := router.Group("/api/v1", middleware.AuthMiddleware(authService))
	{
		protected.POST("/tasks", func(c *gin.Context) { CreateTask(c, db, taskService) })
		protected.PUT("/tasks/:id", func(c *gin.Context) { UpdateTask(c, db, taskService) })
		protected.DELETE("/tasks/:id", func(c *gin.Context) { DeleteTask(c, db, taskService) })

		// One named endpoint per lifecycle transition.
		protected.POST("/tasks/:id/accept", transitionHandler(db, taskService.AcceptTask))
		protected.POST("/tasks/:id/release", transitionHandler(db, taskService.ReleaseTask))
		protected.POST("/tasks/:id/complete", transitionHandler(db, taskService.CompleteTask))
		protected.POST("/tasks/:id/approve", transitionHandler(db, taskService.ApproveTask))
		protected.POST("/tasks/:id/reject", transitionHandler(db, taskService.RejectTask))

		protected.POST("/tasks/:id/comments", func(c *gin.Context) { AddTaskComment(c, db, commentService) })
	}
}

func CreateTask(c *gin.Context, db *database.Database, taskService services.TaskServiceInterface) {
	var input models.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := taskService.CreateTask(db, middleware.CurrentViewer(c), input)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func GetTaskById(c *gin.Context, db *database.Database, taskService services.TaskServiceInterface) {
	view, err := taskService.GetTask(db, c.Param("id"), middleware.CurrentViewer(c))
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func GetTasks(c *gin.Context, db *database.Database, taskService services.TaskServiceInterface) {
	list, err := taskService.ListTasks(db, middleware.CurrentViewer(c))
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func UpdateTask(c *gin.Context, db *database.Database, taskService services.TaskServiceInterface) {
	var update models.TaskUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := taskService.UpdateTask(db, c.Param("id"), middleware.CurrentViewer(c), update)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func DeleteTask(c *gin.Context, db *database.Database, taskService services.TaskServiceInterface) {
	if err := taskService.DeleteTask(db, c.Param("id"), middleware.CurrentViewer(c)); err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, gin.H{})
}

func transitionHandler(db *database.Database, apply func(*database.Database, string, models.Viewer) (models.Task, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := apply(db, c.Param("id"), middleware.CurrentViewer(c))
		if err != nil {
			respondTaskError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

func AddTaskComment(c *gin.Context, db *database.Database, commentService services.CommentServiceInterface) {
	var request struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := commentService.AddComment(db, c.Param("id"), middleware.CurrentViewer(c), request.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func GetTaskComments(c *gin.Context, db *database.Database, commentService services.CommentServiceInterface) {
	comments, err := commentService.ListComments(db, c.Param("id"), middleware.CurrentViewer(c))
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// respondTaskError maps service errors to responses. Hidden tasks redirect
// to the listing instead of returning an error status: non-parties must not
// be able to distinguish a claimed task from one they simply cannot see.
func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, services.ErrTaskHidden):
		c.Redirect(http.StatusFound, taskIndexPath)
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to perform this action"})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
