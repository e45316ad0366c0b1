package services

import (
	"errors"
	"fmt"
	"time"

	"qqueue-app/qqueue/broker"
	"qqueue-app/qqueue/database"
	"qqueue-app/qqueue/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentServiceInterface interface {
	AddComment(db *database.Database, taskID string, viewer models.Viewer, text string) (models.Comment, error)
	ListComments(db *database.Database, taskID string, viewer models.Viewer) ([]models.Comment, error)
}

type CommentService struct{}

func NewCommentService() CommentServiceInterface {
	return &CommentService{}
}

func (s *CommentService) AddComment(db *database.Database, taskID string, viewer models.Viewer, text string) (models.Comment, error) {
	if text == "" {
		return models.Comment{}, fmt.Errorf("%w: comment text is required", ErrValidation)
	}

	tx := db.DB.Begin()
	if tx.Error != nil {
		return models.Comment{}, tx.Error
	}

	task, err := lockTask(tx, taskID)
	if err != nil {
		tx.Rollback()
		return models.Comment{}, err
	}

	if !CanComment(&task, viewer) {
		tx.Rollback()
		return models.Comment{}, ErrForbidden
	}

	comment := models.Comment{
		ID:        uuid.New(),
		TaskID:    task.ID,
		CreatedBy: viewer.UserID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	if err := tx.Create(&comment).Error; err != nil {
		tx.Rollback()
		return models.Comment{}, err
	}

	event, err := models.NewEvent(
		string(broker.CommentAdded),
		"comment",
		viewer.UserID.String(),
		map[string]interface{}{
			"comment_id":   comment.ID.String(),
			"task_id":      task.ID.String(),
			"requested_by": task.RequestedBy.String(),
		},
	)
	if err != nil {
		tx.Rollback()
		return models.Comment{}, err
	}
	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return models.Comment{}, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return models.Comment{}, err
	}

	broker.PublishEvent(event)
	return comment, nil
}

func (s *CommentService) ListComments(db *database.Database, taskID string, viewer models.Viewer) ([]models.Comment, error) {
	var task models.Task
	if err := db.DB.First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if !CanViewDetail(&task, viewer) {
		return nil, ErrTaskHidden
	}

	var comments []models.Comment
	err := db.DB.Where("task_id = ?", task.ID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

var CommentServiceInstance CommentServiceInterface = NewCommentService()
