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

type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserServiceInterface interface {
	Register(db *database.Database, input RegisterInput) (models.User, error)
	GetUserById(db *database.Database, id string) (models.User, error)
	UpdateUser(db *database.Database, id string, viewer models.Viewer, update models.UserUpdate) (models.User, error)
	DeleteUser(db *database.Database, id string, viewer models.Viewer) error
}

type UserService struct {
	auth AuthServiceInterface
}

func NewUserService(auth AuthServiceInterface) UserServiceInterface {
	return &UserService{auth: auth}
}

func (s *UserService) Register(db *database.Database, input RegisterInput) (models.User, error) {
	if input.Email == "" || input.Username == "" || input.Password == "" {
		return models.User{}, fmt.Errorf("%w: email, username and password are required", ErrValidation)
	}
	if len(input.Email) > 64 || len(input.Username) > 32 || len(input.Password) > 128 {
		return models.User{}, fmt.Errorf("%w: field too long", ErrValidation)
	}

	hash, err := s.auth.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	tx := db.DB.Begin()
	if tx.Error != nil {
		return models.User{}, tx.Error
	}

	if err := checkUniqueness(tx, input.Email, input.Username, uuid.Nil); err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	user := models.User{
		ID:           uuid.New(),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	event, err := newUserEvent(broker.UserRegistered, &user)
	if err != nil {
		tx.Rollback()
		return models.User{}, err
	}
	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	broker.PublishEvent(event)
	return user, nil
}

func (s *UserService) GetUserById(db *database.Database, id string) (models.User, error) {
	var user models.User
	if err := db.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) UpdateUser(db *database.Database, id string, viewer models.Viewer, update models.UserUpdate) (models.User, error) {
	tx := db.DB.Begin()
	if tx.Error != nil {
		return models.User{}, tx.Error
	}

	var user models.User
	if err := tx.First(&user, "id = ?", id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	// Profiles are self-service only.
	if !viewer.Is(user.ID) {
		tx.Rollback()
		return models.User{}, ErrForbidden
	}

	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.Headline != nil {
		user.Headline = *update.Headline
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if update.Password != nil {
		hash, err := s.auth.HashPassword(*update.Password)
		if err != nil {
			tx.Rollback()
			return models.User{}, err
		}
		user.PasswordHash = hash
	}

	if user.Email == "" || user.Username == "" {
		tx.Rollback()
		return models.User{}, fmt.Errorf("%w: email and username are required", ErrValidation)
	}

	if err := checkUniqueness(tx, user.Email, user.Username, user.ID); err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	if err := tx.Save(&user).Error; err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	event, err := newUserEvent(broker.UserUpdated, &user)
	if err != nil {
		tx.Rollback()
		return models.User{}, err
	}
	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	broker.PublishEvent(event)
	return user, nil
}

// DeleteUser removes a user with an explicit cascade: tasks they requested
// (and those tasks' comments) and comments they authored are deleted; tasks
// they merely accepted are not deleted — in-flight ones are released back to
// open, approved ones are kept as historical record.
func (s *UserService) DeleteUser(db *database.Database, id string, viewer models.Viewer) error {
	tx := db.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var user models.User
	if err := tx.First(&user, "id = ?", id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !viewer.Is(user.ID) {
		tx.Rollback()
		return ErrForbidden
	}

	// Comments on tasks the user requested.
	err := tx.Where("task_id IN (?)",
		tx.Session(&gorm.Session{NewDB: true}).Model(&models.Task{}).Select("id").Where("requested_by = ?", user.ID),
	).Delete(&models.Comment{}).Error
	if err != nil {
		tx.Rollback()
		return err
	}

	// Comments the user authored anywhere else.
	if err := tx.Where("created_by = ?", user.ID).Delete(&models.Comment{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	// Tasks the user requested.
	if err := tx.Where("requested_by = ?", user.ID).Delete(&models.Task{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	// Release in-flight tasks the user accepted.
	err = tx.Model(&models.Task{}).
		Where("accepted_by = ? AND approved_at IS NULL", user.ID).
		Updates(map[string]interface{}{
			"accepted_by":  nil,
			"accepted_at":  nil,
			"completed_at": nil,
		}).Error
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Delete(&user).Error; err != nil {
		tx.Rollback()
		return err
	}

	event, err := newUserEvent(broker.UserDeleted, &user)
	if err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return err
	}

	broker.PublishEvent(event)
	return nil
}

func checkUniqueness(tx *gorm.DB, email, username string, selfID uuid.UUID) error {
	var count int64
	err := tx.Model(&models.User{}).
		Where("email = ? AND id <> ?", email, selfID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailExists
	}

	err = tx.Model(&models.User{}).
		Where("username = ? AND id <> ?", username, selfID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrUsernameExists
	}
	return nil
}

func newUserEvent(eventType broker.EventType, user *models.User) (*models.Event, error) {
	return models.NewEvent(
		string(eventType),
		"user",
		user.ID.String(),
		map[string]interface{}{
			"user_id":  user.ID.String(),
			"username": user.Username,
		},
	)
}

var UserServiceInstance UserServiceInterface
