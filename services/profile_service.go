package services

import (
	"errors"
	"fmt"

	"qqueue-app/qqueue/database"
	"qqueue-app/qqueue/models"

	"gorm.io/gorm"
)

type ProfileServiceInterface interface {
	GetProfile(db *database.Database, targetID string, viewer models.Viewer) (models.Profile, error)
	ListUsers(db *database.Database, viewer models.Viewer) (models.UserIndex, error)
}

type ProfileService struct{}

func NewProfileService() ProfileServiceInterface {
	return &ProfileService{}
}

// GetProfile assembles the per-user view. Anonymous viewers get one of four
// recruit messages and no task content; authenticated viewers get the
// target's open requests and in-flight tasks, filtered by the same
// visibility rules as everywhere else.
func (s *ProfileService) GetProfile(db *database.Database, targetID string, viewer models.Viewer) (models.Profile, error) {
	var target models.User
	if err := db.DB.First(&target, "id = ?", targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Profile{}, ErrUserNotFound
		}
		return models.Profile{}, err
	}

	if viewer.Anonymous {
		message, err := recruitMessage(db, &target)
		if err != nil {
			return models.Profile{}, err
		}
		return models.Profile{RecruitMessage: message}, nil
	}

	profile := models.Profile{
		ID:       target.ID,
		Username: target.Username,
		Headline: target.Headline,
		Bio:      target.Bio,
		Editable: viewer.Is(target.ID),
	}

	var open []models.Task
	err := db.DB.Where("requested_by = ? AND accepted_at IS NULL", target.ID).
		Order("due_by ASC").
		Find(&open).Error
	if err != nil {
		return models.Profile{}, err
	}
	for i := range open {
		profile.OpenRequests = append(profile.OpenRequests, NewTaskView(&open[i], viewer))
	}

	// In-flight: claimed but not yet completed, with the target on either
	// side. The viewer still only sees tasks they are party to.
	var active []models.Task
	err = db.DB.Where("(requested_by = ? OR accepted_by = ?) AND accepted_at IS NOT NULL AND completed_at IS NULL",
		target.ID, target.ID).
		Order("due_by ASC").
		Find(&active).Error
	if err != nil {
		return models.Profile{}, err
	}
	for i := range active {
		if !CanViewDetail(&active[i], viewer) {
			continue
		}
		profile.ActiveTasks = append(profile.ActiveTasks, NewTaskView(&active[i], viewer))
	}

	return profile, nil
}

func (s *ProfileService) ListUsers(db *database.Database, viewer models.Viewer) (models.UserIndex, error) {
	if viewer.Anonymous {
		var count int64
		if err := db.DB.Model(&models.User{}).Count(&count).Error; err != nil {
			return models.UserIndex{}, err
		}
		return models.UserIndex{
			UserCount: count,
			RecruitMessage: fmt.Sprintf(
				"%d users are already on qqueue. Register an account to see their profiles and make requests.",
				count),
		}, nil
	}

	var users []models.User
	if err := db.DB.Order("username ASC").Find(&users).Error; err != nil {
		return models.UserIndex{}, err
	}

	index := models.UserIndex{}
	for i := range users {
		index.Users = append(index.Users, models.UserSummary{
			ID:       users[i].ID,
			Username: users[i].Username,
		})
	}
	return index, nil
}

// recruitMessage picks one of four variants depending on whether the target
// has ever made requests and/or fulfilled orders.
func recruitMessage(db *database.Database, target *models.User) (string, error) {
	var requested int64
	err := db.DB.Model(&models.Task{}).
		Where("requested_by = ?", target.ID).
		Count(&requested).Error
	if err != nil {
		return "", err
	}

	var fulfilled int64
	err = db.DB.Model(&models.Task{}).
		Where("accepted_by = ? AND approved_at IS NOT NULL", target.ID).
		Count(&fulfilled).Error
	if err != nil {
		return "", err
	}

	switch {
	case requested > 0 && fulfilled > 0:
		return fmt.Sprintf("%s makes requests and fulfils orders on qqueue. Register an account to work with them.", target.Username), nil
	case requested > 0:
		return fmt.Sprintf("%s has open requests on qqueue. Register an account to fulfil them.", target.Username), nil
	case fulfilled > 0:
		return fmt.Sprintf("%s fulfils orders on qqueue. Register an account to put them to work.", target.Username), nil
	default:
		return fmt.Sprintf("%s is on qqueue. Register an account to make them your first request.", target.Username), nil
	}
}

var ProfileServiceInstance ProfileServiceInterface = NewProfileService()
