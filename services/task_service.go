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
	"gorm.io/gorm/clause"
)

type TaskServiceInterface interface {
	CreateTask(db *database.Database, viewer models.Viewer, input models.TaskInput) (models.Task, error)
	UpdateTask(db *database.Database, id string, viewer models.Viewer, update models.TaskUpdate) (models.Task, error)
	DeleteTask(db *database.Database, id string, viewer models.Viewer) error
	AcceptTask(db *database.Database, id string, viewer models.Viewer) (models.Task, error)
	ReleaseTask(db *database.Database, id string, viewer models.Viewer) (models.Task, error)
	CompleteTask(db *database.Database, id string, viewer models.Viewer) (models.Task, error)
	ApproveTask(db *database.Database, id string, viewer models.Viewer) (models.Task, error)
	RejectTask(db *database.Database, id string, viewer models.Viewer) (models.Task, error)
	GetTask(db *database.Database, id string, viewer models.Viewer) (models.TaskView, error)
	ListTasks(db *database.Database, viewer models.Viewer) (models.TaskList, error)
}

type TaskService struct {
	teaserLimit int
}

func NewTaskService(teaserLimit int) TaskServiceInterface {
	if teaserLimit <= 0 {
		teaserLimit = 5
	}
	return &TaskService{teaserLimit: teaserLimit}
}

// transition describes one edge of the lifecycle. Preconditions are checked
// against the row re-read under a lock, so a repeated or raced transition
// always fails with ErrForbidden against the post-commit state.
type transition struct {
	event     broker.EventType
	from      models.TaskStatus
	permitted func(t *models.Task, v models.Viewer) bool
	apply     func(t *models.Task, v models.Viewer, now time.Time)
}

var transitions = map[models.Action]transition{
	models.ActionAccept: {
		event: broker.TaskAccepted,
		from:  models.TaskOpen,
		permitted: func(t *models.Task, v models.Viewer) bool {
			return !v.Anonymous && !t.IsRequester(v)
		},
		apply: func(t *models.Task, v models.Viewer, now time.Time) {
			accepter := v.UserID
			t.AcceptedBy = &accepter
			t.AcceptedAt = &now
		},
	},
	models.ActionRelease: {
		event: broker.TaskReleased,
		from:  models.TaskAccepted,
		permitted: func(t *models.Task, v models.Viewer) bool {
			return t.IsAccepter(v)
		},
		apply: func(t *models.Task, v models.Viewer, now time.Time) {
			t.AcceptedBy = nil
			t.AcceptedAt = nil
		},
	},
	models.ActionComplete: {
		event: broker.TaskCompleted,
		from:  models.TaskAccepted,
		permitted: func(t *models.Task, v models.Viewer) bool {
			return t.IsAccepter(v)
		},
		apply: func(t *models.Task, v models.Viewer, now time.Time) {
			t.CompletedAt = &now
		},
	},
	models.ActionApprove: {
		event: broker.TaskApproved,
		from:  models.TaskCompleted,
		permitted: func(t *models.Task, v models.Viewer) bool {
			return t.IsRequester(v)
		},
		apply: func(t *models.Task, v models.Viewer, now time.Time) {
			t.ApprovedAt = &now
		},
	},
	models.ActionReject: {
		event: broker.TaskRejected,
		from:  models.TaskCompleted,
		permitted: func(t *models.Task, v models.Viewer) bool {
			return t.IsRequester(v)
		},
		apply: func(t *models.Task, v models.Viewer, now time.Time) {
			t.CompletedAt = nil
		},
	},
}

func (s *TaskService) CreateTask(db *database.Database, viewer models.Viewer, input models.TaskInput) (models.Task, error) {
	if viewer.Anonymous {
		return models.Task{}, ErrForbidden
	}
	now := time.Now().UTC()
	if err := validateTaskInput(input, now); err != nil {
		return models.Task{}, err
	}

	tx := db.DB.Begin()
	if tx.Error != nil {
		return models.Task{}, tx.Error
	}

	task := models.Task{
		ID:             uuid.New(),
		Summary:        input.Summary,
		Detail:         input.Detail,
		RewardAmount:   input.RewardAmount,
		RewardCurrency: input.RewardCurrency,
		DueBy:          input.DueBy,
		RequestedBy:    viewer.UserID,
		RequestedAt:    now,
	}

	if err := tx.Create(&task).Error; err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	event, err := newTaskEvent(broker.TaskCreated, &task, viewer)
	if err != nil {
		tx.Rollback()
		return models.Task{}, err
	}
	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	broker.PublishEvent(event)
	return task, nil
}

func (s *TaskService) UpdateTask(db *database.Database, id string, viewer models.Viewer, update models.TaskUpdate) (models.Task, error) {
	now := time.Now().UTC()

	tx := db.DB.Begin()
	if tx.Error != nil {
		return models.Task{}, tx.Error
	}

	task, err := lockTask(tx, id)
	if err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	// Only the requester may edit, and only while the task is unclaimed.
	if task.Status() != models.TaskOpen || !task.IsRequester(viewer) {
		tx.Rollback()
		return models.Task{}, ErrForbidden
	}

	update.Apply(&task)
	if err := validateTaskFields(&task, now, update.DueBy != nil); err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	if err := tx.Save(&task).Error; err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	event, err := newTaskEvent(broker.TaskUpdated, &task, viewer)
	if err != nil {
		tx.Rollback()
		return models.Task{}, err
	}
	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	broker.PublishEvent(event)
	return task, nil
}

func (s *TaskService) DeleteTask(db *database.Database, id string, viewer models.Viewer) error {
	tx := db.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	task, err := lockTask(tx, id)
	if err != nil {
		tx.Rollback()
		return err
	}

	if task.Status() != models.TaskOpen || !task.IsRequester(viewer) {
		tx.Rollback()
		return ErrForbidden
	}

	// Explicit cascade: comments first, then the task row.
	if err := tx.Where("task_id = ?", task.ID).Delete(&models.Comment{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&task).Error; err != nil {
		tx.Rollback()
		return err
	}

	event, err := newTaskEvent(broker.TaskDeleted, &task, viewer)
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

func (s *TaskService) AcceptTask(db *database.Database, id string, viewer models.Viewer) (models.Task, error) {
	return s.applyTransition(db, id, viewer, models.ActionAccept)
}

func (s *TaskService) ReleaseTask(db *database.Database, id string, viewer models.Viewer) (models.Task, error) {
	return s.applyTransition(db, id, viewer, models.ActionRelease)
}

func (s *TaskService) CompleteTask(db *database.Database, id string, viewer models.Viewer) (models.Task, error) {
	return s.applyTransition(db, id, viewer, models.ActionComplete)
}

func (s *TaskService) ApproveTask(db *database.Database, id string, viewer models.Viewer) (models.Task, error) {
	return s.applyTransition(db, id, viewer, models.ActionApprove)
}

func (s *TaskService) RejectTask(db *database.Database, id string, viewer models.Viewer) (models.Task, error) {
	return s.applyTransition(db, id, viewer, models.ActionReject)
}

// applyTransition runs one all-or-nothing lifecycle step: lock the row,
// re-check the precondition against persisted state, mutate the timestamps,
// record the event, commit.
func (s *TaskService) applyTransition(db *database.Database, id string, viewer models.Viewer, action models.Action) (models.Task, error) {
	tr, ok := transitions[action]
	if !ok {
		return models.Task{}, fmt.Errorf("%w: unknown transition %q", ErrValidation, action)
	}

	tx := db.DB.Begin()
	if tx.Error != nil {
		return models.Task{}, tx.Error
	}

	task, err := lockTask(tx, id)
	if err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	if task.Status() != tr.from || !tr.permitted(&task, viewer) {
		tx.Rollback()
		return models.Task{}, ErrForbidden
	}

	tr.apply(&task, viewer, time.Now().UTC())

	if err := tx.Save(&task).Error; err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	event, err := newTaskEvent(tr.event, &task, viewer)
	if err != nil {
		tx.Rollback()
		return models.Task{}, err
	}
	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	broker.PublishEvent(event)
	return task, nil
}

func (s *TaskService) GetTask(db *database.Database, id string, viewer models.Viewer) (models.TaskView, error) {
	var task models.Task
	err := db.DB.Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TaskView{}, ErrTaskNotFound
		}
		return models.TaskView{}, err
	}

	if !CanViewDetail(&task, viewer) {
		return models.TaskView{}, ErrTaskHidden
	}

	view := NewTaskView(&task, viewer)

	var requester models.User
	if err := db.DB.First(&requester, "id = ?", task.RequestedBy).Error; err == nil {
		view.Requester = &models.UserSummary{ID: requester.ID, Username: requester.Username}
	}
	if task.AcceptedBy != nil {
		var accepter models.User
		if err := db.DB.First(&accepter, "id = ?", *task.AcceptedBy).Error; err == nil {
			view.Accepter = &models.UserSummary{ID: accepter.ID, Username: accepter.Username}
		}
	}

	return view, nil
}

func (s *TaskService) ListTasks(db *database.Database, viewer models.Viewer) (models.TaskList, error) {
	if viewer.Anonymous {
		var open []models.Task
		err := db.DB.Where("accepted_at IS NULL").
			Order("due_by ASC").
			Limit(s.teaserLimit).
			Find(&open).Error
		if err != nil {
			return models.TaskList{}, err
		}

		teaser := make([]models.TaskTeaser, 0, len(open))
		for i := range open {
			teaser = append(teaser, NewTaskTeaser(&open[i]))
		}
		return models.TaskList{Teaser: teaser}, nil
	}

	list := models.TaskList{}

	var open []models.Task
	if err := db.DB.Where("accepted_at IS NULL").Order("due_by ASC").Find(&open).Error; err != nil {
		return models.TaskList{}, err
	}
	for i := range open {
		list.Open = append(list.Open, NewTaskView(&open[i], viewer))
	}

	var requested []models.Task
	err := db.DB.Where("requested_by = ? AND approved_at IS NULL", viewer.UserID).
		Order("due_by ASC").
		Find(&requested).Error
	if err != nil {
		return models.TaskList{}, err
	}
	for i := range requested {
		list.Requested = append(list.Requested, NewTaskView(&requested[i], viewer))
	}

	var accepted []models.Task
	err = db.DB.Where("accepted_by = ? AND approved_at IS NULL", viewer.UserID).
		Order("due_by ASC").
		Find(&accepted).Error
	if err != nil {
		return models.TaskList{}, err
	}
	for i := range accepted {
		list.Accepted = append(list.Accepted, NewTaskView(&accepted[i], viewer))
	}

	return list, nil
}

// lockTask re-reads the task row under SELECT ... FOR UPDATE so concurrent
// transitions serialize and the loser's precondition check sees the winner's
// committed state. sqlite has no row locks and serializes writers itself.
func lockTask(tx *gorm.DB, id string) (models.Task, error) {
	query := tx
	if tx.Dialector.Name() != "sqlite" {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var task models.Task
	err := query.First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

func validateTaskInput(input models.TaskInput, now time.Time) error {
	task := models.Task{
		Summary:        input.Summary,
		Detail:         input.Detail,
		RewardAmount:   input.RewardAmount,
		RewardCurrency: input.RewardCurrency,
		DueBy:          input.DueBy,
	}
	return validateTaskFields(&task, now, true)
}

func validateTaskFields(t *models.Task, now time.Time, checkDue bool) error {
	if t.Summary == "" {
		return fmt.Errorf("%w: summary is required", ErrValidation)
	}
	if len(t.Summary) > 256 {
		return fmt.Errorf("%w: summary must be at most 256 characters", ErrValidation)
	}
	if t.Detail == "" {
		return fmt.Errorf("%w: detail is required", ErrValidation)
	}
	if t.RewardAmount < 0 {
		return fmt.Errorf("%w: reward amount must not be negative", ErrValidation)
	}
	if !models.IsAcceptedCurrency(t.RewardCurrency) {
		return fmt.Errorf("%w: %q is not an accepted currency", ErrValidation, t.RewardCurrency)
	}
	if t.DueBy.IsZero() {
		return fmt.Errorf("%w: due date is required", ErrValidation)
	}
	// The due date is only validated against the clock when it is being set;
	// an existing task whose due date has since passed stays valid.
	if checkDue && dateBefore(t.DueBy, now) {
		return fmt.Errorf("%w: due date must not be in the past", ErrValidation)
	}
	return nil
}

// dateBefore compares calendar dates in UTC, ignoring the time of day.
func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC).
		Before(time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC))
}

func newTaskEvent(eventType broker.EventType, task *models.Task, viewer models.Viewer) (*models.Event, error) {
	payload := map[string]interface{}{
		"task_id":      task.ID.String(),
		"summary":      task.Summary,
		"status":       string(task.Status()),
		"requested_by": task.RequestedBy.String(),
	}
	if task.AcceptedBy != nil {
		payload["accepted_by"] = task.AcceptedBy.String()
	}
	return models.NewEvent(string(eventType), "task", viewer.UserID.String(), payload)
}

var TaskServiceInstance TaskServiceInterface = NewTaskService(5)
