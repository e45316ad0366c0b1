package services

import (
	"qqueue-app/qqueue/models"
)

// Visibility policy: given a task and a viewer, decide which shape of the
// task leaves the core and which transitions the viewer may invoke. These
// are pure functions over already-loaded records; callers re-check
// preconditions against persisted state before mutating.

// CanViewDetail reports whether the viewer may see the task's full fields.
// Open tasks are visible to any authenticated viewer; claimed tasks only to
// the two parties. Anonymous viewers never see detail.
func CanViewDetail(t *models.Task, v models.Viewer) bool {
	if v.Anonymous {
		return false
	}
	if t.Status() == models.TaskOpen {
		return true
	}
	return t.IsParty(v)
}

// CanComment mirrors the comment transition rule: parties may always
// comment, anyone authenticated may comment while the task is unclaimed.
func CanComment(t *models.Task, v models.Viewer) bool {
	if v.Anonymous {
		return false
	}
	return t.IsParty(v) || t.Status() == models.TaskOpen
}

// TaskActions derives the action affordances for a viewer from the task's
// current status and the viewer's relationship to it.
func TaskActions(t *models.Task, v models.Viewer) []models.Action {
	if v.Anonymous {
		return nil
	}

	switch t.Status() {
	case models.TaskOpen:
		if t.IsRequester(v) {
			return []models.Action{models.ActionEdit, models.ActionDelete, models.ActionComment}
		}
		return []models.Action{models.ActionAccept, models.ActionComment}
	case models.TaskAccepted:
		if t.IsAccepter(v) {
			return []models.Action{models.ActionComplete, models.ActionRelease, models.ActionComment}
		}
		if t.IsRequester(v) {
			return []models.Action{models.ActionComment}
		}
	case models.TaskCompleted:
		if t.IsRequester(v) {
			return []models.Action{models.ActionApprove, models.ActionReject, models.ActionComment}
		}
		if t.IsAccepter(v) {
			return []models.Action{models.ActionComment}
		}
	case models.TaskApproved:
		if t.IsParty(v) {
			return []models.Action{models.ActionComment}
		}
	}
	return nil
}

// NewTaskView builds the filtered payload for a viewer that passed
// CanViewDetail. Comments are included only when loaded on the task.
func NewTaskView(t *models.Task, v models.Viewer) models.TaskView {
	return models.TaskView{
		ID:             t.ID,
		Summary:        t.Summary,
		Detail:         t.Detail,
		RewardAmount:   t.RewardAmount,
		RewardCurrency: t.RewardCurrency,
		DueBy:          t.DueBy,
		Status:         t.Status(),
		RequestedBy:    t.RequestedBy,
		RequestedAt:    t.RequestedAt,
		AcceptedBy:     t.AcceptedBy,
		AcceptedAt:     t.AcceptedAt,
		CompletedAt:    t.CompletedAt,
		ApprovedAt:     t.ApprovedAt,
		Comments:       t.Comments,
		Actions:        TaskActions(t, v),
	}
}

// NewTaskTeaser builds the bounded anonymous shape: summary, reward and due
// date only.
func NewTaskTeaser(t *models.Task) models.TaskTeaser {
	return models.TaskTeaser{
		ID:             t.ID,
		Summary:        t.Summary,
		RewardAmount:   t.RewardAmount,
		RewardCurrency: t.RewardCurrency,
		DueBy:          t.DueBy,
	}
}
