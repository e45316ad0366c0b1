package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is derived from the lifecycle timestamps and never stored.
// Rejection is not a resting status; rejecting clears completed_at and the
// task reads as accepted again.
type TaskStatus string

const (
	TaskOpen      TaskStatus = "open"
	TaskAccepted  TaskStatus = "accepted"
	TaskCompleted TaskStatus = "completed"
	TaskApproved  TaskStatus = "approved"
)

type Task struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Summary        string    `gorm:"size:256;not null" json:"summary"`
	Detail         string    `gorm:"not null" json:"detail"`
	RewardAmount   float64   `gorm:"not null" json:"reward_amount"`
	RewardCurrency string    `gorm:"size:16;not null" json:"reward_currency"`
	DueBy          time.Time `gorm:"not null" json:"due_by"`
	RequestedBy    uuid.UUID `gorm:"type:uuid;not null;index" json:"requested_by"`
	RequestedAt    time.Time `gorm:"not null" json:"requested_at"`
	// Provider-side fields stay null until the matching transition fires.
	// AcceptedBy carries no DB-level FK constraint; the user-deletion cascade
	// is applied explicitly by the user service.
	AcceptedBy  *uuid.UUID `gorm:"type:uuid;index" json:"accepted_by,omitempty"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	Comments    []Comment  `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

func (t *Task) Status() TaskStatus {
	switch {
	case t.ApprovedAt != nil:
		return TaskApproved
	case t.CompletedAt != nil:
		return TaskCompleted
	case t.AcceptedAt != nil:
		return TaskAccepted
	default:
		return TaskOpen
	}
}

func (t *Task) IsRequester(v Viewer) bool {
	return v.Is(t.RequestedBy)
}

func (t *Task) IsAccepter(v Viewer) bool {
	return t.AcceptedBy != nil && v.Is(*t.AcceptedBy)
}

// IsParty reports whether the viewer is the requester or the accepter.
func (t *Task) IsParty(v Viewer) bool {
	return t.IsRequester(v) || t.IsAccepter(v)
}

// TaskInput carries the fields a requester supplies when posting a task.
type TaskInput struct {
	Summary        string    `json:"summary"`
	Detail         string    `json:"detail"`
	RewardAmount   float64   `json:"reward_amount"`
	RewardCurrency string    `json:"reward_currency"`
	DueBy          time.Time `json:"due_by"`
}

// TaskUpdate is a partial update: nil fields keep their current value.
type TaskUpdate struct {
	Summary        *string    `json:"summary,omitempty"`
	Detail         *string    `json:"detail,omitempty"`
	RewardAmount   *float64   `json:"reward_amount,omitempty"`
	RewardCurrency *string    `json:"reward_currency,omitempty"`
	DueBy          *time.Time `json:"due_by,omitempty"`
}

// Apply copies the set fields onto the task.
func (u TaskUpdate) Apply(t *Task) {
	if u.Summary != nil {
		t.Summary = *u.Summary
	}
	if u.Detail != nil {
		t.Detail = *u.Detail
	}
	if u.RewardAmount != nil {
		t.RewardAmount = *u.RewardAmount
	}
	if u.RewardCurrency != nil {
		t.RewardCurrency = *u.RewardCurrency
	}
	if u.DueBy != nil {
		t.DueBy = *u.DueBy
	}
}
