package models

import (
	"time"

	"github.com/google/uuid"
)

// Action names a transition the viewer may invoke on a task.
type Action string

const (
	ActionAccept   Action = "accept"
	ActionEdit     Action = "edit"
	ActionDelete   Action = "delete"
	ActionComment  Action = "comment"
	ActionComplete Action = "complete"
	ActionRelease  Action = "release"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
)

// UserSummary is the public slice of a user record.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// TaskTeaser is the only task shape anonymous viewers ever see.
type TaskTeaser struct {
	ID             uuid.UUID `json:"id"`
	Summary        string    `json:"summary"`
	RewardAmount   float64   `json:"reward_amount"`
	RewardCurrency string    `json:"reward_currency"`
	DueBy          time.Time `json:"due_by"`
}

// TaskView is a task as a particular viewer is allowed to see it, with the
// action affordances that viewer may invoke.
type TaskView struct {
	ID             uuid.UUID    `json:"id"`
	Summary        string       `json:"summary"`
	Detail         string       `json:"detail"`
	RewardAmount   float64      `json:"reward_amount"`
	RewardCurrency string       `json:"reward_currency"`
	DueBy          time.Time    `json:"due_by"`
	Status         TaskStatus   `json:"status"`
	RequestedBy    uuid.UUID    `json:"requested_by"`
	RequestedAt    time.Time    `json:"requested_at"`
	AcceptedBy     *uuid.UUID   `json:"accepted_by,omitempty"`
	AcceptedAt     *time.Time   `json:"accepted_at,omitempty"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	ApprovedAt     *time.Time   `json:"approved_at,omitempty"`
	Requester      *UserSummary `json:"requester,omitempty"`
	Accepter       *UserSummary `json:"accepter,omitempty"`
	Comments       []Comment    `json:"comments,omitempty"`
	Actions        []Action     `json:"actions"`
}

// TaskList is the listing payload. Anonymous viewers get only the teaser;
// authenticated viewers get the three partitions, with approved tasks
// excluded from the viewer-specific groups.
type TaskList struct {
	Teaser    []TaskTeaser `json:"teaser,omitempty"`
	Open      []TaskView   `json:"open,omitempty"`
	Requested []TaskView   `json:"requested,omitempty"`
	Accepted  []TaskView   `json:"accepted,omitempty"`
}

// Profile is the per-user aggregation. Anonymous viewers get only the
// recruit message; authenticated viewers get the target's open requests and
// in-flight tasks, filtered by what the viewer may see.
type Profile struct {
	ID             uuid.UUID  `json:"id,omitempty"`
	Username       string     `json:"username,omitempty"`
	Headline       string     `json:"headline"`
	Bio            string     `json:"bio"`
	Editable       bool       `json:"editable"`
	OpenRequests   []TaskView `json:"open_requests,omitempty"`
	ActiveTasks    []TaskView `json:"active_tasks,omitempty"`
	RecruitMessage string     `json:"recruit_message,omitempty"`
}

// UserIndex is the /users listing. Anonymous viewers get a count and the
// recruit prompt; authenticated viewers get usernames only.
type UserIndex struct {
	Users          []UserSummary `json:"users,omitempty"`
	UserCount      int64         `json:"user_count,omitempty"`
	RecruitMessage string        `json:"recruit_message,omitempty"`
}
