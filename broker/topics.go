package broker

const (
	TaskEventsSubject    = "qqueue.tasks"
	UserEventsSubject    = "qqueue.users"
	CommentEventsSubject = "qqueue.comments"
)

type EventType string

const (
	// Standardized event types in format: <resource>.<action>
	TaskCreated   EventType = "task.created"
	TaskUpdated   EventType = "task.updated"
	TaskDeleted   EventType = "task.deleted"
	TaskAccepted  EventType = "task.accepted"
	TaskReleased  EventType = "task.released"
	TaskCompleted EventType = "task.completed"
	TaskApproved  EventType = "task.approved"
	TaskRejected  EventType = "task.rejected"

	CommentAdded EventType = "comment.added"

	UserRegistered EventType = "user.registered"
	UserUpdated    EventType = "user.updated"
	UserDeleted    EventType = "user.deleted"
)

// SubjectForEntity maps an event entity to its NATS subject.
func SubjectForEntity(entity string) string {
	switch entity {
	case "task":
		return TaskEventsSubject
	case "comment":
		return CommentEventsSubject
	case "user":
		return UserEventsSubject
	default:
		return ""
	}
}
