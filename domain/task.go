package domain

import "time"

// Channel identifies a notification delivery medium.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// Priority levels as stored on a task. Values outside the known set are
// preserved verbatim.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Status of a task. Only pending tasks are eligible for reminders.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Task is a single todo item owned by one user.
type Task struct {
	ID           string
	UserID       string
	Title        string
	Description  string
	Priority     Priority
	Status       Status
	DueDate      *time.Time
	ReminderTime *time.Time
	// Per-channel delivery flags. Each transitions false->true at most
	// once; email and push lifecycles are independent.
	EmailSent bool
	PushSent  bool
}

// Sent reports the delivery flag for the given channel.
func (t Task) Sent(ch Channel) bool {
	if ch == ChannelPush {
		return t.PushSent
	}
	return t.EmailSent
}
