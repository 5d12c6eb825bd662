package domain

import (
	"context"
	"time"
)

// UserIterator walks user identities page by page, in the shape of a table
// storage pager. A fresh iterator comes from ListUsers, so enumeration is
// restartable.
type UserIterator interface {
	More() bool
	NextPage(ctx context.Context) ([]string, error)
}

// TaskStore defines the task collection operations the dispatcher needs.
type TaskStore interface {
	ListUsers(ctx context.Context) UserIterator
	// DueUnsentTasks returns the user's tasks with a reminder time at or
	// before now, pending status, and the channel's sent flag still false.
	// No matches is an empty slice, not an error.
	DueUnsentTasks(ctx context.Context, userID string, ch Channel, now time.Time) ([]Task, error)
	// MarkSent sets the channel's delivery flag. Calling it on an
	// already-flagged task is a no-op success.
	MarkSent(ctx context.Context, userID, taskID string, ch Channel) error
}

// Directory resolves a user identity to delivery targets and owns the push
// registration records.
type Directory interface {
	// Email returns the user's verified address, "" when the user has
	// none, or ErrUserNotFound when the identity does not exist.
	Email(ctx context.Context, userID string) (string, error)
	Tokens(ctx context.Context, userID string) ([]string, error)
	RemoveToken(ctx context.Context, userID, token string) error
}

// SnapshotRefresher rebuilds the cached widget snapshot for a user after
// the sweep touched their tasks.
type SnapshotRefresher interface {
	Refresh(ctx context.Context, userID string)
}
