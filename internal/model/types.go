package model

import "time"

// Setting keys the worker reads.
const SettingWatchedChannels = "watched_channels"

// Log levels. The level field is an open string; these are the ones the
// system itself emits.
const (
	LevelInfo  = "INFO"
	LevelError = "ERROR"
)

// ActionStatus is the lifecycle state of a scheduled action.
type ActionStatus string

const (
	// ActionPending means the action has not been attempted yet.
	ActionPending ActionStatus = "pending"
	// ActionPosting means a worker has claimed the action and is publishing it.
	ActionPosting ActionStatus = "posting"
	// ActionPosted and ActionFailed are terminal.
	ActionPosted ActionStatus = "posted"
	ActionFailed ActionStatus = "failed"
)

type User struct {
	ID           string
	Username     string
	PasswordHash string
	Email        string
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// RemoteCredential holds the fields needed to authenticate against the
// external content service. At most one active set per user; overwritten
// on reconnect.
type RemoteCredential struct {
	UserID       string
	ClientID     string
	ClientSecret string
	Username     string
	UserAgent    string
}

type ScheduledAction struct {
	ID            int64
	UserID        string
	Title         string
	Body          string
	Channel       string
	ScheduledTime time.Time
	Status        ActionStatus
}

// LogEntry is an append-only activity record scoped to one user.
type LogEntry struct {
	ID        int64
	UserID    string
	Timestamp time.Time
	Level     string
	Message   string
	Channel   string
}
