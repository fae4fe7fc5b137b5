package store

import (
	"errors"
	"time"

	"feedpilot/internal/model"
)

var (
	ErrUsernameTaken = errors.New("username already exists")
	ErrNotFound      = errors.New("not found")
)

// Store is the persistence capability shared by the gateway and the workers.
// Each call is a single atomic operation; there are no cross-call transactions.
type Store interface {
	CreateUser(username, passwordHash, email string) (model.User, error)
	GetUserByUsername(username string) (model.User, bool, error)
	GetUserByID(id string) (model.User, bool, error)
	TouchLastLogin(id string, at time.Time) error

	SetSetting(userID, key, value string) error
	GetSetting(userID, key, fallback string) (string, error)
	ListSettings(userID string) (map[string]string, error)

	UpsertCredential(cred model.RemoteCredential) error
	GetCredential(userID string) (model.RemoteCredential, bool, error)

	CreateAction(action model.ScheduledAction) (model.ScheduledAction, error)
	// DueActions returns the user's pending actions with scheduled time at or
	// before now.
	DueActions(userID string, now time.Time) ([]model.ScheduledAction, error)
	// ClaimAction flips a pending action to posting and reports whether this
	// caller won the claim. A claimed action stays invisible to DueActions
	// until it is finished or the claim is released on a store reopen.
	ClaimAction(id int64) (bool, error)
	FinishAction(id int64, status model.ActionStatus) error
	ListActions(userID string) ([]model.ScheduledAction, error)

	AppendLog(entry model.LogEntry) (model.LogEntry, error)
	// RecentLogs returns up to limit entries for the user, newest first.
	RecentLogs(userID string, limit int) ([]model.LogEntry, error)

	// ActionStatusCounts returns the user's scheduled action counts keyed
	// by status. Statuses with no actions are absent.
	ActionStatusCounts(userID string) (map[model.ActionStatus]int, error)
	// LogLevelCounts returns the user's log entry counts keyed by level,
	// restricted to entries at or after since.
	LogLevelCounts(userID string, since time.Time) (map[string]int, error)
}
