// Package activity records per-user log entries: a durable write to the
// store followed by a best-effort push to the user's live subscribers.
package activity

import (
	"encoding/json"
	"log/slog"
	"time"

	"feedpilot/internal/hub"
	"feedpilot/internal/model"
	"feedpilot/internal/store"
)

type Log struct {
	store store.Store
	hub   *hub.Hub
	now   func() time.Time
}

// Event is the wire shape pushed to live subscribers.
type Event struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Channel   string `json:"channel"`
}

func NewLog(st store.Store, h *hub.Hub) *Log {
	return NewLogWithNow(st, h, time.Now)
}

func NewLogWithNow(st store.Store, h *hub.Hub, now func() time.Time) *Log {
	return &Log{store: st, hub: h, now: now}
}

// Record appends an entry to the store, then notifies the user's live
// subscribers. Entries from one worker arrive in the order its loop
// generated them; across users there is no ordering.
func (l *Log) Record(userID, level, message, channel string) error {
	entry := model.LogEntry{
		UserID:    userID,
		Timestamp: l.now().UTC(),
		Level:     level,
		Message:   message,
		Channel:   channel,
	}
	stored, err := l.store.AppendLog(entry)
	if err != nil {
		slog.Error("activity append failed", "user", userID, "err", err)
		return err
	}

	event := Event{
		Type:      "log_update",
		Timestamp: stored.Timestamp.Format(time.RFC3339),
		Level:     stored.Level,
		Message:   stored.Message,
		Channel:   stored.Channel,
	}
	if data, err := json.Marshal(event); err == nil {
		l.hub.Publish(userID, data)
	}

	slog.Info("activity", "user", userID, "level", level, "message", message)
	return nil
}

func (l *Log) Info(userID, message, channel string) {
	_ = l.Record(userID, model.LevelInfo, message, channel)
}

func (l *Log) Error(userID, message, channel string) {
	_ = l.Record(userID, model.LevelError, message, channel)
}

// Recent returns up to limit entries for the user, newest first.
func (l *Log) Recent(userID string, limit int) ([]model.LogEntry, error) {
	return l.store.RecentLogs(userID, limit)
}
