package store

import (
	"time"

	"feedpilot/internal/model"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Email        string
	CreatedAt    time.Time `gorm:"not null"`
	LastLogin    *time.Time
}

type SettingModel struct {
	UserID string `gorm:"primaryKey"`
	Key    string `gorm:"primaryKey"`
	Value  string
}

type CredentialModel struct {
	UserID       string `gorm:"primaryKey"`
	ClientID     string
	ClientSecret string
	Username     string
	UserAgent    string
}

type ActionModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	UserID        string `gorm:"not null;index"`
	Title         string `gorm:"not null"`
	Body          string
	Channel       string    `gorm:"not null"`
	ScheduledTime time.Time `gorm:"not null;index"`
	Status        string    `gorm:"not null;default:'pending';index"`
}

type LogModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"not null;index"`
	Timestamp time.Time `gorm:"not null;index"`
	Level     string    `gorm:"not null"`
	Message   string
	Channel   string
}

func (UserModel) TableName() string       { return "users" }
func (SettingModel) TableName() string    { return "settings" }
func (CredentialModel) TableName() string { return "remote_credentials" }
func (ActionModel) TableName() string     { return "scheduled_actions" }
func (LogModel) TableName() string        { return "log_entries" }

func userFromModel(m UserModel) model.User {
	return model.User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Email:        m.Email,
		CreatedAt:    m.CreatedAt,
		LastLogin:    m.LastLogin,
	}
}

func credentialFromModel(m CredentialModel) model.RemoteCredential {
	return model.RemoteCredential{
		UserID:       m.UserID,
		ClientID:     m.ClientID,
		ClientSecret: m.ClientSecret,
		Username:     m.Username,
		UserAgent:    m.UserAgent,
	}
}

func actionFromModel(m ActionModel) model.ScheduledAction {
	return model.ScheduledAction{
		ID:            m.ID,
		UserID:        m.UserID,
		Title:         m.Title,
		Body:          m.Body,
		Channel:       m.Channel,
		ScheduledTime: m.ScheduledTime,
		Status:        model.ActionStatus(m.Status),
	}
}

func logFromModel(m LogModel) model.LogEntry {
	return model.LogEntry{
		ID:        m.ID,
		UserID:    m.UserID,
		Timestamp: m.Timestamp,
		Level:     m.Level,
		Message:   m.Message,
		Channel:   m.Channel,
	}
}
