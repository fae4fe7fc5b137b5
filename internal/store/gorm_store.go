package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"feedpilot/internal/model"
)

// Gorm implements Store on a relational database.
type Gorm struct {
	db *gorm.DB
}

// Open connects to Postgres when databaseURL is set, otherwise to a local
// SQLite file, and runs auto-migrations.
func Open(databaseURL, sqlitePath string) (*Gorm, error) {
	var dialector gorm.Dialector
	if databaseURL != "" {
		dialector = postgres.Open(databaseURL)
	} else {
		dialector = sqlite.Open(sqlitePath)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return NewGorm(db)
}

// NewGorm wraps an existing connection, runs auto-migrations, and hands
// actions orphaned mid-publish back to dispatch.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&UserModel{}, &SettingModel{}, &CredentialModel{}, &ActionModel{}, &LogModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	// A worker that claimed an action and died before finishing leaves the
	// row in posting, where dispatch never sees it again. Reopening the
	// store means no worker holds a claim, so release them all.
	res := db.Model(&ActionModel{}).
		Where("status = ?", string(model.ActionPosting)).
		Update("status", string(model.ActionPending))
	if res.Error != nil {
		return nil, fmt.Errorf("release claimed actions: %w", res.Error)
	}
	return &Gorm{db: db}, nil
}

func (s *Gorm) CreateUser(username, passwordHash, email string) (model.User, error) {
	m := UserModel{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.User{}, ErrUsernameTaken
		}
		return model.User{}, err
	}
	return userFromModel(m), nil
}

func (s *Gorm) GetUserByUsername(username string) (model.User, bool, error) {
	var m UserModel
	if err := s.db.Where("username = ?", username).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, false, nil
		}
		return model.User{}, false, err
	}
	return userFromModel(m), true, nil
}

func (s *Gorm) GetUserByID(id string) (model.User, bool, error) {
	var m UserModel
	if err := s.db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, false, nil
		}
		return model.User{}, false, err
	}
	return userFromModel(m), true, nil
}

func (s *Gorm) TouchLastLogin(id string, at time.Time) error {
	return s.db.Model(&UserModel{}).Where("id = ?", id).Update("last_login", at).Error
}

func (s *Gorm) SetSetting(userID, key, value string) error {
	m := SettingModel{UserID: userID, Key: key, Value: value}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&m).Error
}

func (s *Gorm) GetSetting(userID, key, fallback string) (string, error) {
	var m SettingModel
	err := s.db.Where("user_id = ? AND key = ?", userID, key).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return m.Value, nil
}

func (s *Gorm) ListSettings(userID string) (map[string]string, error) {
	var models []SettingModel
	if err := s.db.Where("user_id = ?", userID).Find(&models).Error; err != nil {
		return nil, err
	}
	result := make(map[string]string, len(models))
	for _, m := range models {
		result[m.Key] = m.Value
	}
	return result, nil
}

func (s *Gorm) UpsertCredential(cred model.RemoteCredential) error {
	m := CredentialModel{
		UserID:       cred.UserID,
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Username:     cred.Username,
		UserAgent:    cred.UserAgent,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"client_id", "client_secret", "username", "user_agent"}),
	}).Create(&m).Error
}

func (s *Gorm) GetCredential(userID string) (model.RemoteCredential, bool, error) {
	var m CredentialModel
	if err := s.db.First(&m, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.RemoteCredential{}, false, nil
		}
		return model.RemoteCredential{}, false, err
	}
	return credentialFromModel(m), true, nil
}

func (s *Gorm) CreateAction(action model.ScheduledAction) (model.ScheduledAction, error) {
	m := ActionModel{
		UserID:        action.UserID,
		Title:         action.Title,
		Body:          action.Body,
		Channel:       action.Channel,
		ScheduledTime: action.ScheduledTime,
		Status:        string(model.ActionPending),
	}
	if err := s.db.Create(&m).Error; err != nil {
		return model.ScheduledAction{}, err
	}
	return actionFromModel(m), nil
}

func (s *Gorm) DueActions(userID string, now time.Time) ([]model.ScheduledAction, error) {
	var models []ActionModel
	err := s.db.
		Where("user_id = ? AND status = ? AND scheduled_time <= ?", userID, string(model.ActionPending), now).
		Order("scheduled_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	result := make([]model.ScheduledAction, 0, len(models))
	for _, m := range models {
		result = append(result, actionFromModel(m))
	}
	return result, nil
}

func (s *Gorm) ClaimAction(id int64) (bool, error) {
	res := s.db.Model(&ActionModel{}).
		Where("id = ? AND status = ?", id, string(model.ActionPending)).
		Update("status", string(model.ActionPosting))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Gorm) FinishAction(id int64, status model.ActionStatus) error {
	return s.db.Model(&ActionModel{}).Where("id = ?", id).Update("status", string(status)).Error
}

func (s *Gorm) ListActions(userID string) ([]model.ScheduledAction, error) {
	var models []ActionModel
	if err := s.db.Where("user_id = ?", userID).Order("scheduled_time ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	result := make([]model.ScheduledAction, 0, len(models))
	for _, m := range models {
		result = append(result, actionFromModel(m))
	}
	return result, nil
}

func (s *Gorm) AppendLog(entry model.LogEntry) (model.LogEntry, error) {
	m := LogModel{
		UserID:    entry.UserID,
		Timestamp: entry.Timestamp,
		Level:     entry.Level,
		Message:   entry.Message,
		Channel:   entry.Channel,
	}
	if err := s.db.Create(&m).Error; err != nil {
		return model.LogEntry{}, err
	}
	return logFromModel(m), nil
}

func (s *Gorm) ActionStatusCounts(userID string) (map[model.ActionStatus]int, error) {
	var rows []struct {
		Status string
		N      int
	}
	err := s.db.Model(&ActionModel{}).
		Select("status, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.ActionStatus]int, len(rows))
	for _, row := range rows {
		counts[model.ActionStatus(row.Status)] = row.N
	}
	return counts, nil
}

func (s *Gorm) LogLevelCounts(userID string, since time.Time) (map[string]int, error) {
	var rows []struct {
		Level string
		N     int
	}
	err := s.db.Model(&LogModel{}).
		Select("level, COUNT(*) AS n").
		Where("user_id = ? AND timestamp >= ?", userID, since).
		Group("level").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Level] = row.N
	}
	return counts, nil
}

func (s *Gorm) RecentLogs(userID string, limit int) ([]model.LogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []LogModel
	err := s.db.
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	result := make([]model.LogEntry, 0, len(models))
	for _, m := range models {
		result = append(result, logFromModel(m))
	}
	return result, nil
}
