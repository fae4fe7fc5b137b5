package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"feedpilot/internal/model"
)

// Memory implements Store in process memory. It backs tests and
// zero-dependency runs; the semantics mirror the Gorm implementation.
type Memory struct {
	mu sync.RWMutex

	usersByID      map[string]model.User
	userIDByName   map[string]string
	settingsByUser map[string]map[string]string
	credsByUser    map[string]model.RemoteCredential
	actionsByID    map[int64]model.ScheduledAction
	nextActionID   int64
	logsByUser     map[string][]model.LogEntry
	nextLogID      int64
}

func NewMemory() *Memory {
	return &Memory{
		usersByID:      make(map[string]model.User),
		userIDByName:   make(map[string]string),
		settingsByUser: make(map[string]map[string]string),
		credsByUser:    make(map[string]model.RemoteCredential),
		actionsByID:    make(map[int64]model.ScheduledAction),
		logsByUser:     make(map[string][]model.LogEntry),
	}
}

func (s *Memory) CreateUser(username, passwordHash, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.userIDByName[username]; exists {
		return model.User{}, ErrUsernameTaken
	}
	u := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		CreatedAt:    time.Now().UTC(),
	}
	s.usersByID[u.ID] = u
	s.userIDByName[username] = u.ID
	return u, nil
}

func (s *Memory) GetUserByUsername(username string) (model.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.userIDByName[username]
	if !ok {
		return model.User{}, false, nil
	}
	return s.usersByID[id], true, nil
}

func (s *Memory) GetUserByID(id string) (model.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usersByID[id]
	return u, ok, nil
}

func (s *Memory) TouchLastLogin(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usersByID[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLogin = &at
	s.usersByID[id] = u
	return nil
}

func (s *Memory) SetSetting(userID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settingsByUser[userID] == nil {
		s.settingsByUser[userID] = make(map[string]string)
	}
	s.settingsByUser[userID][key] = value
	return nil
}

func (s *Memory) GetSetting(userID, key, fallback string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if value, ok := s.settingsByUser[userID][key]; ok {
		return value, nil
	}
	return fallback, nil
}

func (s *Memory) ListSettings(userID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]string, len(s.settingsByUser[userID]))
	for k, v := range s.settingsByUser[userID] {
		result[k] = v
	}
	return result, nil
}

func (s *Memory) UpsertCredential(cred model.RemoteCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credsByUser[cred.UserID] = cred
	return nil
}

func (s *Memory) GetCredential(userID string) (model.RemoteCredential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.credsByUser[userID]
	return cred, ok, nil
}

func (s *Memory) CreateAction(action model.ScheduledAction) (model.ScheduledAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextActionID++
	action.ID = s.nextActionID
	action.Status = model.ActionPending
	s.actionsByID[action.ID] = action
	return action, nil
}

func (s *Memory) DueActions(userID string, now time.Time) ([]model.ScheduledAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.ScheduledAction, 0)
	for _, a := range s.actionsByID {
		if a.UserID == userID && a.Status == model.ActionPending && !a.ScheduledTime.After(now) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledTime.Before(result[j].ScheduledTime) })
	return result, nil
}

func (s *Memory) ClaimAction(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.actionsByID[id]
	if !ok || a.Status != model.ActionPending {
		return false, nil
	}
	a.Status = model.ActionPosting
	s.actionsByID[id] = a
	return true, nil
}

func (s *Memory) FinishAction(id int64, status model.ActionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.actionsByID[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	s.actionsByID[id] = a
	return nil
}

func (s *Memory) ListActions(userID string) ([]model.ScheduledAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.ScheduledAction, 0)
	for _, a := range s.actionsByID {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledTime.Before(result[j].ScheduledTime) })
	return result, nil
}

func (s *Memory) AppendLog(entry model.LogEntry) (model.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLogID++
	entry.ID = s.nextLogID
	s.logsByUser[entry.UserID] = append(s.logsByUser[entry.UserID], entry)
	return entry, nil
}

func (s *Memory) ActionStatusCounts(userID string) (map[model.ActionStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[model.ActionStatus]int)
	for _, a := range s.actionsByID {
		if a.UserID == userID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func (s *Memory) LogLevelCounts(userID string, since time.Time) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, entry := range s.logsByUser[userID] {
		if !entry.Timestamp.Before(since) {
			counts[entry.Level]++
		}
	}
	return counts, nil
}

func (s *Memory) RecentLogs(userID string, limit int) ([]model.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	entries := s.logsByUser[userID]
	result := make([]model.LogEntry, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, entries[i])
	}
	return result, nil
}
