package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"feedpilot/internal/activity"
	"feedpilot/internal/auth"
	"feedpilot/internal/hub"
	"feedpilot/internal/model"
	"feedpilot/internal/remote"
	"feedpilot/internal/session"
	"feedpilot/internal/store"
	"feedpilot/internal/worker"
)

type stubSession struct{}

func (stubSession) Identity(ctx context.Context) (string, error) { return "alice", nil }
func (stubSession) ListRecent(ctx context.Context, channel string, limit int) ([]remote.Item, error) {
	return nil, nil
}
func (stubSession) Publish(ctx context.Context, channel, title, body string) error { return nil }

type stubClient struct {
	fail bool
}

func (c *stubClient) Authenticate(ctx context.Context, creds model.RemoteCredential, password string) (remote.Session, error) {
	if c.fail {
		return nil, remote.ErrAuth
	}
	return stubSession{}, nil
}

func testDeps(client remote.Client) Deps {
	st := store.NewMemory()
	wsHub := hub.New()
	act := activity.NewLog(st, wsHub)
	return Deps{
		Store:    st,
		Sessions: session.NewMemory(),
		Workers: worker.NewRegistry(st, act, client, worker.Options{
			PollInterval: 5 * time.Millisecond,
			ErrorBackoff: 5 * time.Millisecond,
		}),
		Activity:    act,
		Hub:         wsHub,
		TokenConfig: testTokenConfig(),
	}
}

func postJSON(t *testing.T, r *gin.Engine, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func getJSON(t *testing.T, r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, r *gin.Engine) string {
	t.Helper()

	w := postJSON(t, r, "/api/register", "", map[string]string{"username": "alice", "password": "pw", "email": "a@example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = postJSON(t, r, "/api/login", "", map[string]string{"username": "alice", "password": "pw"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatalf("expected token in login response: %s", w.Body.String())
	}
	return token
}

func TestRegisterLoginFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(testDeps(&stubClient{}))

	token := registerAndLogin(t, r)

	// Duplicate registration is rejected.
	w := postJSON(t, r, "/api/register", "", map[string]string{"username": "alice", "password": "pw2"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate username, got %d", w.Code)
	}

	// Wrong password is rejected.
	w = postJSON(t, r, "/api/login", "", map[string]string{"username": "alice", "password": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", w.Code)
	}

	w = getJSON(t, r, "/api/check-auth", token)
	var check map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &check)
	if check["authenticated"] != true || check["username"] != "alice" {
		t.Fatalf("unexpected check-auth response: %s", w.Body.String())
	}

	w = getJSON(t, r, "/api/check-auth", "")
	_ = json.Unmarshal(w.Body.Bytes(), &check)
	if check["authenticated"] != false {
		t.Fatalf("expected unauthenticated: %s", w.Body.String())
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(testDeps(&stubClient{}))

	for _, path := range []string{"/api/status", "/api/logs", "/api/settings"} {
		w := getJSON(t, r, path, "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, w.Code)
		}
	}
	if w := postJSON(t, r, "/api/start", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("start: expected 401, got %d", w.Code)
	}
}

func TestConnectStartStopStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps := testDeps(&stubClient{})
	r := NewRouter(deps)
	token := registerAndLogin(t, r)

	// Start before connect fails.
	w := postJSON(t, r, "/api/start", token, nil)
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["success"] != false {
		t.Fatalf("expected start to fail before connect: %s", w.Body.String())
	}

	creds := map[string]string{
		"client_id": "cid", "client_secret": "cs",
		"username": "alice", "password": "pw", "user_agent": "agent/1",
	}
	w = postJSON(t, r, "/api/connect", token, creds)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["success"] != true {
		t.Fatalf("expected connect success: %s", w.Body.String())
	}

	// Credentials were persisted on success, without the password.
	stored, ok, err := deps.Store.GetCredential(userIDFor(t, deps, "alice"))
	if err != nil || !ok {
		t.Fatalf("expected stored credential, ok=%v err=%v", ok, err)
	}
	if stored.ClientID != "cid" || stored.UserAgent != "agent/1" {
		t.Fatalf("unexpected stored credential: %+v", stored)
	}

	w = postJSON(t, r, "/api/start", token, nil)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["success"] != true {
		t.Fatalf("expected start success: %s", w.Body.String())
	}

	w = getJSON(t, r, "/api/status", token)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["running"] != true || resp["connected"] != true {
		t.Fatalf("unexpected status: %s", w.Body.String())
	}
	if resp["username"] != "alice" {
		t.Fatalf("expected username in status: %s", w.Body.String())
	}

	w = postJSON(t, r, "/api/stop", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stop: expected 200, got %d", w.Code)
	}
	w = getJSON(t, r, "/api/status", token)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["running"] != false {
		t.Fatalf("expected stopped: %s", w.Body.String())
	}
}

func TestConnectFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps := testDeps(&stubClient{fail: true})
	r := NewRouter(deps)
	token := registerAndLogin(t, r)

	creds := map[string]string{"client_id": "cid", "client_secret": "cs", "username": "alice", "password": "pw", "user_agent": "a"}
	w := postJSON(t, r, "/api/connect", token, creds)
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["success"] != false {
		t.Fatalf("expected connect failure: %s", w.Body.String())
	}

	// Nothing persisted on failure.
	if _, ok, _ := deps.Store.GetCredential(userIDFor(t, deps, "alice")); ok {
		t.Fatalf("credentials must not be stored on failed connect")
	}
}

func TestLogoutStopsWorkerAndRevokesToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps := testDeps(&stubClient{})
	r := NewRouter(deps)
	token := registerAndLogin(t, r)

	creds := map[string]string{"client_id": "c", "client_secret": "s", "username": "alice", "password": "pw", "user_agent": "a"}
	postJSON(t, r, "/api/connect", token, creds)
	postJSON(t, r, "/api/start", token, nil)

	w := postJSON(t, r, "/api/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}

	userID := userIDFor(t, deps, "alice")
	worker, ok := deps.Workers.Lookup(userID)
	if !ok {
		t.Fatalf("expected worker to remain registered")
	}
	if running, _ := worker.Status(); running {
		t.Fatalf("expected worker stopped after logout")
	}

	// The token no longer works.
	if w := getJSON(t, r, "/api/status", token); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}
}

func TestScheduleAndSettingsAndLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps := testDeps(&stubClient{})
	r := NewRouter(deps)
	token := registerAndLogin(t, r)

	w := postJSON(t, r, "/api/schedule-post", token, map[string]string{
		"title":          "Hello",
		"content":        "body",
		"channel":        "news",
		"scheduled_time": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("schedule: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = postJSON(t, r, "/api/schedule-post", token, map[string]string{"title": "Bad", "channel": "news", "scheduled_time": "not-a-time"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad time, got %d", w.Code)
	}

	w = getJSON(t, r, "/api/scheduled-posts", token)
	var listResp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &listResp)
	posts, _ := listResp["posts"].([]any)
	if len(posts) != 1 {
		t.Fatalf("expected 1 scheduled post, got %s", w.Body.String())
	}

	w = postJSON(t, r, "/api/settings", token, map[string]string{model.SettingWatchedChannels: "news,tech"})
	if w.Code != http.StatusOK {
		t.Fatalf("settings update: expected 200, got %d", w.Code)
	}
	w = getJSON(t, r, "/api/settings", token)
	var settings map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &settings)
	if settings[model.SettingWatchedChannels] != "news,tech" {
		t.Fatalf("unexpected settings: %s", w.Body.String())
	}

	// Scheduling wrote an activity entry.
	w = getJSON(t, r, "/api/logs", token)
	var logs []map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &logs)
	found := false
	for _, entry := range logs {
		if entry["message"] == "Scheduled post: Hello" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected scheduling log entry: %s", w.Body.String())
	}
}

func TestCheckAuthRequiresExistingUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps := testDeps(&stubClient{})
	r := NewRouter(deps)

	// A valid token with a live session, but no matching user record.
	token, err := auth.CreateToken("ghost", "ghost", deps.TokenConfig)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	claims, err := auth.VerifyToken(token, deps.TokenConfig)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if err := deps.Sessions.Add(claims.ID, "ghost", time.Hour); err != nil {
		t.Fatalf("Add: %v", err)
	}

	w := getJSON(t, r, "/api/check-auth", token)
	var check map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &check)
	if check["authenticated"] != false {
		t.Fatalf("expected unauthenticated for missing user: %s", w.Body.String())
	}
}

func TestAnalyticsSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps := testDeps(&stubClient{})
	r := NewRouter(deps)
	token := registerAndLogin(t, r)

	for _, title := range []string{"One", "Two"} {
		w := postJSON(t, r, "/api/schedule-post", token, map[string]string{
			"title":          title,
			"channel":        "news",
			"scheduled_time": time.Now().Add(time.Hour).Format(time.RFC3339),
		})
		if w.Code != http.StatusOK {
			t.Fatalf("schedule: expected 200, got %d", w.Code)
		}
	}
	actions, err := deps.Store.ListActions(userIDFor(t, deps, "alice"))
	if err != nil || len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d err=%v", len(actions), err)
	}
	if err := deps.Store.FinishAction(actions[0].ID, model.ActionPosted); err != nil {
		t.Fatalf("FinishAction: %v", err)
	}

	w := getJSON(t, r, "/api/analytics", token)
	if w.Code != http.StatusOK {
		t.Fatalf("analytics: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Days  int `json:"days"`
		Posts struct {
			Total   int `json:"total"`
			Pending int `json:"pending"`
			Posted  int `json:"posted"`
			Failed  int `json:"failed"`
		} `json:"posts"`
		Activity struct {
			Total  int `json:"total"`
			Info   int `json:"info"`
			Errors int `json:"errors"`
		} `json:"activity"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Days != 30 {
		t.Fatalf("expected default 30 day window, got %d", resp.Days)
	}
	if resp.Posts.Total != 2 || resp.Posts.Pending != 1 || resp.Posts.Posted != 1 {
		t.Fatalf("unexpected post counts: %s", w.Body.String())
	}
	// Scheduling produced two INFO activity entries.
	if resp.Activity.Info != 2 || resp.Activity.Errors != 0 {
		t.Fatalf("unexpected activity counts: %s", w.Body.String())
	}

	if w := getJSON(t, r, "/api/analytics?days=0", token); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad days, got %d", w.Code)
	}
}

func userIDFor(t *testing.T, deps Deps, username string) string {
	t.Helper()

	user, ok, err := deps.Store.GetUserByUsername(username)
	if err != nil || !ok {
		t.Fatalf("user %q not found: %v", username, err)
	}
	return user.ID
}
