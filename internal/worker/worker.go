// Package worker runs one background monitoring loop per user: it
// dispatches due scheduled actions and samples watched channels, emitting
// activity log entries for both.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"feedpilot/internal/activity"
	"feedpilot/internal/model"
	"feedpilot/internal/remote"
	"feedpilot/internal/store"
)

const (
	recentItemLimit = 5
	freshItemAge    = time.Hour
	titlePreviewLen = 50
	stopJoinTimeout = 5 * time.Second
)

type Options struct {
	PollInterval time.Duration
	ErrorBackoff time.Duration
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 30 * time.Second
	}
	if o.ErrorBackoff <= 0 {
		o.ErrorBackoff = 60 * time.Second
	}
	return o
}

// Worker is the per-user monitoring unit. One instance exists per user id
// for the lifetime of the process; the registry enforces that.
type Worker struct {
	userID   string
	store    store.Store
	activity *activity.Log
	client   remote.Client
	opts     Options

	mu      sync.Mutex
	session remote.Session
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(userID string, st store.Store, act *activity.Log, client remote.Client, opts Options) *Worker {
	return &Worker{
		userID:   userID,
		store:    st,
		activity: act,
		client:   client,
		opts:     opts.withDefaults(),
	}
}

// Connect authenticates the user's credentials and probes identity. On
// success the live session replaces any previous one; on failure the
// previous session is left untouched.
func (w *Worker) Connect(ctx context.Context, creds model.RemoteCredential, password string) bool {
	sess, err := w.client.Authenticate(ctx, creds, password)
	if err != nil {
		w.activity.Error(w.userID, "Failed to connect to remote service: "+err.Error(), "")
		return false
	}
	name, err := sess.Identity(ctx)
	if err != nil {
		w.activity.Error(w.userID, "Failed to connect to remote service: "+err.Error(), "")
		return false
	}

	w.mu.Lock()
	w.session = sess
	w.mu.Unlock()

	w.activity.Info(w.userID, "Successfully connected to remote service as "+name, "")
	return true
}

// Start spawns the monitoring loop. It returns false if the loop is
// already running or no session has been established.
func (w *Worker) Start() bool {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return false
	}
	if w.session == nil {
		w.mu.Unlock()
		w.activity.Error(w.userID, "Remote connection not established", "")
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.running = true
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(ctx, w.done)
	w.mu.Unlock()

	w.activity.Info(w.userID, "Monitoring started", "")
	return true
}

// Stop cancels the loop and waits for it to exit, bounded by
// stopJoinTimeout. Cancellation is cooperative: an in-flight iteration
// finishes its current call first. Stop is idempotent.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running || w.cancel == nil {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	done := w.done
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(stopJoinTimeout):
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.activity.Info(w.userID, "Monitoring stopped", "")
}

// Status reports the running flag and whether a session is established.
func (w *Worker) Status() (running, connected bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running, w.session != nil
}

func (w *Worker) GetSetting(key, fallback string) (string, error) {
	return w.store.GetSetting(w.userID, key, fallback)
}

func (w *Worker) SetSetting(key, value string) error {
	return w.store.SetSetting(w.userID, key, value)
}

func (w *Worker) currentSession() remote.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

func (w *Worker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		interval := w.opts.PollInterval
		if err := w.iterate(ctx); err != nil {
			w.activity.Error(w.userID, "Error in monitoring loop: "+err.Error(), "")
			interval = w.opts.ErrorBackoff
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// iterate runs one loop body: dispatch due actions, then sample watched
// channels. Panics are recovered and treated like any other iteration
// error; nothing here may kill the loop.
func (w *Worker) iterate(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	sess := w.currentSession()
	if sess == nil {
		return errors.New("remote session missing")
	}

	if err := w.dispatchDue(ctx, sess); err != nil {
		return err
	}
	return w.sampleChannels(ctx, sess)
}

// dispatchDue publishes every pending action whose scheduled time has
// passed. Each action is attempted at most once: it is claimed in the
// store before the publish call, and failure is terminal.
func (w *Worker) dispatchDue(ctx context.Context, sess remote.Session) error {
	actions, err := w.store.DueActions(w.userID, time.Now())
	if err != nil {
		return err
	}

	for _, action := range actions {
		won, err := w.store.ClaimAction(action.ID)
		if err != nil {
			return err
		}
		if !won {
			continue
		}

		if err := sess.Publish(ctx, action.Channel, action.Title, action.Body); err != nil {
			if ferr := w.store.FinishAction(action.ID, model.ActionFailed); ferr != nil {
				return ferr
			}
			w.activity.Error(w.userID, "Failed to post scheduled content: "+err.Error(), action.Channel)
			continue
		}

		if err := w.store.FinishAction(action.ID, model.ActionPosted); err != nil {
			return err
		}
		w.activity.Info(w.userID, "Posted scheduled content: "+action.Title, action.Channel)
	}
	return nil
}

// sampleChannels reads the watched-channel list and logs fresh items. A
// failure on one channel does not stop sampling of the rest.
func (w *Worker) sampleChannels(ctx context.Context, sess remote.Session) error {
	raw, err := w.store.GetSetting(w.userID, model.SettingWatchedChannels, "")
	if err != nil {
		return err
	}

	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		w.sampleChannel(ctx, sess, name)
	}
	return nil
}

func (w *Worker) sampleChannel(ctx context.Context, sess remote.Session, channel string) {
	items, err := sess.ListRecent(ctx, channel, recentItemLimit)
	if err != nil {
		w.activity.Error(w.userID, "Error monitoring "+channel+": "+err.Error(), channel)
		return
	}

	for _, item := range items {
		if time.Since(item.CreatedAt) < freshItemAge {
			w.activity.Info(w.userID, "New post: "+truncate(item.Title, titlePreviewLen)+"...", channel)
		}
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
