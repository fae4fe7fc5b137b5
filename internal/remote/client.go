// Package remote abstracts the external content service: authenticate with
// a user's own API credentials, list recent items in a channel, publish.
package remote

import (
	"context"
	"errors"
	"time"

	"feedpilot/internal/model"
)

var (
	ErrAuth    = errors.New("remote authentication failed")
	ErrFetch   = errors.New("remote fetch failed")
	ErrPublish = errors.New("remote publish failed")
)

// Item is one piece of content in a channel.
type Item struct {
	Title     string
	CreatedAt time.Time
}

// Client authenticates credentials and hands back a live session.
type Client interface {
	Authenticate(ctx context.Context, creds model.RemoteCredential, password string) (Session, error)
}

// Session is an authenticated handle on the remote service. A stored
// credential does not imply the handle is still valid; Identity probes it.
type Session interface {
	Identity(ctx context.Context) (string, error)
	ListRecent(ctx context.Context, channel string, limit int) ([]Item, error)
	Publish(ctx context.Context, channel, title, body string) error
}
