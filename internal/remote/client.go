// Package remote talks to the time-tracking service. The wire shapes
// use the server's conventional short field names and are distinct
// from the storage row shapes; mapping is two-way and lossless for
// every synced field.
package remote

import (
	"context"
	"time"

	"github.com/kairos-track/kairos/internal/model"
)

// Credentials authenticate GetUser. Exactly one of Password or
// APIToken is used; APIToken wins when both are set.
type Credentials struct {
	Email    string
	Password string
	APIToken string
}

// ChangesBundle is the server's delta response: every entity type
// changed since the requested time, plus the user and server clock.
type ChangesBundle struct {
	Workspaces  []model.Workspace
	Tags        []model.Tag
	Clients     []model.Client
	Projects    []model.Project
	Tasks       []model.Task
	TimeEntries []model.TimeEntry
	User        *model.User
	ServerTime  time.Time
}

// Records flattens the bundle parent-before-child, the order the
// reducer requires for foreign-key resolution.
func (b ChangesBundle) Records() []model.Record {
	var out []model.Record
	for _, r := range b.Workspaces {
		out = append(out, r)
	}
	for _, r := range b.Tags {
		out = append(out, r)
	}
	for _, r := range b.Clients {
		out = append(out, r)
	}
	for _, r := range b.Projects {
		out = append(out, r)
	}
	for _, r := range b.Tasks {
		out = append(out, r)
	}
	for _, r := range b.TimeEntries {
		out = append(out, r)
	}
	if b.User != nil {
		out = append(out, *b.User)
	}
	return out
}

// Client is the remote service boundary the sync layer consumes.
//
// Records handed to Create/Update/Delete must already carry remote ids
// for every foreign key (the sync layer resolves them first); records
// returned carry the server-assigned remote id and server-computed
// fields merged onto the input's local identity.
type Client interface {
	Create(ctx context.Context, rec model.Record) (model.Record, error)
	Update(ctx context.Context, rec model.Record) (model.Record, error)
	Delete(ctx context.Context, rec model.Record) error

	ListTimeEntries(ctx context.Context, from time.Time, days int) ([]model.TimeEntry, error)
	GetChanges(ctx context.Context, since *time.Time) (ChangesBundle, error)
	GetUser(ctx context.Context, creds Credentials) (*model.User, error)
	Signup(ctx context.Context, creds Credentials) (*model.User, error)
}
