package reducer

import (
	"time"

	"github.com/kairos-track/kairos/internal/model"
	"github.com/kairos-track/kairos/internal/state"
)

// Message is the closed set of pipeline inputs. The reducer matches on
// concrete types; a concrete type it does not know passes through as a
// no-op returning the unchanged state. That is deliberate forward
// compatibility, not an error path.
type Message interface {
	isMessage()
}

// TimeEntryContinue starts a new running entry copied from a source
// entry, first stopping whatever is currently running in the same
// batch. An empty SourceID starts from the draft built out of the
// user's defaults.
type TimeEntryContinue struct {
	SourceID string
	Now      time.Time
}

// TimeEntryStop finishes the running entry with the given id.
type TimeEntryStop struct {
	ID  string
	Now time.Time
}

// TimeEntryPut creates or edits an entry. A put of a running entry
// stops any other running entry in the same batch.
type TimeEntryPut struct {
	Entry model.TimeEntry
	Now   time.Time
}

// TimeEntryDelete tombstones an entry, or removes it outright when the
// server has never seen it.
type TimeEntryDelete struct {
	ID  string
	Now time.Time
}

// ReceivedFromSync reconciles server responses to pushed mutations.
type ReceivedFromSync struct {
	Batch []model.Record
}

// ReceivedFromDownload reconciles a pulled bundle of remote entities,
// ordered parent-before-child.
type ReceivedFromDownload struct {
	Batch      []model.Record
	ServerTime time.Time
}

// Reset wipes all durable tables and reinitializes empty state. Used
// for logout; applied synchronously so no later reduce can observe a
// half-wiped store.
type Reset struct{}

// UserDataPut delivers an authentication outcome. On success the user
// row is persisted; on failure the user is cleared and the supplied
// result surfaces through Requests.AuthResult.
type UserDataPut struct {
	User   *model.User
	Result state.AuthResult
}

// SettingsPut applies preference changes.
type SettingsPut struct {
	Opts []state.SettingsOption
}

// SyncRequested asks the sync layer for a delta pull.
type SyncRequested struct {
	Since *time.Time
}

// EntriesDownloadRequested asks for a window of historical entries.
type EntriesDownloadRequested struct {
	From time.Time
	Days int
}

func (TimeEntryContinue) isMessage()        {}
func (TimeEntryStop) isMessage()            {}
func (TimeEntryPut) isMessage()             {}
func (TimeEntryDelete) isMessage()          {}
func (ReceivedFromSync) isMessage()         {}
func (ReceivedFromDownload) isMessage()     {}
func (Reset) isMessage()                    {}
func (UserDataPut) isMessage()              {}
func (SettingsPut) isMessage()              {}
func (SyncRequested) isMessage()            {}
func (EntriesDownloadRequested) isMessage() {}
