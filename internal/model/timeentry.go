package model

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// EntryState is derived from the entry's Stop field, never stored.
type EntryState int

const (
	// EntryRunning means the entry has started and has no stop time.
	EntryRunning EntryState = iota + 1
	// EntryFinished means the entry has both start and stop times.
	EntryFinished
)

func (s EntryState) String() string {
	if s == EntryRunning {
		return "running"
	}
	return "finished"
}

// TimeEntry is a tracked span of work. Foreign keys are local ids with
// a parallel remote id per relation; the sync layer rebuilds whichever
// side is missing. Tags are referenced by normalized name within the
// entry's workspace and resolved at read time.
type TimeEntry struct {
	CommonData `gorm:"embedded"`

	Description       string     `json:"description"`
	Start             time.Time  `json:"start"`
	Stop              *time.Time `json:"stop"`
	Billable          bool       `json:"billable"`
	DurationOnly      bool       `json:"duration_only"`
	WorkspaceID       string     `gorm:"index" json:"workspace_id"`
	WorkspaceRemoteID *int64     `json:"workspace_remote_id"`
	ProjectID         *string    `gorm:"index" json:"project_id"`
	ProjectRemoteID   *int64     `json:"project_remote_id"`
	TaskID            *string    `json:"task_id"`
	TaskRemoteID      *int64     `json:"task_remote_id"`
	UserID            string     `gorm:"index" json:"user_id"`
	UserRemoteID      *int64     `json:"user_remote_id"`
	TagNames          TagList    `gorm:"serializer:json" json:"tag_names"`
}

func (e TimeEntry) Kind() Kind                   { return KindTimeEntry }
func (e TimeEntry) Meta() CommonData             { return e.CommonData }
func (e TimeEntry) WithMeta(m CommonData) Record { e.CommonData = m; return e }

// State reports whether the entry is currently running. Tombstoned
// entries are never running.
func (e TimeEntry) State() EntryState {
	if e.Stop == nil && !e.IsDeleted() {
		return EntryRunning
	}
	return EntryFinished
}

// Duration returns the elapsed span, using now for a running entry.
func (e TimeEntry) Duration(now time.Time) time.Duration {
	if e.Stop != nil {
		return e.Stop.Sub(e.Start)
	}
	return now.Sub(e.Start)
}

// TagList is a set of normalized tag names stored as a JSON column.
type TagList []string

// Contains reports membership under tag-name normalization.
func (l TagList) Contains(name string) bool {
	want := NormalizeTagName(name)
	for _, n := range l {
		if NormalizeTagName(n) == want {
			return true
		}
	}
	return false
}

// NormalizeTagName canonicalizes a tag name for comparison: NFC
// normalization, surrounding whitespace trimmed, case folded. Entries
// reference tags by name, so two spellings of the same name must
// resolve to the same tag row.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(name)))
}
