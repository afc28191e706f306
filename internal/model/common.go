package model

import (
	"time"

	"github.com/google/uuid"
)

// SyncState drives which remote operation the sync layer issues for a row.
type SyncState int

const (
	// SyncNone is the zero value. Rows must never persist in this state;
	// Touch stamps a pending state on every local mutation.
	SyncNone SyncState = iota
	// SyncCreatePending marks a row that has never been accepted remotely.
	SyncCreatePending
	// SyncUpdatePending marks a remotely-known row with local edits.
	SyncUpdatePending
	// SyncSynced marks a row identical to the server's copy.
	SyncSynced
)

func (s SyncState) String() string {
	switch s {
	case SyncNone:
		return "none"
	case SyncCreatePending:
		return "create-pending"
	case SyncUpdatePending:
		return "update-pending"
	case SyncSynced:
		return "synced"
	default:
		return "unknown"
	}
}

// CommonData is the sync metadata shared by every syncable entity.
//
// ID is the client-generated local identity, stable for the row's whole
// local lifetime. RemoteID stays nil until the server first accepts the
// row. A non-nil DeletedAt is a tombstone: the row is logically deleted
// but retained so the deletion can propagate through sync.
type CommonData struct {
	ID         string     `gorm:"primaryKey" json:"id"`
	RemoteID   *int64     `gorm:"index" json:"remote_id"`
	ModifiedAt time.Time  `json:"modified_at"`
	DeletedAt  *time.Time `json:"deleted_at"`
	SyncState  SyncState  `json:"sync_state"`
}

// NewID generates a fresh local identity.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Touch dirty-marks the metadata for a local mutation: rows without a
// remote identity become create-pending, all others update-pending.
// ModifiedAt is refreshed from the injected clock value.
func (c CommonData) Touch(now time.Time) CommonData {
	if c.RemoteID == nil {
		c.SyncState = SyncCreatePending
	} else {
		c.SyncState = SyncUpdatePending
	}
	c.ModifiedAt = now.UTC()
	return c
}

// Tombstone marks the row logically deleted and dirty.
func (c CommonData) Tombstone(now time.Time) CommonData {
	t := now.UTC()
	c.DeletedAt = &t
	return c.Touch(now)
}

// IsDeleted reports whether the row is a tombstone.
func (c CommonData) IsDeleted() bool {
	return c.DeletedAt != nil
}

// lastTouched is the row's effective conflict timestamp.
func (c CommonData) lastTouched() time.Time {
	if c.DeletedAt != nil && c.DeletedAt.After(c.ModifiedAt) {
		return *c.DeletedAt
	}
	return c.ModifiedAt
}

// Compare is the total order used during remote/local reconciliation.
// Returns > 0 when a wins over b, < 0 when b wins, 0 on a tie.
//
// A tombstone always wins over a live row. When both or neither are
// deleted, the later of DeletedAt/ModifiedAt wins. The order is total,
// so concurrent edit/delete conflicts resolve the same way regardless
// of arrival order.
func Compare(a, b CommonData) int {
	if a.IsDeleted() != b.IsDeleted() {
		if a.IsDeleted() {
			return 1
		}
		return -1
	}
	at, bt := a.lastTouched(), b.lastTouched()
	switch {
	case at.After(bt):
		return 1
	case bt.After(at):
		return -1
	default:
		return 0
	}
}
