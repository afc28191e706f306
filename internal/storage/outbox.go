package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SyncQueue is the queue id for locally-originated mutations awaiting
// transmission.
const SyncQueue = "SYNC_OUT"

// outboxRow is the persisted shape of one queued item. Payload content
// is opaque to the store; the sync layer tags items with a kind so
// heterogeneous entries deserialize back to their concrete type.
type outboxRow struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Queue     string `gorm:"index"`
	Kind      string
	RawData   []byte
	CreatedAt time.Time
}

// QueueItem is one dequeued outbox entry.
type QueueItem struct {
	ID      uint
	Kind    string
	RawData []byte
}

// Enqueue appends an item to the back of the named queue.
func (s *Store) Enqueue(ctx context.Context, queue, kind string, raw []byte) error {
	row := outboxRow{Queue: queue, Kind: kind, RawData: raw}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("enqueue %s: %w", queue, err)
	}
	return nil
}

// Peek returns the head of the queue without removing it. The second
// return is false when the queue is empty.
func (s *Store) Peek(ctx context.Context, queue string) (QueueItem, bool, error) {
	var row outboxRow
	err := s.db.WithContext(ctx).
		Where("queue = ?", queue).
		Order("id ASC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return QueueItem{}, false, nil
	}
	if err != nil {
		return QueueItem{}, false, fmt.Errorf("peek %s: %w", queue, err)
	}
	return QueueItem{ID: row.ID, Kind: row.Kind, RawData: row.RawData}, true, nil
}

// Dequeue removes a previously peeked item. Items are only removed
// after the caller has a server acknowledgment, so a crash between
// send and dequeue re-sends rather than loses.
func (s *Store) Dequeue(ctx context.Context, queue string, id uint) error {
	if err := s.db.WithContext(ctx).
		Where("queue = ? AND id = ?", queue, id).
		Delete(&outboxRow{}).Error; err != nil {
		return fmt.Errorf("dequeue %s: %w", queue, err)
	}
	return nil
}

// QueueSize reports the number of items waiting in the queue.
func (s *Store) QueueSize(ctx context.Context, queue string) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).
		Model(&outboxRow{}).
		Where("queue = ?", queue).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("size %s: %w", queue, err)
	}
	return n, nil
}

// ResetQueue drops every item in the queue.
func (s *Store) ResetQueue(ctx context.Context, queue string) error {
	if err := s.db.WithContext(ctx).
		Where("queue = ?", queue).
		Delete(&outboxRow{}).Error; err != nil {
		return fmt.Errorf("reset %s: %w", queue, err)
	}
	return nil
}
