package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kairos-track/kairos/internal/model"
)

// RowDelete identifies a row to remove hard.
type RowDelete struct {
	Kind model.Kind
	ID   string
}

// Update applies a batch of puts and deletes in one transaction and
// returns the post-write canonical rows for every put. Callers must
// rebuild their in-memory index from the returned rows, not from the
// inputs, so the cache matches durable storage even when the store
// applies defaults.
func (s *Store) Update(ctx context.Context, puts []model.Record, deletes []RowDelete) ([]model.Record, error) {
	var canonical []model.Record
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range puts {
			out, err := upsert(tx, rec)
			if err != nil {
				return fmt.Errorf("put %s %s: %w", rec.Kind(), rec.Meta().ID, err)
			}
			canonical = append(canonical, out)
		}
		for _, del := range deletes {
			if err := hardDelete(tx, del); err != nil {
				return fmt.Errorf("delete %s %s: %w", del.Kind, del.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return canonical, nil
}

func put[T model.Record](tx *gorm.DB, rec T) (model.Record, error) {
	if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
		return nil, err
	}
	var out T
	if err := tx.First(&out, "id = ?", rec.Meta().ID).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func upsert(tx *gorm.DB, rec model.Record) (model.Record, error) {
	switch r := rec.(type) {
	case model.Workspace:
		return put(tx, r)
	case model.Tag:
		return put(tx, r)
	case model.Client:
		return put(tx, r)
	case model.Project:
		return put(tx, r)
	case model.Task:
		return put(tx, r)
	case model.TimeEntry:
		return put(tx, r)
	case model.User:
		return put(tx, r)
	case model.WorkspaceUser:
		return put(tx, r)
	case model.ProjectUser:
		return put(tx, r)
	default:
		return nil, fmt.Errorf("unknown record kind %q", rec.Kind())
	}
}

func hardDelete(tx *gorm.DB, del RowDelete) error {
	dst, err := zeroRowFor(del.Kind)
	if err != nil {
		return err
	}
	return tx.Delete(dst, "id = ?", del.ID).Error
}

func zeroRowFor(kind model.Kind) (any, error) {
	switch kind {
	case model.KindWorkspace:
		return &model.Workspace{}, nil
	case model.KindTag:
		return &model.Tag{}, nil
	case model.KindClient:
		return &model.Client{}, nil
	case model.KindProject:
		return &model.Project{}, nil
	case model.KindTask:
		return &model.Task{}, nil
	case model.KindTimeEntry:
		return &model.TimeEntry{}, nil
	case model.KindUser:
		return &model.User{}, nil
	case model.KindWorkspaceUser:
		return &model.WorkspaceUser{}, nil
	case model.KindProjectUser:
		return &model.ProjectUser{}, nil
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}

func table[T model.Record](ctx context.Context, db *gorm.DB, out *[]model.Record) error {
	var rows []T
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return err
	}
	for _, r := range rows {
		*out = append(*out, r)
	}
	return nil
}

// All reads every entity row, parent-before-child, for snapshot init.
func (s *Store) All(ctx context.Context) ([]model.Record, error) {
	var out []model.Record
	loaders := []func(context.Context, *gorm.DB, *[]model.Record) error{
		table[model.Workspace],
		table[model.Tag],
		table[model.Client],
		table[model.Project],
		table[model.Task],
		table[model.TimeEntry],
		table[model.User],
		table[model.WorkspaceUser],
		table[model.ProjectUser],
	}
	for _, load := range loaders {
		if err := load(ctx, s.db, &out); err != nil {
			return nil, fmt.Errorf("load rows: %w", err)
		}
	}
	return out, nil
}

// WipeTables removes every entity row and resets the outbox. Used for
// logout; runs in one transaction so no reader observes a half-wiped
// store.
func (s *Store) WipeTables(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, kind := range model.BatchOrder {
			dst, err := zeroRowFor(kind)
			if err != nil {
				return err
			}
			if err := tx.Where("1 = 1").Delete(dst).Error; err != nil {
				return fmt.Errorf("wipe %s: %w", kind, err)
			}
		}
		if err := tx.Where("1 = 1").Delete(&outboxRow{}).Error; err != nil {
			return fmt.Errorf("wipe outbox: %w", err)
		}
		return nil
	})
}
