// Package audit records one structured event per write attempt and exposes
// the recent history over HTTP. Writes are dispatched through a bounded
// async sink so a slow audit store never blocks the request path.
package audit

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pharmatrace/batch-registry/pkg/model"
)

// Record is a persisted audit event.
type Record struct {
	ID         string        `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Actor      string        `gorm:"column:actor;index" json:"actor"`
	Entity     string        `gorm:"column:entity;index" json:"entity"`
	EntityID   string        `gorm:"column:entity_id;index" json:"entityId,omitempty"`
	Action     string        `gorm:"column:action" json:"action"`
	Outcome    string        `gorm:"column:outcome" json:"outcome"`
	StatusCode int           `gorm:"column:status_code" json:"statusCode,omitempty"`
	RequestID  string        `gorm:"column:request_id" json:"requestId,omitempty"`
	Detail     model.JSONMap `gorm:"column:detail;type:text" json:"detail,omitempty"`
	CreatedAt  time.Time     `gorm:"column:created_at;index" json:"createdAt"`
}

// TableName keeps the audit table apart from the domain tables.
func (Record) TableName() string {
	return "audit_records"
}

// Store persists audit records.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new audit Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the audit table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("auto-migrate audit_records: %w", err)
	}
	return nil
}

// Append persists a single record.
func (s *Store) Append(rec *Record) error {
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// List returns records newest first, with offset pagination.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Record, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	var total int64
	if err := s.db.WithContext(ctx).Model(&Record{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count audit records: %w", err)
	}
	var records []Record
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list audit records: %w", err)
	}
	return records, total, nil
}

// DeleteOlderThan removes records created before the cutoff. Returns the
// number of rows removed.
func (s *Store) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res := s.db.Where("created_at < ?", cutoff).Delete(&Record{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete old audit records: %w", res.Error)
	}
	return res.RowsAffected, nil
}
