// Package audit records task lifecycle events in the SQLite database.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EventSessionNew  = "session_new"
	EventTaskNew     = "task_new"
	EventTaskDone    = "task_done"
	EventTaskFail    = "task_fail"
	EventTaskAbandon = "task_abandon"
	EventTaskReject  = "task_reject"
)

type Entry struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index:idx_audit_timestamp"`
	EventType string    `gorm:"column:event_type;not null"`
	SessionID string    `gorm:"column:session_id;not null;default:''"`
	TaskID    string    `gorm:"column:task_id;not null;default:'';index:idx_audit_task"`
	UserID    string    `gorm:"column:user_id;not null;default:''"`
	Detail    string    `gorm:"column:detail;not null;default:''"`
}

func (Entry) TableName() string {
	return "task_audit"
}

// Event is one thing that happened to a task or session. Detail is stored as
// is when it is a string and as JSON otherwise.
type Event struct {
	Type      string
	SessionID string
	TaskID    string
	UserID    string
	Detail    any
}

type Logger struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) (*Logger, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("audit: running migrations: %w", err)
	}

	return &Logger{db: db, now: time.Now}, nil
}

func (l *Logger) Log(ctx context.Context, ev Event) error {
	entry := &Entry{
		ID:        uuid.NewString(),
		Timestamp: l.now().UTC(),
		EventType: ev.Type,
		SessionID: ev.SessionID,
		TaskID:    ev.TaskID,
		UserID:    ev.UserID,
		Detail:    detailString(ev.Detail),
	}

	if err := l.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("audit: writing %s entry: %w", ev.Type, err)
	}
	return nil
}

func detailString(detail any) string {
	switch v := detail.(type) {
	case nil:
		return ""
	case string:
		return v
	case error:
		return v.Error()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

type Filter struct {
	EventType string
	SessionID string
	TaskID    string
	Since     time.Time
	Until     time.Time
	Limit     int
}

// Query returns matching entries, newest first.
func (l *Logger) Query(ctx context.Context, f Filter) ([]Entry, error) {
	q := l.db.WithContext(ctx)

	if f.EventType != "" {
		q = q.Where("event_type = ?", f.EventType)
	}
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if f.TaskID != "" {
		q = q.Where("task_id = ?", f.TaskID)
	}
	if !f.Since.IsZero() {
		q = q.Where("timestamp >= ?", f.Since)
	}
	if !f.Until.IsZero() {
		q = q.Where("timestamp <= ?", f.Until)
	}

	q = q.Order("timestamp DESC")

	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var entries []Entry
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("audit: querying entries: %w", err)
	}
	return entries, nil
}
