package model

import (
	"strings"
	"time"
)

type LogKind string

const (
	LogNotification LogKind = "NOTIFICATION"
	LogObservation  LogKind = "OBSERVATION"
	LogIncident     LogKind = "INCIDENT"
)

// NormalizeLogKind maps free-form client input onto a LogKind. Anything
// unrecognised is filed as a notification.
func NormalizeLogKind(s string) LogKind {
	switch k := LogKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case LogObservation, LogIncident:
		return k
	}
	return LogNotification
}

type LogbookEntry struct {
	ID          int32     `gorm:"primaryKey;column:id" json:"id"`
	GuardID     int32     `gorm:"column:guard_id;not null;index" json:"guardId"`
	Kind        LogKind   `gorm:"column:kind;type:varchar(16);not null" json:"kind"`
	Description string    `gorm:"column:description;type:text;not null" json:"description"`
	PhotoKey    *string   `gorm:"column:photo_key;type:varchar(255)" json:"photoKey,omitempty"`
	CreatedAt   time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt"`
}

func (LogbookEntry) TableName() string {
	return "logbook_entries"
}

type Notification struct {
	ID      int32     `gorm:"primaryKey;column:id" json:"id"`
	GuardID int32     `gorm:"column:guard_id;not null;index" json:"guardId"`
	Message string    `gorm:"column:message;type:text;not null" json:"message"`
	Read    bool      `gorm:"column:is_read;not null;default:false" json:"read"`
	SentAt  time.Time `gorm:"column:sent_at;type:timestamp;not null" json:"sentAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

type PanicAlert struct {
	ID        int32     `gorm:"primaryKey;column:id" json:"id"`
	GuardID   int32     `gorm:"column:guard_id;not null;index" json:"guardId"`
	PostID    *int32    `gorm:"column:post_id" json:"postId"`
	Latitude  float64   `gorm:"column:latitude;not null" json:"latitude"`
	Longitude float64   `gorm:"column:longitude;not null" json:"longitude"`
	RaisedAt  time.Time `gorm:"column:raised_at;type:timestamp;not null" json:"raisedAt"`
}

func (PanicAlert) TableName() string {
	return "panic_alerts"
}

// All lists every table of the schema in dependency order.
func All() []any {
	return []any{
		&Post{},
		&Route{},
		&Checkpoint{},
		&Guard{},
		&Supervisor{},
		&Round{},
		&Marking{},
		&Shift{},
		&PresenceCheck{},
		&LogbookEntry{},
		&Notification{},
		&PanicAlert{},
	}
}
