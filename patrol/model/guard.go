package model

import (
	"strings"
	"time"
)

type Guard struct {
	ID           int32  `gorm:"primaryKey;column:id" json:"id"`
	Rut          string `gorm:"column:rut;type:varchar(12);not null;uniqueIndex" json:"rut"`
	FirstName    string `gorm:"column:first_name;type:varchar(80)" json:"firstName"`
	LastName     string `gorm:"column:last_name;type:varchar(80)" json:"lastName"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(100)" json:"-"`
	Active       bool   `gorm:"column:active;not null;default:false" json:"active"`
}

func (Guard) TableName() string {
	return "guards"
}

type Supervisor struct {
	ID           int32  `gorm:"primaryKey;column:id" json:"id"`
	Rut          string `gorm:"column:rut;type:varchar(12);not null;uniqueIndex" json:"rut"`
	Name         string `gorm:"column:name;type:varchar(120)" json:"name"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(100)" json:"-"`
}

func (Supervisor) TableName() string {
	return "supervisors"
}

// Shift is a guard's check-in at a post. EndedAt is nil while the shift is open.
type Shift struct {
	ID        int32      `gorm:"primaryKey;column:id" json:"id"`
	GuardID   int32      `gorm:"column:guard_id;not null;index" json:"guardId"`
	PostID    int32      `gorm:"column:post_id;not null" json:"postId"`
	StartedAt time.Time  `gorm:"column:started_at;type:timestamp;not null" json:"startedAt"`
	EndedAt   *time.Time `gorm:"column:ended_at;type:timestamp;null" json:"endedAt"`
}

func (Shift) TableName() string {
	return "shifts"
}

type PresenceCheck struct {
	ID        int32     `gorm:"primaryKey;column:id" json:"id"`
	GuardID   int32     `gorm:"column:guard_id;not null;index" json:"guardId"`
	PostID    int32     `gorm:"column:post_id;not null" json:"postId"`
	Latitude  *float64  `gorm:"column:latitude" json:"latitude"`
	Longitude *float64  `gorm:"column:longitude" json:"longitude"`
	CheckedAt time.Time `gorm:"column:checked_at;type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"checkedAt"`
}

func (PresenceCheck) TableName() string {
	return "presence_checks"
}

func (g *Guard) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}
