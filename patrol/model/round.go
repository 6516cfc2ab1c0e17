package model

import "time"

type Round struct {
	ID            int32       `gorm:"primaryKey;column:id" json:"id"`
	GuardID       int32       `gorm:"column:guard_id;not null;index" json:"guardId"`
	RouteID       int32       `gorm:"column:route_id;not null;index" json:"routeId"`
	Date          string      `gorm:"column:date;type:varchar(10);not null;index" json:"date"`
	ScheduledTime string      `gorm:"column:scheduled_time;type:varchar(8)" json:"scheduledTime"`
	Status        RoundStatus `gorm:"column:status;type:varchar(16);not null;default:PENDING" json:"status"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP on update CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (Round) TableName() string {
	return "rounds"
}

// Marking is a successful checkpoint scan within a round. Rows are never
// updated or deleted.
type Marking struct {
	ID           int32     `gorm:"primaryKey;column:id" json:"id"`
	RoundID      int32     `gorm:"column:round_id;not null;uniqueIndex:idx_round_checkpoint,priority:1" json:"roundId"`
	CheckpointID int32     `gorm:"column:checkpoint_id;not null;uniqueIndex:idx_round_checkpoint,priority:2" json:"checkpointId"`
	Latitude     *float64  `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude    *float64  `gorm:"column:longitude" json:"longitude,omitempty"`
	MarkedAt     time.Time `gorm:"column:marked_at;type:timestamp;not null" json:"markedAt"`
}

func (Marking) TableName() string {
	return "markings"
}
