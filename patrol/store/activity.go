package store

import (
	"context"

	"gorm.io/gorm"

	"guardpatrol.com/patrol/patrol/model"
)

func (s *Store) CreatePresenceCheck(ctx context.Context, c *model.PresenceCheck) error {
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Create(c).Error
	})
}

func (s *Store) LastPresence(ctx context.Context, guardID int32) (*model.PresenceCheck, error) {
	var c model.PresenceCheck
	found, err := s.take(ctx, func(db *gorm.DB) error {
		return db.Where("guard_id = ?", guardID).Order("id DESC").Take(&c).Error
	})
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

func (s *Store) RecentPresence(ctx context.Context, guardID int32, limit int) ([]model.PresenceCheck, error) {
	var out []model.PresenceCheck
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Where("guard_id = ?", guardID).Order("id DESC").Limit(limit).Find(&out).Error
	})
	return out, err
}

func (s *Store) CreateLogbookEntry(ctx context.Context, e *model.LogbookEntry) error {
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Create(e).Error
	})
}

func (s *Store) FindLogbookEntry(ctx context.Context, id int32) (*model.LogbookEntry, error) {
	var e model.LogbookEntry
	found, err := s.take(ctx, func(db *gorm.DB) error {
		return db.Where("id = ?", id).Take(&e).Error
	})
	if err != nil || !found {
		return nil, err
	}
	return &e, nil
}

// ListLogbook returns one page of a guard's entries, newest first, and the
// total number of entries.
func (s *Store) ListLogbook(ctx context.Context, guardID int32, limit, offset int) ([]model.LogbookEntry, int64, error) {
	var (
		out   []model.LogbookEntry
		total int64
	)
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		q := db.Model(&model.LogbookEntry{}).Where("guard_id = ?", guardID).Session(&gorm.Session{})
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return q.Order("id DESC").Limit(limit).Offset(offset).Find(&out).Error
	})
	return out, total, err
}

func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Create(n).Error
	})
}

func (s *Store) ListNotifications(ctx context.Context, guardID int32, limit int) ([]model.Notification, error) {
	var out []model.Notification
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Where("guard_id = ?", guardID).Order("sent_at DESC, id DESC").Limit(limit).Find(&out).Error
	})
	return out, err
}

// MarkNotificationRead reports false when the notification does not exist.
func (s *Store) MarkNotificationRead(ctx context.Context, id int32) (bool, error) {
	return notFoundAsFalse(s.dm.Exec(ctx, func(db *gorm.DB) error {
		var n model.Notification
		if err := db.Select("id").Where("id = ?", id).Take(&n).Error; err != nil {
			return err
		}
		return db.Model(&model.Notification{}).Where("id = ?", id).UpdateColumn("is_read", true).Error
	}))
}

func (s *Store) CreatePanicAlert(ctx context.Context, a *model.PanicAlert) error {
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Create(a).Error
	})
}
