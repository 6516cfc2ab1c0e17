package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	patrol "guardpatrol.com/patrol/patrol/core"
	"guardpatrol.com/patrol/patrol/model"
)

func (s *Store) FindGuardByRut(ctx context.Context, rut string) (*model.Guard, error) {
	var g model.Guard
	found, err := s.take(ctx, func(db *gorm.DB) error {
		return db.Where("rut = ?", rut).Take(&g).Error
	})
	if err != nil || !found {
		return nil, err
	}
	return &g, nil
}

func (s *Store) FindGuardByID(ctx context.Context, id int32) (*model.Guard, error) {
	var g model.Guard
	found, err := s.take(ctx, func(db *gorm.DB) error {
		return db.Where("id = ?", id).Take(&g).Error
	})
	if err != nil || !found {
		return nil, err
	}
	return &g, nil
}

func (s *Store) FindSupervisorByRut(ctx context.Context, rut string) (*model.Supervisor, error) {
	var sup model.Supervisor
	found, err := s.take(ctx, func(db *gorm.DB) error {
		return db.Where("rut = ?", rut).Take(&sup).Error
	})
	if err != nil || !found {
		return nil, err
	}
	return &sup, nil
}

// SetGuardActive reports false when no guard has the RUT.
func (s *Store) SetGuardActive(ctx context.Context, rut string, active bool) (bool, error) {
	return notFoundAsFalse(s.dm.Exec(ctx, func(db *gorm.DB) error {
		var g model.Guard
		if err := db.Select("id").Where("rut = ?", rut).Take(&g).Error; err != nil {
			return err
		}
		return db.Model(&model.Guard{}).Where("id = ?", g.ID).UpdateColumn("active", active).Error
	}))
}

func (s *Store) ListGuardPosts(ctx context.Context) ([]patrol.GuardPost, error) {
	var out []patrol.GuardPost
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Table("guards g").
			Select(`g.*, (SELECT s.post_id FROM shifts s WHERE s.guard_id = g.id AND s.ended_at IS NULL
				ORDER BY s.id DESC LIMIT 1) AS post_id`).
			Order("g.id ASC").
			Scan(&out).Error
	})
	return out, err
}

func (s *Store) OpenShift(ctx context.Context, guardID int32) (*model.Shift, error) {
	var sh model.Shift
	found, err := s.take(ctx, func(db *gorm.DB) error {
		return db.Where("guard_id = ? AND ended_at IS NULL", guardID).Order("id DESC").Take(&sh).Error
	})
	if err != nil || !found {
		return nil, err
	}
	return &sh, nil
}

// StartShift opens a shift and flags the guard active in one transaction.
func (s *Store) StartShift(ctx context.Context, guardID, postID int32, at time.Time) (*model.Shift, error) {
	sh := model.Shift{GuardID: guardID, PostID: postID, StartedAt: at}
	err := s.dm.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&sh).Error; err != nil {
			return err
		}
		return tx.Model(&model.Guard{}).Where("id = ?", guardID).UpdateColumn("active", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// EndShift closes an open shift. It reports false when the shift does not
// exist or is already closed.
func (s *Store) EndShift(ctx context.Context, shiftID int32, at time.Time) (bool, error) {
	var affected int64
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		res := db.Model(&model.Shift{}).Where("id = ? AND ended_at IS NULL", shiftID).UpdateColumn("ended_at", at)
		affected = res.RowsAffected
		return res.Error
	})
	return affected > 0, err
}

func (s *Store) FindPost(ctx context.Context, id int32) (*model.Post, error) {
	var p model.Post
	found, err := s.take(ctx, func(db *gorm.DB) error {
		return db.Where("id = ?", id).Take(&p).Error
	})
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Order("id ASC").Find(&posts).Error
	})
	return posts, err
}
