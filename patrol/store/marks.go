package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	patrol "guardpatrol.com/patrol/patrol/core"
	"guardpatrol.com/patrol/patrol/model"
)

func (s *Store) FindMark(ctx context.Context, roundID, checkpointID int32) (*model.Marking, error) {
	var m model.Marking
	found, err := s.take(ctx, func(db *gorm.DB) error {
		return db.Where("round_id = ? AND checkpoint_id = ?", roundID, checkpointID).Take(&m).Error
	})
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

func (s *Store) InsertMark(ctx context.Context, m *model.Marking) error {
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Create(m).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return patrol.ErrAlreadyMarked
	}
	return err
}

func (s *Store) CountDistinctMarks(ctx context.Context, roundID int32) (int, error) {
	var n int64
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Model(&model.Marking{}).Where("round_id = ?", roundID).Distinct("checkpoint_id").Count(&n).Error
	})
	return int(n), err
}
