package store

import (
	"context"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	patrol "guardpatrol.com/patrol/patrol/core"
	"guardpatrol.com/patrol/patrol/model"
)

// ResolveCheckpoint matches ref against the checkpoint id first and the
// checkpoint name second.
func (s *Store) ResolveCheckpoint(ctx context.Context, ref string) (*model.Checkpoint, error) {
	if id, err := strconv.ParseInt(ref, 10, 32); err == nil {
		var cp model.Checkpoint
		found, err := s.take(ctx, func(db *gorm.DB) error {
			return db.Where("id = ?", id).Take(&cp).Error
		})
		if err != nil {
			return nil, err
		}
		if found {
			return &cp, nil
		}
	}

	var cp model.Checkpoint
	found, err := s.take(ctx, func(db *gorm.DB) error {
		return db.Where("name = ?", ref).Take(&cp).Error
	})
	if err != nil || !found {
		return nil, err
	}
	return &cp, nil
}

func (s *Store) ListCheckpoints(ctx context.Context, routeID int32) ([]model.Checkpoint, error) {
	var cps []model.Checkpoint
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Where("route_id = ?", routeID).Order("id ASC").Find(&cps).Error
	})
	return cps, err
}

func (s *Store) CountCheckpoints(ctx context.Context, routeID int32) (int, error) {
	var n int64
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Model(&model.Checkpoint{}).Where("route_id = ?", routeID).Count(&n).Error
	})
	return int(n), err
}

// RoundPoints lists the route checkpoints of a round with their mark state.
func (s *Store) RoundPoints(ctx context.Context, round *model.Round) ([]patrol.RoundPoint, error) {
	var points []patrol.RoundPoint
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Table("checkpoints c").
			Select("c.*, m.id IS NOT NULL AS marked, m.marked_at AS marked_at").
			Joins("LEFT JOIN markings m ON m.checkpoint_id = c.id AND m.round_id = ?", round.ID).
			Where("c.route_id = ?", round.RouteID).
			Order("c.id ASC").
			Scan(&points).Error
	})
	return points, err
}

// UpsertCheckpoints inserts checkpoints, updating location and description
// of existing names.
func (s *Store) UpsertCheckpoints(ctx context.Context, cps []model.Checkpoint) error {
	if len(cps) == 0 {
		return nil
	}
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"route_id", "description", "expected_latitude", "expected_longitude", "tolerance_radius",
			}),
		}).CreateInBatches(cps, 100).Error
	})
}
