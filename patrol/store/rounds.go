package store

import (
	"context"

	"gorm.io/gorm"

	"guardpatrol.com/patrol/patrol/model"
)

func (s *Store) GetRound(ctx context.Context, roundID int32) (*model.Round, error) {
	var r model.Round
	found, err := s.take(ctx, func(db *gorm.DB) error {
		return db.Where("id = ?", roundID).Take(&r).Error
	})
	if err != nil || !found {
		return nil, err
	}
	return &r, nil
}

func (s *Store) SetRoundStatus(ctx context.Context, roundID int32, status model.RoundStatus) error {
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Model(&model.Round{}).Where("id = ?", roundID).UpdateColumn("status", status).Error
	})
}

// ActiveRound picks the guard's IN_PROGRESS round, else the lowest-id
// PENDING one.
func (s *Store) ActiveRound(ctx context.Context, guardID int32) (*model.Round, error) {
	var r model.Round
	found, err := s.take(ctx, func(db *gorm.DB) error {
		return db.Where("guard_id = ? AND status IN ?", guardID, []model.RoundStatus{model.RoundInProgress, model.RoundPending}).
			Order("CASE WHEN status = 'IN_PROGRESS' THEN 1 ELSE 2 END, id ASC").
			Take(&r).Error
	})
	if err != nil || !found {
		return nil, err
	}
	return &r, nil
}

type RoundFilter struct {
	GuardID int32
	PostID  int32
	Date    string
}

type RoundListing struct {
	model.Round
	RouteName    string `json:"routeName"`
	PostID       int32  `json:"postId"`
	GuardRut     string `json:"guardRut"`
	GuardName    string `json:"guardName"`
	TotalPoints  int    `json:"totalPoints"`
	MarkedPoints int    `json:"markedPoints"`
}

// ListRounds returns rounds with their route and progress counts, ordered
// by scheduled time.
func (s *Store) ListRounds(ctx context.Context, f RoundFilter) ([]RoundListing, error) {
	var out []RoundListing
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		q := db.Table("rounds r").
			Select(`r.*, rt.name AS route_name, rt.post_id AS post_id, g.rut AS guard_rut,
				CONCAT(g.first_name, ' ', g.last_name) AS guard_name,
				(SELECT COUNT(*) FROM checkpoints c WHERE c.route_id = r.route_id) AS total_points,
				(SELECT COUNT(DISTINCT m.checkpoint_id) FROM markings m WHERE m.round_id = r.id) AS marked_points`).
			Joins("LEFT JOIN routes rt ON rt.id = r.route_id").
			Joins("LEFT JOIN guards g ON g.id = r.guard_id")
		if f.GuardID != 0 {
			q = q.Where("r.guard_id = ?", f.GuardID)
		}
		if f.PostID != 0 {
			q = q.Where("rt.post_id = ?", f.PostID)
		}
		if f.Date != "" {
			q = q.Where("r.date = ?", f.Date)
		}
		return q.Order("r.scheduled_time ASC, r.id ASC").Scan(&out).Error
	})
	return out, err
}

// SuggestedPost returns the post of the guard's first round on date.
func (s *Store) SuggestedPost(ctx context.Context, guardID int32, date string) (*model.Post, error) {
	var p model.Post
	found, err := s.take(ctx, func(db *gorm.DB) error {
		return db.Table("posts p").
			Select("p.*").
			Joins("JOIN routes rt ON rt.post_id = p.id").
			Joins("JOIN rounds r ON r.route_id = rt.id").
			Where("r.guard_id = ? AND r.date = ?", guardID, date).
			Order("r.scheduled_time ASC").
			Take(&p).Error
	})
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}
