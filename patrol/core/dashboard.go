package core

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"guardpatrol.com/patrol/patrol/model"
)

const NoActiveRoundText = "No active round"

// GuardPost is a guard together with the post of their open shift, if any.
type GuardPost struct {
	model.Guard
	PostID *int32 `json:"postId"`
}

type DashboardSource interface {
	ListGuardPosts(ctx context.Context) ([]GuardPost, error)
	LastPresence(ctx context.Context, guardID int32) (*model.PresenceCheck, error)
	// ActiveRound returns the guard's IN_PROGRESS round, else the lowest-id
	// PENDING one, else nil.
	ActiveRound(ctx context.Context, guardID int32) (*model.Round, error)
	CountCheckpoints(ctx context.Context, routeID int32) (int, error)
	CountDistinctMarks(ctx context.Context, roundID int32) (int, error)
}

type LastLocation struct {
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	At        time.Time `json:"at"`
}

type RoundSummary struct {
	Text       string             `json:"text"`
	Percentage int                `json:"percentage"`
	RoundID    int32              `json:"roundId,omitempty"`
	Status     *model.RoundStatus `json:"status,omitempty"`
}

type GuardSummary struct {
	GuardPost
	LastLocation *LastLocation `json:"lastLocation"`
	Progress     RoundSummary  `json:"progress"`
}

type Dashboard struct {
	src   DashboardSource
	limit int
}

func NewDashboard(src DashboardSource, limit int) *Dashboard {
	if limit <= 0 {
		limit = 8
	}
	return &Dashboard{src: src, limit: limit}
}

// Guards builds one summary per guard. Per-guard lookups run concurrently,
// at most limit at a time; the result keeps the source order.
func (d *Dashboard) Guards(ctx context.Context) ([]GuardSummary, error) {
	guards, err := d.src.ListGuardPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list guards: %w", err)
	}

	out := make([]GuardSummary, len(guards))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limit)
	for i := range guards {
		g.Go(func() error {
			s, err := d.summarize(ctx, guards[i])
			if err != nil {
				return fmt.Errorf("guard %d: %w", guards[i].ID, err)
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Dashboard) summarize(ctx context.Context, gp GuardPost) (GuardSummary, error) {
	s := GuardSummary{
		GuardPost: gp,
		Progress:  RoundSummary{Text: NoActiveRoundText},
	}

	check, err := d.src.LastPresence(ctx, gp.ID)
	if err != nil {
		return s, err
	}
	if check != nil {
		s.LastLocation = &LastLocation{Latitude: check.Latitude, Longitude: check.Longitude, At: check.CheckedAt}
	}

	if !gp.Active {
		return s, nil
	}
	round, err := d.src.ActiveRound(ctx, gp.ID)
	if err != nil || round == nil {
		return s, err
	}
	total, err := d.src.CountCheckpoints(ctx, round.RouteID)
	if err != nil {
		return s, err
	}
	marked, err := d.src.CountDistinctMarks(ctx, round.ID)
	if err != nil {
		return s, err
	}

	status := round.Status
	s.Progress = RoundSummary{
		Text:       ProgressText(status, marked, total),
		Percentage: NewProgress(marked, total).Percentage,
		RoundID:    round.ID,
		Status:     &status,
	}
	return s, nil
}

func ProgressText(status model.RoundStatus, marked, total int) string {
	if status == model.RoundPending {
		return fmt.Sprintf("Not started (%d points)", total)
	}
	return fmt.Sprintf("%d/%d points", marked, total)
}
