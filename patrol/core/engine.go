package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"guardpatrol.com/patrol/patrol/model"
)

type Directory interface {
	// ResolveCheckpoint looks ref up as an identifier first, then as a name.
	// It returns nil, nil when neither matches.
	ResolveCheckpoint(ctx context.Context, ref string) (*model.Checkpoint, error)
	// ListCheckpoints returns the route's checkpoints in ascending id order.
	ListCheckpoints(ctx context.Context, routeID int32) ([]model.Checkpoint, error)
	CountCheckpoints(ctx context.Context, routeID int32) (int, error)
}

type RoundStore interface {
	GetRound(ctx context.Context, roundID int32) (*model.Round, error)
	SetRoundStatus(ctx context.Context, roundID int32, status model.RoundStatus) error
}

type MarkStore interface {
	FindMark(ctx context.Context, roundID, checkpointID int32) (*model.Marking, error)
	InsertMark(ctx context.Context, m *model.Marking) error
	CountDistinctMarks(ctx context.Context, roundID int32) (int, error)
}

type MarkRequest struct {
	RoundID       int32
	CheckpointRef string
	Coordinate    *Coordinate
	// GuardID, when set, must be the guard the round is assigned to.
	GuardID int32
}

type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

func NewProgress(current, total int) Progress {
	if total <= 0 {
		return Progress{}
	}
	return Progress{
		Current:    current,
		Total:      total,
		Percentage: int(math.Round(float64(current) / float64(total) * 100)),
	}
}

type MarkResult struct {
	Marking        model.Marking     `json:"marking"`
	RoundCompleted bool              `json:"roundCompleted"`
	Status         model.RoundStatus `json:"status"`
	Progress       Progress          `json:"progress"`
}

type Engine struct {
	directory Directory
	rounds    RoundStore
	marks     MarkStore
	locker    Locker
	log       *zap.Logger
	now       func() time.Time
}

type Option func(*Engine)

func WithLocker(l Locker) Option {
	return func(e *Engine) { e.locker = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(directory Directory, rounds RoundStore, marks MarkStore, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		directory: directory,
		rounds:    rounds,
		marks:     marks,
		locker:    NewKeyedLocker(),
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// SubmitMark validates a checkpoint scan and, when accepted, records it and
// advances the round. Validation is read-only; the only writes are the
// marking insert and at most one status change.
func (e *Engine) SubmitMark(ctx context.Context, req MarkRequest) (*MarkResult, error) {
	res, err := e.submitMark(ctx, req)
	if err != nil {
		fields := []zap.Field{
			zap.Int32("round_id", req.RoundID),
			zap.String("checkpoint_ref", req.CheckpointRef),
			zap.Error(err),
		}
		if KindOf(err) == KindStoreFailure {
			e.log.Error("mark failed", fields...)
		} else {
			e.log.Info("mark rejected", fields...)
		}
		return nil, err
	}
	e.log.Info("mark accepted",
		zap.Int32("round_id", req.RoundID),
		zap.Int32("checkpoint_id", res.Marking.CheckpointID),
		zap.Int("current", res.Progress.Current),
		zap.Int("total", res.Progress.Total),
		zap.Stringer("status", res.Status),
	)
	return res, nil
}

func (e *Engine) submitMark(ctx context.Context, req MarkRequest) (*MarkResult, error) {
	// 1. checkpoint
	cp, err := e.directory.ResolveCheckpoint(ctx, req.CheckpointRef)
	if err != nil {
		return nil, storeFailure("resolve checkpoint", err)
	}
	if cp == nil {
		return nil, ErrCheckpointNotFound
	}

	// 2. geofence
	if err := checkGeofence(cp, req.Coordinate); err != nil {
		return nil, err
	}

	unlock, err := e.locker.Lock(ctx, RoundLockKey(req.RoundID))
	if err != nil {
		return nil, storeFailure("lock round", err)
	}
	defer unlock()

	// 3. round and its route
	round, err := e.rounds.GetRound(ctx, req.RoundID)
	if err != nil {
		return nil, storeFailure("get round", err)
	}
	if round == nil || round.RouteID == 0 {
		return nil, ErrRoundNotFound
	}
	if req.GuardID != 0 && round.GuardID != req.GuardID {
		return nil, ErrNotAssigned
	}

	// 4. route membership
	if cp.RouteID != round.RouteID {
		return nil, ErrRouteMismatch
	}

	// 5-6. sequence
	checkpoints, err := e.directory.ListCheckpoints(ctx, round.RouteID)
	if err != nil {
		return nil, storeFailure("list checkpoints", err)
	}
	if idx := indexOf(checkpoints, cp.ID); idx > 0 {
		prev, err := e.marks.FindMark(ctx, round.ID, checkpoints[idx-1].ID)
		if err != nil {
			return nil, storeFailure("find previous mark", err)
		}
		if prev == nil {
			return nil, ErrOutOfOrder
		}
	}

	// 7. duplicates
	existing, err := e.marks.FindMark(ctx, round.ID, cp.ID)
	if err != nil {
		return nil, storeFailure("find mark", err)
	}
	if existing != nil {
		return nil, ErrDuplicateMark
	}

	// 8. record
	marking := model.Marking{
		RoundID:      round.ID,
		CheckpointID: cp.ID,
		MarkedAt:     e.now(),
	}
	if req.Coordinate != nil {
		marking.Latitude = &req.Coordinate.Latitude
		marking.Longitude = &req.Coordinate.Longitude
	}
	if err := e.marks.InsertMark(ctx, &marking); err != nil {
		if errors.Is(err, ErrAlreadyMarked) {
			return nil, ErrDuplicateMark
		}
		return nil, storeFailure("insert mark", err)
	}

	// 9. progress and status
	total, err := e.directory.CountCheckpoints(ctx, round.RouteID)
	if err != nil {
		return nil, storeFailure("count checkpoints", err)
	}
	marked, err := e.marks.CountDistinctMarks(ctx, round.ID)
	if err != nil {
		return nil, storeFailure("count marks", err)
	}

	completed := marked >= total
	status := nextStatus(round.Status, completed)
	if status != round.Status {
		if err := e.rounds.SetRoundStatus(ctx, round.ID, status); err != nil {
			return nil, storeFailure("set round status", err)
		}
	}

	return &MarkResult{
		Marking:        marking,
		RoundCompleted: completed,
		Status:         status,
		Progress:       NewProgress(marked, total),
	}, nil
}

// ComputeProgress reports how many of the round's route checkpoints are marked.
func (e *Engine) ComputeProgress(ctx context.Context, roundID int32) (Progress, error) {
	round, err := e.rounds.GetRound(ctx, roundID)
	if err != nil {
		return Progress{}, storeFailure("get round", err)
	}
	if round == nil || round.RouteID == 0 {
		return Progress{}, ErrRoundNotFound
	}
	total, err := e.directory.CountCheckpoints(ctx, round.RouteID)
	if err != nil {
		return Progress{}, storeFailure("count checkpoints", err)
	}
	if total == 0 {
		return Progress{}, nil
	}
	marked, err := e.marks.CountDistinctMarks(ctx, round.ID)
	if err != nil {
		return Progress{}, storeFailure("count marks", err)
	}
	return NewProgress(marked, total), nil
}

// SetStatus moves a round to status under the round lock so it cannot
// interleave with SubmitMark. Backward moves, and COMPLETED while route
// checkpoints are still unmarked, fail with model.ErrInvalidTransition and
// leave the round untouched. A non-zero guardID must own the round.
func (e *Engine) SetStatus(ctx context.Context, roundID, guardID int32, status model.RoundStatus) (model.RoundStatus, error) {
	unlock, err := e.locker.Lock(ctx, RoundLockKey(roundID))
	if err != nil {
		return 0, storeFailure("lock round", err)
	}
	defer unlock()

	round, err := e.rounds.GetRound(ctx, roundID)
	if err != nil {
		return 0, storeFailure("get round", err)
	}
	if round == nil {
		return 0, ErrRoundNotFound
	}
	if guardID != 0 && round.GuardID != guardID {
		return round.Status, ErrNotAssigned
	}
	next, err := round.Status.Advance(status)
	if err != nil {
		return round.Status, err
	}
	if next == round.Status {
		return next, nil
	}

	if next == model.RoundCompleted {
		total, err := e.directory.CountCheckpoints(ctx, round.RouteID)
		if err != nil {
			return 0, storeFailure("count checkpoints", err)
		}
		marked, err := e.marks.CountDistinctMarks(ctx, round.ID)
		if err != nil {
			return 0, storeFailure("count marks", err)
		}
		if marked < total {
			return round.Status, fmt.Errorf("%w: %d of %d checkpoints marked", model.ErrInvalidTransition, marked, total)
		}
	}

	if err := e.rounds.SetRoundStatus(ctx, round.ID, next); err != nil {
		return 0, storeFailure("set round status", err)
	}
	e.log.Info("round status changed",
		zap.Int32("round_id", round.ID),
		zap.Stringer("from", round.Status),
		zap.Stringer("to", next),
	)
	return next, nil
}

func checkGeofence(cp *model.Checkpoint, reported *Coordinate) error {
	if !cp.Geofenced() {
		return nil
	}
	if reported == nil {
		return ErrMissingLocation
	}
	expected := Coordinate{Latitude: *cp.ExpectedLatitude, Longitude: *cp.ExpectedLongitude}
	tolerance := DefaultToleranceMeters
	if cp.ToleranceRadius != nil && *cp.ToleranceRadius > 0 {
		tolerance = *cp.ToleranceRadius
	}
	if dist := HaversineMeters(*reported, expected); dist > tolerance {
		return &MarkError{Kind: KindOutOfRange, Distance: dist}
	}
	return nil
}

func nextStatus(current model.RoundStatus, completed bool) model.RoundStatus {
	target := current
	switch {
	case completed:
		target = model.RoundCompleted
	case current == model.RoundPending:
		target = model.RoundInProgress
	}
	next, err := current.Advance(target)
	if err != nil {
		return current
	}
	return next
}

func indexOf(checkpoints []model.Checkpoint, id int32) int {
	for i := range checkpoints {
		if checkpoints[i].ID == id {
			return i
		}
	}
	return -1
}
