package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardpatrol.com/patrol/patrol/model"
)

const (
	routeMain  int32 = 1
	routeOther int32 = 2
	routeFence int32 = 3
)

func fixture() *memStore {
	s := newMemStore()
	s.addCheckpoint(model.Checkpoint{ID: 10, RouteID: routeMain, Name: "P1"})
	s.addCheckpoint(model.Checkpoint{ID: 11, RouteID: routeMain, Name: "P2"})
	s.addCheckpoint(model.Checkpoint{ID: 12, RouteID: routeMain, Name: "P3"})
	s.addCheckpoint(model.Checkpoint{ID: 20, RouteID: routeOther, Name: "GATE"})

	fence := *geofenced(Coordinate{Latitude: -34.9854, Longitude: -71.2394}, nil)
	fence.ID, fence.RouteID, fence.Name = 30, routeFence, "FENCE-1"
	s.addCheckpoint(fence)

	s.addRound(model.Round{ID: 42, RouteID: routeMain, Date: "2024-05-01", Status: model.RoundPending})
	s.addRound(model.Round{ID: 43, RouteID: routeFence, Date: "2024-05-01", Status: model.RoundPending})
	s.addRound(model.Round{ID: 44, Date: "2024-05-01", Status: model.RoundPending})
	return s
}

func newTestEngine(s *memStore, opts ...Option) *Engine {
	clock := func() time.Time { return time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC) }
	return NewEngine(s, s, s, nil, append([]Option{WithClock(clock)}, opts...)...)
}

func mark(e *Engine, round int32, ref string, at *Coordinate) (*MarkResult, error) {
	return e.SubmitMark(context.Background(), MarkRequest{RoundID: round, CheckpointRef: ref, Coordinate: at})
}

func TestSubmitMarkRoundLifecycle(t *testing.T) {
	s := fixture()
	e := newTestEngine(s)

	_, err := mark(e, 42, "11", nil)
	require.ErrorIs(t, err, ErrOutOfOrder)
	assert.Equal(t, model.RoundPending, s.status(42))

	res, err := mark(e, 42, "10", nil)
	require.NoError(t, err)
	assert.False(t, res.RoundCompleted)
	assert.Equal(t, model.RoundInProgress, res.Status)
	assert.Equal(t, Progress{Current: 1, Total: 3, Percentage: 33}, res.Progress)
	assert.Equal(t, int32(10), res.Marking.CheckpointID)
	assert.NotZero(t, res.Marking.ID)
	assert.Equal(t, model.RoundInProgress, s.status(42))

	_, err = mark(e, 42, "10", nil)
	require.ErrorIs(t, err, ErrDuplicateMark)
	assert.Equal(t, 1, s.markCount(42))

	res, err = mark(e, 42, "11", nil)
	require.NoError(t, err)
	assert.Equal(t, Progress{Current: 2, Total: 3, Percentage: 67}, res.Progress)
	assert.Equal(t, model.RoundInProgress, res.Status)

	res, err = mark(e, 42, "12", nil)
	require.NoError(t, err)
	assert.True(t, res.RoundCompleted)
	assert.Equal(t, model.RoundCompleted, res.Status)
	assert.Equal(t, Progress{Current: 3, Total: 3, Percentage: 100}, res.Progress)
	assert.Equal(t, model.RoundCompleted, s.status(42))

	// nothing is markable once every checkpoint is in
	for _, ref := range []string{"10", "11", "12"} {
		_, err = mark(e, 42, ref, nil)
		assert.ErrorIs(t, err, ErrDuplicateMark)
	}
	assert.Equal(t, 3, s.markCount(42))
	assert.Equal(t, 2, s.statusSets)
}

func TestSubmitMarkResolvesByName(t *testing.T) {
	s := fixture()
	e := newTestEngine(s)

	res, err := mark(e, 42, "P1", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(10), res.Marking.CheckpointID)

	res, err = mark(e, 42, "P2", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(11), res.Marking.CheckpointID)
}

func TestSubmitMarkGeofence(t *testing.T) {
	s := fixture()
	e := newTestEngine(s)
	expected := Coordinate{Latitude: -34.9854, Longitude: -71.2394}

	_, err := mark(e, 43, "FENCE-1", nil)
	require.ErrorIs(t, err, ErrMissingLocation)

	far := northOf(expected, 500)
	_, err = mark(e, 43, "FENCE-1", &far)
	require.ErrorIs(t, err, ErrOutOfRange)
	var me *MarkError
	require.ErrorAs(t, err, &me)
	assert.InDelta(t, 500, me.Distance, 1)
	assert.Contains(t, me.Error(), "500m")

	near := northOf(expected, 10)
	res, err := mark(e, 43, "FENCE-1", &near)
	require.NoError(t, err)
	assert.True(t, res.RoundCompleted)
	require.NotNil(t, res.Marking.Latitude)
	assert.Equal(t, near.Latitude, *res.Marking.Latitude)
	assert.Equal(t, near.Longitude, *res.Marking.Longitude)
	assert.Equal(t, 1, s.markCount(43))
}

func TestSubmitMarkOriginIsALocation(t *testing.T) {
	s := newMemStore()
	cp := *geofenced(Coordinate{}, nil)
	s.addCheckpoint(cp)
	s.addRound(model.Round{ID: 1, RouteID: cp.RouteID, Status: model.RoundPending})
	e := newTestEngine(s)

	res, err := mark(e, 1, "P1", &Coordinate{})
	require.NoError(t, err)
	assert.True(t, res.RoundCompleted)
}

func TestSubmitMarkRejections(t *testing.T) {
	tests := []struct {
		name    string
		round   int32
		ref     string
		wantErr error
		kind    Kind
	}{
		{name: "Unknown checkpoint", round: 42, ref: "NOPE", wantErr: ErrCheckpointNotFound, kind: KindNotFound},
		{name: "Unknown round", round: 999, ref: "10", wantErr: ErrRoundNotFound, kind: KindNotFound},
		{name: "Round without route", round: 44, ref: "10", wantErr: ErrRoundNotFound, kind: KindNotFound},
		{name: "Checkpoint from another route", round: 42, ref: "20", wantErr: ErrRouteMismatch, kind: KindRouteMismatch},
		{name: "Skipping ahead", round: 42, ref: "P3", wantErr: ErrOutOfOrder, kind: KindOutOfOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fixture()
			e := newTestEngine(s)

			_, err := mark(e, tt.round, tt.ref, nil)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Zero(t, s.markCount(tt.round))
			assert.Zero(t, s.statusSets)
		})
	}
}

func TestSubmitMarkNotFoundEntity(t *testing.T) {
	s := fixture()
	e := newTestEngine(s)

	_, err := mark(e, 999, "10", nil)
	assert.ErrorIs(t, err, ErrRoundNotFound)
	assert.NotErrorIs(t, err, ErrCheckpointNotFound)
	assert.EqualError(t, err, "round not found")
}

func TestSubmitMarkStoreFailure(t *testing.T) {
	s := fixture()
	boom := errors.New("connection reset")
	s.failInsert = boom
	e := newTestEngine(s)

	_, err := mark(e, 42, "10", nil)
	require.ErrorIs(t, err, ErrStoreFailure)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, model.RoundPending, s.status(42))
	assert.Zero(t, s.statusSets)
}

func TestSubmitMarkUniqueConstraint(t *testing.T) {
	s := fixture()
	s.failInsert = ErrAlreadyMarked
	e := newTestEngine(s)

	_, err := mark(e, 42, "10", nil)
	assert.ErrorIs(t, err, ErrDuplicateMark)
}

func TestSubmitMarkNeverRegressesStatus(t *testing.T) {
	s := fixture()
	s.addRound(model.Round{ID: 50, RouteID: routeMain, Status: model.RoundCompleted})
	e := newTestEngine(s)

	res, err := mark(e, 50, "10", nil)
	require.NoError(t, err)
	assert.Equal(t, model.RoundCompleted, res.Status)
	assert.False(t, res.RoundCompleted)
	assert.Zero(t, s.statusSets)
}

func TestSubmitMarkConcurrentDuplicates(t *testing.T) {
	s := fixture()
	s.findDelay = time.Millisecond
	e := newTestEngine(s)

	const n = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		dupes    int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mark(e, 42, "10", nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, ErrDuplicateMark):
				dupes++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, n-1, dupes)
	assert.Equal(t, 1, s.markCount(42))

	progress, err := e.ComputeProgress(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Current)
}

func TestSubmitMarkLockFailure(t *testing.T) {
	s := fixture()
	e := newTestEngine(s, WithLocker(failingLocker{}))

	_, err := mark(e, 42, "10", nil)
	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.Zero(t, s.markCount(42))
}

func TestComputeProgress(t *testing.T) {
	s := fixture()
	s.addRound(model.Round{ID: 60, RouteID: 77, Status: model.RoundPending})
	e := newTestEngine(s, WithLocker(noLocker{}))

	p, err := e.ComputeProgress(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, Progress{Current: 0, Total: 3, Percentage: 0}, p)

	_, err = mark(e, 42, "10", nil)
	require.NoError(t, err)
	p, err = e.ComputeProgress(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, Progress{Current: 1, Total: 3, Percentage: 33}, p)

	p, err = e.ComputeProgress(context.Background(), 60)
	require.NoError(t, err)
	assert.Equal(t, Progress{}, p)

	_, err = e.ComputeProgress(context.Background(), 999)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	s := fixture()
	e := newTestEngine(s)

	got, err := e.SetStatus(ctx, 42, 0, model.RoundInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.RoundInProgress, got)
	assert.Equal(t, 1, s.statusSets)

	got, err = e.SetStatus(ctx, 42, 0, model.RoundInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.RoundInProgress, got)
	assert.Equal(t, 1, s.statusSets, "unchanged status is not written")

	got, err = e.SetStatus(ctx, 42, 0, model.RoundPending)
	require.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Equal(t, model.RoundInProgress, got)
	assert.Equal(t, model.RoundInProgress, s.status(42))

	_, err = e.SetStatus(ctx, 99, 0, model.RoundCompleted)
	require.ErrorIs(t, err, ErrRoundNotFound)
}

func TestSetStatusCompletedNeedsEveryCheckpoint(t *testing.T) {
	ctx := context.Background()
	s := fixture()
	e := newTestEngine(s)

	got, err := e.SetStatus(ctx, 42, 0, model.RoundCompleted)
	require.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "0 of 3")
	assert.Equal(t, model.RoundPending, got)
	assert.Equal(t, model.RoundPending, s.status(42))
	assert.Zero(t, s.statusSets)

	res, err := mark(e, 42, "10", nil)
	require.NoError(t, err)
	assert.Equal(t, model.RoundInProgress, res.Status)

	_, err = e.SetStatus(ctx, 42, 0, model.RoundCompleted)
	require.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Equal(t, model.RoundInProgress, s.status(42))

	for _, ref := range []string{"11", "12"} {
		_, err = mark(e, 42, ref, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, model.RoundCompleted, s.status(42))

	got, err = e.SetStatus(ctx, 42, 0, model.RoundCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.RoundCompleted, got)
}

func TestRoundOwnership(t *testing.T) {
	ctx := context.Background()
	s := fixture()
	s.addRound(model.Round{ID: 50, GuardID: 7, RouteID: routeMain, Date: "2024-05-01", Status: model.RoundPending})
	e := newTestEngine(s)

	_, err := e.SubmitMark(ctx, MarkRequest{RoundID: 50, CheckpointRef: "10", GuardID: 8})
	require.ErrorIs(t, err, ErrNotAssigned)
	assert.Equal(t, KindNotAssigned, KindOf(err))
	assert.Zero(t, s.markCount(50))

	_, err = e.SetStatus(ctx, 50, 8, model.RoundInProgress)
	require.ErrorIs(t, err, ErrNotAssigned)
	assert.Equal(t, model.RoundPending, s.status(50))

	res, err := e.SubmitMark(ctx, MarkRequest{RoundID: 50, CheckpointRef: "10", GuardID: 7})
	require.NoError(t, err)
	assert.Equal(t, model.RoundInProgress, res.Status)

	// Zero skips the check, as for supervisors.
	_, err = e.SubmitMark(ctx, MarkRequest{RoundID: 50, CheckpointRef: "11"})
	require.NoError(t, err)
}

func TestNewProgress(t *testing.T) {
	assert.Equal(t, Progress{}, NewProgress(0, 0))
	assert.Equal(t, Progress{Current: 2, Total: 3, Percentage: 67}, NewProgress(2, 3))
	assert.Equal(t, Progress{Current: 1, Total: 8, Percentage: 13}, NewProgress(1, 8))
}

type failingLocker struct{}

func (failingLocker) Lock(ctx context.Context, key string) (func(), error) {
	return nil, errors.New("lock unavailable")
}
