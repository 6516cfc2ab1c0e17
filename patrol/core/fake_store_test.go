package core

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"guardpatrol.com/patrol/patrol/model"
)

// memStore is an in-memory Directory, RoundStore and MarkStore. It does not
// enforce the (round, checkpoint) uniqueness so tests can observe what the
// engine alone guarantees.
type memStore struct {
	mu          sync.Mutex
	checkpoints map[int32]model.Checkpoint
	rounds      map[int32]model.Round
	marks       []model.Marking
	nextMarkID  int32
	statusSets  int

	findDelay time.Duration
	failInsert error
}

func newMemStore() *memStore {
	return &memStore{
		checkpoints: make(map[int32]model.Checkpoint),
		rounds:      make(map[int32]model.Round),
	}
}

func (s *memStore) addCheckpoint(cp model.Checkpoint) {
	s.checkpoints[cp.ID] = cp
}

func (s *memStore) addRound(r model.Round) {
	s.rounds[r.ID] = r
}

func (s *memStore) ResolveCheckpoint(ctx context.Context, ref string) (*model.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, err := strconv.Atoi(ref); err == nil {
		if cp, ok := s.checkpoints[int32(id)]; ok {
			return &cp, nil
		}
	}
	for _, cp := range s.checkpoints {
		if cp.Name == ref {
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListCheckpoints(ctx context.Context, routeID int32) ([]model.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Checkpoint
	for _, cp := range s.checkpoints {
		if cp.RouteID == routeID {
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) CountCheckpoints(ctx context.Context, routeID int32) (int, error) {
	cps, err := s.ListCheckpoints(ctx, routeID)
	return len(cps), err
}

func (s *memStore) GetRound(ctx context.Context, roundID int32) (*model.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[roundID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *memStore) SetRoundStatus(ctx context.Context, roundID int32, status model.RoundStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[roundID]
	if !ok {
		return errors.New("no such round")
	}
	r.Status = status
	s.rounds[roundID] = r
	s.statusSets++
	return nil
}

func (s *memStore) FindMark(ctx context.Context, roundID, checkpointID int32) (*model.Marking, error) {
	if s.findDelay > 0 {
		time.Sleep(s.findDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.marks {
		if m.RoundID == roundID && m.CheckpointID == checkpointID {
			return &m, nil
		}
	}
	return nil, nil
}

func (s *memStore) InsertMark(ctx context.Context, m *model.Marking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert != nil {
		return s.failInsert
	}
	s.nextMarkID++
	m.ID = s.nextMarkID
	s.marks = append(s.marks, *m)
	return nil
}

func (s *memStore) CountDistinctMarks(ctx context.Context, roundID int32) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[int32]struct{})
	for _, m := range s.marks {
		if m.RoundID == roundID {
			seen[m.CheckpointID] = struct{}{}
		}
	}
	return len(seen), nil
}

func (s *memStore) markCount(roundID int32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.marks {
		if m.RoundID == roundID {
			n++
		}
	}
	return n
}

func (s *memStore) status(roundID int32) model.RoundStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rounds[roundID].Status
}

// noLocker lets every caller in at once.
type noLocker struct{}

func (noLocker) Lock(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}
