package round

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	patrol "guardpatrol.com/patrol/patrol/core"
	"guardpatrol.com/patrol/patrol/model"
	"guardpatrol.com/patrol/patrol/store"
	common "guardpatrol.com/patrol/patrol/web/common"
	"guardpatrol.com/patrol/security"
	"guardpatrol.com/patrol/utils"
	"guardpatrol.com/patrol/web/middlewares"
)

// fakeStore backs both the engine and the endpoint.
type fakeStore struct {
	mu          sync.Mutex
	checkpoints []model.Checkpoint
	rounds      map[int32]*model.Round
	marks       []model.Marking
	failInsert  error
	filter      store.RoundFilter
	listing     []store.RoundListing
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		checkpoints: []model.Checkpoint{
			{ID: 10, RouteID: 1, Name: "P1", ExpectedLatitude: utils.Ptr(-33.45), ExpectedLongitude: utils.Ptr(-70.66)},
			{ID: 11, RouteID: 1, Name: "P2"},
			{ID: 30, RouteID: 3, Name: "FENCE-1", ExpectedLatitude: utils.Ptr(-34.9854), ExpectedLongitude: utils.Ptr(-71.2394)},
		},
		rounds: map[int32]*model.Round{
			42: {ID: 42, RouteID: 1, Date: "2024-05-01", Status: model.RoundPending},
			43: {ID: 43, RouteID: 3, Date: "2024-05-01", Status: model.RoundPending},
		},
	}
}

func (s *fakeStore) ResolveCheckpoint(ctx context.Context, ref string) (*model.Checkpoint, error) {
	id, _ := strconv.Atoi(ref)
	for _, cp := range s.checkpoints {
		if int(cp.ID) == id || cp.Name == ref {
			cp := cp
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListCheckpoints(ctx context.Context, routeID int32) ([]model.Checkpoint, error) {
	out := utils.Filter(s.checkpoints, func(cp model.Checkpoint) bool { return cp.RouteID == routeID })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) CountCheckpoints(ctx context.Context, routeID int32) (int, error) {
	cps, _ := s.ListCheckpoints(ctx, routeID)
	return len(cps), nil
}

func (s *fakeStore) GetRound(ctx context.Context, roundID int32) (*model.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[roundID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) SetRoundStatus(ctx context.Context, roundID int32, status model.RoundStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[roundID].Status = status
	return nil
}

func (s *fakeStore) FindMark(ctx context.Context, roundID, checkpointID int32) (*model.Marking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return utils.Find(s.marks, func(m model.Marking) bool {
		return m.RoundID == roundID && m.CheckpointID == checkpointID
	}), nil
}

func (s *fakeStore) InsertMark(ctx context.Context, m *model.Marking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert != nil {
		return s.failInsert
	}
	m.ID = int32(len(s.marks) + 1)
	s.marks = append(s.marks, *m)
	return nil
}

func (s *fakeStore) CountDistinctMarks(ctx context.Context, roundID int32) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(utils.Filter(s.marks, func(m model.Marking) bool { return m.RoundID == roundID })), nil
}

func (s *fakeStore) ListRounds(ctx context.Context, f store.RoundFilter) ([]store.RoundListing, error) {
	s.filter = f
	return s.listing, nil
}

func (s *fakeStore) RoundPoints(ctx context.Context, round *model.Round) ([]patrol.RoundPoint, error) {
	cps, _ := s.ListCheckpoints(ctx, round.RouteID)
	return utils.Map(cps, func(cp model.Checkpoint) patrol.RoundPoint {
		m, _ := s.FindMark(ctx, round.ID, cp.ID)
		p := patrol.RoundPoint{Checkpoint: cp}
		if m != nil {
			p.Marked, p.MarkedAt = true, &m.MarkedAt
		}
		return p
	}), nil
}

func setup() (*gin.Engine, *fakeStore) {
	return setupAs(nil)
}

// setupAs serves requests as if Authentication had accepted claims.
func setupAs(claims *security.IdentityClaims) (*gin.Engine, *fakeStore) {
	gin.SetMode(gin.TestMode)
	s := newFakeStore()
	r := gin.New()
	if claims != nil {
		r.Use(func(c *gin.Context) {
			middlewares.SetClaims(c, claims)
			c.Next()
		})
	}
	Register(r.Group("/api"), common.Handler{}, patrol.NewEngine(s, s, s, nil), s)
	return r, s
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSubmitMark(t *testing.T) {
	r, s := setup()

	w := do(r, http.MethodPost, "/api/marks", gin.H{"roundId": 42, "checkpointId": 10, "latitude": -33.45, "longitude": -70.66})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Data patrol.MarkResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, patrol.Progress{Current: 1, Total: 2, Percentage: 50}, body.Data.Progress)
	assert.Equal(t, model.RoundInProgress, body.Data.Status)
	assert.False(t, body.Data.RoundCompleted)

	w = do(r, http.MethodPost, "/api/marks", gin.H{"roundId": 42, "checkpointId": "P2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, model.RoundCompleted, s.rounds[42].Status)
}

func TestSubmitMarkRejections(t *testing.T) {
	tests := []struct {
		name   string
		body   gin.H
		status int
		code   string
	}{
		{name: "Out of order", body: gin.H{"roundId": 42, "checkpointId": "P2"}, status: http.StatusBadRequest, code: "OUT_OF_ORDER"},
		{name: "Missing location", body: gin.H{"roundId": 43, "checkpointId": "FENCE-1"}, status: http.StatusBadRequest, code: "MISSING_LOCATION"},
		{name: "Route mismatch", body: gin.H{"roundId": 43, "checkpointId": 11}, status: http.StatusBadRequest, code: "ROUTE_MISMATCH"},
		{name: "Unknown checkpoint", body: gin.H{"roundId": 42, "checkpointId": "NOPE"}, status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "Unknown round", body: gin.H{"roundId": 99, "checkpointId": 11}, status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "Missing round", body: gin.H{"checkpointId": 11}, status: http.StatusBadRequest},
		{name: "Missing checkpoint", body: gin.H{"roundId": 42}, status: http.StatusBadRequest},
		{name: "Latitude without longitude", body: gin.H{"roundId": 42, "checkpointId": 11, "latitude": -33.4}, status: http.StatusBadRequest},
		{name: "Latitude out of range", body: gin.H{"roundId": 42, "checkpointId": 11, "latitude": 95.0, "longitude": 10.0}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, s := setup()
			w := do(r, http.MethodPost, "/api/marks", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, w).Code)
			}
			assert.Empty(t, s.marks)
		})
	}
}

func TestSubmitMarkOutOfRangeReportsDistance(t *testing.T) {
	r, _ := setup()

	// roughly 111 m north of FENCE-1
	w := do(r, http.MethodPost, "/api/marks", gin.H{"roundId": 43, "checkpointId": "FENCE-1", "latitude": -34.9844, "longitude": -71.2394})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeError(t, w)
	assert.Equal(t, "OUT_OF_RANGE", body.Code)
	assert.InDelta(t, 111, body.Details["distance"], 1)
	assert.Contains(t, body.Message, "move closer")
}

func TestSubmitMarkNotFoundEntity(t *testing.T) {
	r, _ := setup()

	w := do(r, http.MethodPost, "/api/marks", gin.H{"roundId": 99, "checkpointId": 11})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, patrol.EntityRound, decodeError(t, w).Details["entity"])
}

func TestSubmitMarkStoreFailure(t *testing.T) {
	r, s := setup()
	s.failInsert = errors.New("connection reset")

	w := do(r, http.MethodPost, "/api/marks", gin.H{"roundId": 42, "checkpointId": 10, "latitude": -33.45, "longitude": -70.66})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	body := decodeError(t, w)
	assert.Equal(t, "STORE_FAILURE", body.Code)
	assert.NotContains(t, body.Message, "connection reset")
}

func TestCheckpointRef(t *testing.T) {
	var dto MarkDTO
	require.NoError(t, json.Unmarshal([]byte(`{"roundId":1,"checkpointId":7}`), &dto))
	assert.Equal(t, CheckpointRef("7"), dto.CheckpointID)

	require.NoError(t, json.Unmarshal([]byte(`{"roundId":1,"checkpointId":"E1-P1"}`), &dto))
	assert.Equal(t, CheckpointRef("E1-P1"), dto.CheckpointID)

	assert.Error(t, json.Unmarshal([]byte(`{"checkpointId":true}`), &dto))
}

func TestListRounds(t *testing.T) {
	r, s := setup()
	s.listing = []store.RoundListing{{Round: *s.rounds[42], RouteName: "Perimeter", TotalPoints: 2}}

	w := do(r, http.MethodGet, "/api/rounds?guardId=7&postId=3&date=2024-05-01", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, store.RoundFilter{GuardID: 7, PostID: 3, Date: "2024-05-01"}, s.filter)

	var body struct {
		Data []store.RoundListing `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Perimeter", body.Data[0].RouteName)

	w = do(r, http.MethodGet, "/api/rounds?date=01-05-2024", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRoundsEmpty(t *testing.T) {
	r, _ := setup()

	w := do(r, http.MethodGet, "/api/rounds", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestUpdateStatus(t *testing.T) {
	r, s := setup()

	w := do(r, http.MethodPatch, "/api/rounds/42", gin.H{"status": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.RoundInProgress, s.rounds[42].Status)

	w = do(r, http.MethodPatch, "/api/rounds/42", gin.H{"status": "PENDING"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decodeError(t, w).Code)
	assert.Equal(t, model.RoundInProgress, s.rounds[42].Status)

	w = do(r, http.MethodPatch, "/api/rounds/42", gin.H{"status": "DONE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/api/rounds/42", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/api/rounds/99", gin.H{"status": "COMPLETED"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPatch, "/api/rounds/abc", gin.H{"status": "COMPLETED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatusCompletedNeedsAllMarks(t *testing.T) {
	r, s := setup()

	w := do(r, http.MethodPatch, "/api/rounds/42", gin.H{"status": "COMPLETED"})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	body := decodeError(t, w)
	assert.Equal(t, "INVALID_TRANSITION", body.Code)
	assert.Contains(t, body.Message, "0 of 2")
	assert.Equal(t, model.RoundPending, s.rounds[42].Status)

	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/marks",
		gin.H{"roundId": 42, "checkpointId": 10, "latitude": -33.45, "longitude": -70.66}).Code)
	w = do(r, http.MethodPatch, "/api/rounds/42", gin.H{"status": "COMPLETED"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, model.RoundInProgress, s.rounds[42].Status)

	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/marks", gin.H{"roundId": 42, "checkpointId": 11}).Code)
	assert.Equal(t, model.RoundCompleted, s.rounds[42].Status)
}

func TestGuardsOnlyChangeTheirOwnRounds(t *testing.T) {
	guard := func(id int32) *security.IdentityClaims {
		return &security.IdentityClaims{Identity: security.Identity{UserID: id, Role: security.RoleGuard}}
	}

	r, s := setupAs(guard(6))
	s.rounds[42].GuardID = 5

	w := do(r, http.MethodPost, "/api/marks", gin.H{"roundId": 42, "checkpointId": 10, "latitude": -33.45, "longitude": -70.66})
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	assert.Equal(t, "NOT_ASSIGNED", decodeError(t, w).Code)
	assert.Empty(t, s.marks)

	w = do(r, http.MethodPatch, "/api/rounds/42", gin.H{"status": "IN_PROGRESS"})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, model.RoundPending, s.rounds[42].Status)

	r, s = setupAs(guard(5))
	s.rounds[42].GuardID = 5
	w = do(r, http.MethodPost, "/api/marks", gin.H{"roundId": 42, "checkpointId": 10, "latitude": -33.45, "longitude": -70.66})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	supervisor := &security.IdentityClaims{Identity: security.Identity{UserID: 6, Role: security.RoleSupervisor}}
	r, s = setupAs(supervisor)
	s.rounds[42].GuardID = 5
	w = do(r, http.MethodPatch, "/api/rounds/42", gin.H{"status": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPointsAndProgress(t *testing.T) {
	r, _ := setup()
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/marks",
		gin.H{"roundId": 42, "checkpointId": 10, "latitude": -33.45, "longitude": -70.66}).Code)

	w := do(r, http.MethodGet, "/api/rounds/42/points", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var points struct {
		Data []patrol.RoundPoint `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &points))
	require.Len(t, points.Data, 2)
	assert.True(t, points.Data[0].Marked)
	assert.NotNil(t, points.Data[0].MarkedAt)
	assert.False(t, points.Data[1].Marked)

	w = do(r, http.MethodGet, "/api/rounds/42/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"current":1,"total":2,"percentage":50}}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/rounds/99/points", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/rounds/99/progress", nil).Code)
}

func TestMap(t *testing.T) {
	r, _ := setup()

	w := do(r, http.MethodGet, "/api/rounds/42/map", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	// P2 has no coordinate, so there is no line and one point.
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Point", fc.Features[0].Geometry.Type)
	assert.Equal(t, "P1", fc.Features[0].Properties["name"])

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/rounds/99/map", nil).Code)
}
