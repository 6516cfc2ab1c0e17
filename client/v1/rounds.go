package v1

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	patrol "guardpatrol.com/patrol/patrol/core"
	"guardpatrol.com/patrol/patrol/model"
	"guardpatrol.com/patrol/patrol/store"
)

type RoundEndpoint struct {
	transport *Transport
}

type RoundQuery struct {
	GuardID int32
	PostID  int32
	Date    string // yyyy-MM-dd
}

func (q RoundQuery) params() map[string]string {
	p := map[string]string{}
	if q.GuardID > 0 {
		p["guardId"] = strconv.Itoa(int(q.GuardID))
	}
	if q.PostID > 0 {
		p["postId"] = strconv.Itoa(int(q.PostID))
	}
	if q.Date != "" {
		p["date"] = q.Date
	}
	return p
}

func (ep *RoundEndpoint) List(ctx context.Context, q RoundQuery) ([]store.RoundListing, error) {
	return do[[]store.RoundListing](ctx, ep.transport, http.MethodGet, "/rounds", nil, q.params())
}

func (ep *RoundEndpoint) Points(ctx context.Context, roundID int32) ([]patrol.RoundPoint, error) {
	return do[[]patrol.RoundPoint](ctx, ep.transport, http.MethodGet, fmt.Sprintf("/rounds/%d/points", roundID), nil, nil)
}

func (ep *RoundEndpoint) Progress(ctx context.Context, roundID int32) (patrol.Progress, error) {
	return do[patrol.Progress](ctx, ep.transport, http.MethodGet, fmt.Sprintf("/rounds/%d/progress", roundID), nil, nil)
}

func (ep *RoundEndpoint) UpdateStatus(ctx context.Context, roundID int32, status model.RoundStatus) (model.RoundStatus, error) {
	res, err := do[struct {
		Status model.RoundStatus `json:"status"`
	}](ctx, ep.transport, http.MethodPatch, fmt.Sprintf("/rounds/%d", roundID),
		map[string]string{"status": status.String()}, nil)
	return res.Status, err
}
