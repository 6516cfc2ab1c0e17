package v1

import (
	"context"
	"errors"
	"net/http"

	patrol "guardpatrol.com/patrol/patrol/core"
)

type MarkInput struct {
	RoundID      int32    `json:"roundId"`
	CheckpointID string   `json:"checkpointId"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

type MarkEndpoint struct {
	transport *Transport
}

// Submit sends a checkpoint scan. Rejections come back as *APIError whose
// Code is the rejection kind, e.g. "OUT_OF_ORDER".
func (ep *MarkEndpoint) Submit(ctx context.Context, in MarkInput) (*patrol.MarkResult, error) {
	res, err := do[patrol.MarkResult](ctx, ep.transport, http.MethodPost, "/marks", in, nil)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// IsRejection reports whether err is a mark rejection of the given kind.
func IsRejection(err error, kind patrol.Kind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == kind.String()
}
