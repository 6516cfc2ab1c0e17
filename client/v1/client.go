// Package v1 is a Go client for the patrol API used by the guard app and
// by operational tooling.
package v1

import (
	"context"
	"net/http"

	"guardpatrol.com/patrol/patrol/model"
)

const BasePath = "/api/patrol/v1"

type PatrolClient struct {
	Transport *Transport
	Marks     *MarkEndpoint
	Rounds    *RoundEndpoint
}

// NewPatrolClient builds a client for the API at baseURL, e.g.
// "https://patrol.example.com". token may be empty until Login.
func NewPatrolClient(baseURL string, token string) *PatrolClient {
	t := NewTransport(baseURL+BasePath, token)
	return &PatrolClient{
		Transport: t,
		Marks:     &MarkEndpoint{transport: t},
		Rounds:    &RoundEndpoint{transport: t},
	}
}

type LoginResult struct {
	Token         string       `json:"token"`
	Guard         *model.Guard `json:"guard"`
	ActiveShift   *model.Shift `json:"activeShift,omitempty"`
	SuggestedPost *model.Post  `json:"suggestedPost,omitempty"`
}

// Login signs a guard in and makes the client use the returned token.
func (c *PatrolClient) Login(ctx context.Context, rut, password string) (*LoginResult, error) {
	res, err := do[LoginResult](ctx, c.Transport, http.MethodPost, "/login",
		map[string]string{"rut": rut, "password": password}, nil)
	if err != nil {
		return nil, err
	}
	c.Transport.SetToken(res.Token)
	return &res, nil
}
