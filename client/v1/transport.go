package v1

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// APIError is the error body the patrol API answers with.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("patrol api %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("patrol api %d: %s", e.StatusCode, e.Message)
}

type envelope[T any] struct {
	Data T `json:"data"`
}

// Transport handles low-level HTTP and authentication
type Transport struct {
	http *resty.Client
}

func NewTransport(baseURL, token string) *Transport {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Accept", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Transport{http: c}
}

func (t *Transport) SetToken(token string) {
	t.http.SetAuthToken(token)
}

// do sends a JSON request and unwraps the {"data": ...} envelope into T.
func do[T any](ctx context.Context, t *Transport, method, path string, body any, query map[string]string) (T, error) {
	var (
		out    envelope[T]
		apiErr APIError
	)
	req := t.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiErr).
		SetQueryParams(query)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return out.Data, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(resp.String())
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}
		return out.Data, &apiErr
	}
	return out.Data, nil
}
