package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jarlvik/barkeep/internal/reliability"
)

const (
	httpMaxAttempts = 3
	backoffBase     = 200 * time.Millisecond
	backoffCap      = 2 * time.Second
)

// HTTPAdapter forwards reply requests to a strategy-compatible HTTP
// endpoint.
type HTTPAdapter struct {
	url    string
	client *http.Client
}

func NewHTTPAdapter(url string) *HTTPAdapter {
	return &HTTPAdapter{
		url: strings.TrimSpace(url),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (a *HTTPAdapter) Reply(ctx context.Context, req Request) (Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < httpMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(reliability.ExponentialBackoff(attempt, backoffBase, backoffCap)):
			}
		}

		res, err := a.post(ctx, payload)
		if err != nil {
			lastErr = err
			var perm *permanentError
			if errors.As(err, &perm) {
				return Response{}, perm.err
			}
			continue
		}
		return res, nil
	}
	return Response{}, fmt.Errorf("strategy http failed after %d attempts: %w", httpMaxAttempts, lastErr)
}

func (a *HTTPAdapter) post(ctx context.Context, payload []byte) (Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := a.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		err := fmt.Errorf("strategy http status %d: %s", res.StatusCode, string(body))
		if !reliability.IsRetryableHTTPStatus(res.StatusCode) {
			return Response{}, &permanentError{err}
		}
		return Response{}, err
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		// A bare text body is accepted as the reply.
		text := strings.TrimSpace(string(body))
		if text == "" {
			return Response{}, fmt.Errorf("empty strategy response")
		}
		return Response{Text: text}, nil
	}
	return out, nil
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }
