package analysis

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	xhttp "TriSight/pkg/http"
)

// httpBase centralizes client construction and JSON POST handling for the
// analysis provider clients. A token-bucket limiter smooths request bursts
// client-side; the orchestrator's fixed-window quota is enforced separately.
type httpBase struct {
	baseURL string
	client  *xhttp.Client
	smooth  *rate.Limiter
}

func newHTTPBase(baseURL string, timeout time.Duration, rps float64, burst int) *httpBase {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return &httpBase{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		smooth:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (b *httpBase) postJSON(ctx context.Context, path string, payload, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("analysis http client not initialized")
	}
	if err := b.smooth.Wait(ctx); err != nil {
		return err
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     b.baseURL + path,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}
