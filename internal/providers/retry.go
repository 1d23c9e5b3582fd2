package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kickai-team/kickai/internal/errs"
)

// httpError carries the status code so the retry policy can tell transient
// failures (429, 5xx) from permanent ones (4xx).
type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("llm http %d: %s", e.status, e.body)
}

func (e *httpError) transient() bool {
	return e.status == 429 || e.status >= 500
}

// retryChat runs fn with short exponential backoff. Only network errors and
// transient HTTP statuses are retried; the context deadline bounds the whole
// attempt sequence so retries can never outlive the agent deadline.
func retryChat(ctx context.Context, fn func() (*ChatResponse, error)) (*ChatResponse, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 4 * time.Second
	policy.MaxElapsedTime = 20 * time.Second

	var resp *ChatResponse
	err := backoff.Retry(func() error {
		var err error
		resp, err = fn()
		if err == nil {
			return nil
		}
		if he, ok := err.(*httpError); ok && !he.transient() {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.TimedOut, errs.CannedMessage(errs.TimedOut), err)
		}
		return nil, errs.Wrap(errs.DependencyUnavailable, errs.CannedMessage(errs.DependencyUnavailable), err)
	}
	return resp, nil
}
