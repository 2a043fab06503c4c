package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hallatan/mockvox/internal/observability/metrics"
	"github.com/hallatan/mockvox/internal/providers/llm"
)

// completeWithRetry calls the completion gateway with one backoff retry for
// transient transport failures. A status reply from the gateway and context
// expiry are permanent: the first repeats deterministically, the second has
// no deadline left to spend.
func completeWithRetry(ctx context.Context, provider llm.Provider, req llm.Request, m *metrics.InterviewMetrics, gateway string) (llm.Response, error) {
	var resp llm.Response

	operation := func() error {
		var err error
		resp, err = provider.Complete(ctx, req)
		if err == nil {
			return nil
		}
		var se *llm.StatusError
		if errors.As(err, &se) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second

	start := time.Now()
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, 1), ctx))
	m.ObserveGatewayLatency(gateway, time.Since(start).Seconds())
	if err != nil {
		m.ObserveGatewayFailure(gateway)
	}
	return resp, err
}
