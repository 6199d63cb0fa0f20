package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
)

// sendPolicy governs how transport failures are retried when talking to a
// chat endpoint. attempts counts every try including the first; baseWait is
// the unit the per-try wait grows from.
type sendPolicy struct {
	attempts int
	baseWait time.Duration
}

var defaultSendPolicy = sendPolicy{attempts: 4, baseWait: time.Second}

// transientStatus reports whether a response status is worth another try.
// Rate limits and server-side errors usually clear on their own; anything
// else is the caller's problem.
func transientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// send issues the request up to p.attempts times, rebuilding it each try so
// the body reader is fresh. Responses with a transient status are drained
// and retried; any other response goes back to the caller untouched.
func (p sendPolicy) send(ctx context.Context, client *http.Client, build func() (*http.Request, error), logger *slog.Logger) (*http.Response, error) {
	var lastErr error

	for try := 1; try <= p.attempts; try++ {
		if try > 1 {
			wait := p.waitBefore(try)
			logger.Warn("retrying chat request", "try", try, "wait", wait)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			logger.Warn("chat request failed", "try", try, "err", err)
			continue
		}

		if transientStatus(resp.StatusCode) {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			logger.Warn("chat endpoint returned transient status", "try", try, "status", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("gave up after %d tries: %w", p.attempts, lastErr)
}

// waitBefore grows quadratically with the try number plus a random jitter of
// up to half the base wait, so simultaneous clients drift apart.
func (p sendPolicy) waitBefore(try int) time.Duration {
	n := try - 1
	base := time.Duration(n*n) * p.baseWait
	return base + time.Duration(rand.Int64N(int64(base/2+1)))
}
