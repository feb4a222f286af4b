package workspace

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// Limiter paces calls to the store. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewRateLimiter returns a token bucket allowing perSecond requests with
// the given burst.
func NewRateLimiter(perSecond float64, burst int) *rate.Limiter {
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// limitedTransport waits on a Limiter before every request.
type limitedTransport struct {
	next    http.RoundTripper
	limiter Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return t.next.RoundTrip(req)
}
