package aidb

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// backoffPolicy bounds how hard one refresh cycle leans on a flaky upstream
// before giving up and leaving the corpus stale until the next cycle.
type backoffPolicy struct {
	attempts     int
	initialDelay time.Duration
	maxDelay     time.Duration
}

// policyFor derives a source's retry budget from its refresh cadence: a
// corpus refreshed every few hours can afford minute-scale backoff, but the
// whole retry window stays a small slice of the period so a slow upstream
// can't bleed into the next scheduled cycle.
func policyFor(refreshPeriod time.Duration) backoffPolicy {
	p := backoffPolicy{
		attempts:     5,
		initialDelay: 5 * time.Second,
		maxDelay:     5 * time.Minute,
	}
	if refreshPeriod > 0 && refreshPeriod/16 < p.maxDelay {
		p.maxDelay = refreshPeriod / 16
	}
	if p.maxDelay < p.initialDelay {
		p.maxDelay = p.initialDelay
	}
	return p
}

// retryTransient runs fn up to the policy's attempt budget, doubling the
// delay between attempts. Only transient network failures are retried;
// anything else (a 4xx, a parse failure, an open circuit breaker) reports
// straight back to the caller.
func retryTransient(ctx context.Context, policy backoffPolicy, logger zerolog.Logger, fn func() error) error {
	delay := policy.initialDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().Int("attempt", attempt).Msg("refresh succeeded after retry")
			}
			return nil
		}
		if !isTransient(err) || attempt >= policy.attempts {
			return err
		}

		logger.Warn().Err(err).
			Int("attempt", attempt).
			Int("maxAttempts", policy.attempts).
			Dur("nextRetryIn", delay).
			Msg("transient refresh failure, backing off")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > policy.maxDelay {
			delay = policy.maxDelay
		}
	}
}

// isTransient classifies the failures worth a same-cycle retry: timeouts,
// refused or reset connections, DNS blips. An upstream that answered with an
// error status, or a corpus file that failed to parse, won't get better by
// asking again seconds later.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout() || urlErr.Temporary() || isTransient(urlErr.Err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
