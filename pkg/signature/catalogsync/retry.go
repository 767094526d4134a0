// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// RetryPolicy controls how HTTPSource retries transient failures:
// connection errors, timeouts and 429/502/503/504 responses.
type RetryPolicy struct {
	// MaxAttempts counts the first try; zero or one means no retries.
	MaxAttempts int
	// InitialWait is the pause before the second attempt.
	InitialWait time.Duration
	// MaxWait caps the pause between attempts; zero means no cap.
	MaxWait time.Duration
	// Multiplier grows the pause after each attempt (must be >= 1.0).
	Multiplier float64
	// Jitter adds up to ±25% randomness to each pause.
	Jitter bool
}

// DefaultRetryPolicy returns the policy used by `lac catalog sync`.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		InitialWait: 1 * time.Second,
		MaxWait:     30 * time.Second,
		Multiplier:  2.0,
		Jitter:      true,
	}
}

// Validate checks that the policy is usable.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 0 {
		return fmt.Errorf("MaxAttempts must be >= 0, got %d", p.MaxAttempts)
	}
	if p.MaxAttempts <= 1 {
		return nil
	}
	if p.InitialWait < 0 {
		return fmt.Errorf("InitialWait must be >= 0, got %v", p.InitialWait)
	}
	if p.MaxWait < 0 {
		return fmt.Errorf("MaxWait must be >= 0, got %v", p.MaxWait)
	}
	if p.Multiplier < 1.0 {
		return fmt.Errorf("multiplier must be >= 1.0, got %f", p.Multiplier)
	}
	if p.MaxWait > 0 && p.InitialWait > p.MaxWait {
		return fmt.Errorf("InitialWait (%v) must be <= MaxWait (%v)", p.InitialWait, p.MaxWait)
	}
	return nil
}

// wait returns the pause after the given failed attempt (1-based).
func (p RetryPolicy) wait(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	wait := float64(p.InitialWait) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.MaxWait > 0 && wait > float64(p.MaxWait) {
		wait = float64(p.MaxWait)
	}
	if p.Jitter {
		spread := wait * 0.25
		wait += (rand.Float64() * 2 * spread) - spread
	}
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

// StatusError reports a non-2xx response from a catalog URL.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status from catalog source: %s", e.Status)
}

func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && dnsErr.IsTemporary
}

// withRetry runs fn until it succeeds, fails permanently, or the policy runs out.
func withRetry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("invalid retry policy: %w", err)
	}

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		select {
		case <-time.After(policy.wait(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("max attempts (%d) exceeded: %w", attempts, lastErr)
}
