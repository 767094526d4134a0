package catalogsync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}
}

func TestHTTPSource_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(catalogYAML))
	}))
	defer ts.Close()

	data, err := HTTPSource{URL: ts.URL, Retry: fastRetry(3)}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, catalogYAML, string(data))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPSource_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := HTTPSource{URL: ts.URL, Retry: fastRetry(2)}.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max attempts (2) exceeded")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPSource_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := HTTPSource{URL: ts.URL, Retry: fastRetry(5)}.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := withRetry(ctx, fastRetry(3), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestRetryPolicy_Validate(t *testing.T) {
	assert.NoError(t, RetryPolicy{}.Validate())
	assert.NoError(t, DefaultRetryPolicy().Validate())
	assert.Error(t, RetryPolicy{MaxAttempts: -1}.Validate())
	assert.Error(t, RetryPolicy{MaxAttempts: 2, Multiplier: 0.5}.Validate())
	assert.Error(t, RetryPolicy{MaxAttempts: 2, Multiplier: 1, InitialWait: time.Minute, MaxWait: time.Second}.Validate())

	err := withRetry(context.Background(), RetryPolicy{MaxAttempts: -1}, func(context.Context) error { return nil })
	assert.ErrorContains(t, err, "invalid retry policy")
}

func TestRetryPolicy_Wait(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, InitialWait: time.Second, MaxWait: 3 * time.Second, Multiplier: 2}
	assert.Equal(t, time.Duration(0), p.wait(0))
	assert.Equal(t, time.Second, p.wait(1))
	assert.Equal(t, 2*time.Second, p.wait(2))
	assert.Equal(t, 3*time.Second, p.wait(3))

	p.Jitter = true
	for i := 0; i < 20; i++ {
		w := p.wait(1)
		assert.GreaterOrEqual(t, w, 750*time.Millisecond)
		assert.LessOrEqual(t, w, 1250*time.Millisecond)
	}
}

func TestRetryable(t *testing.T) {
	assert.False(t, retryable(nil))
	assert.False(t, retryable(context.Canceled))
	assert.False(t, retryable(errors.New("boom")))
	assert.True(t, retryable(&StatusError{Code: http.StatusTooManyRequests}))
	assert.False(t, retryable(&StatusError{Code: http.StatusInternalServerError}))
}
