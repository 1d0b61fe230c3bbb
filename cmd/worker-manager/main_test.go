package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"funnel-workers/internal/common/config"
	"funnel-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewTestLogger(t)

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		}, 5, time.Millisecond, log, "Redis connection")
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), func(context.Context) error {
			calls++
			return errors.New("connection refused")
		}, 3, time.Millisecond, log, "PostgreSQL connection")
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Contains(t, err.Error(), "PostgreSQL connection failed after 3 attempts")
	})

	t.Run("stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := retryWithBackoff(ctx, func(context.Context) error {
			return errors.New("connection refused")
		}, 5, time.Hour, log, "Elasticsearch connection")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, ln, logger.NewNoOpLogger()) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestTraceWriter(t *testing.T) {
	assert.Equal(t, os.Stderr, traceWriter("stderr"))
	assert.Equal(t, io.Discard, traceWriter("discard"))
	assert.Equal(t, os.Stdout, traceWriter(""))
}

func TestCopyJobTimeout(t *testing.T) {
	gateway := config.CompletionConfig{Provider: "gateway", Timeout: 30000, MaxRetries: 3, BaseDelay: 2000}

	// four 30s attempts plus 2s, 4s and 8s of backoff
	assert.Equal(t, 134*time.Second, copyJobTimeout(60*time.Second, gateway))

	single := config.CompletionConfig{Provider: "gateway", Timeout: 10000, MaxRetries: 0, BaseDelay: 2000}
	assert.Equal(t, 60*time.Second, copyJobTimeout(60*time.Second, single))
}
