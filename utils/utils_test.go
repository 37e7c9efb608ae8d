package utils

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetColor(false)
	t.Cleanup(func() {
		SetOutput(nil)
		SetColor(true)
	})
	return &buf
}

func TestLoggerPlainOutput(t *testing.T) {
	buf := captureLogs(t)

	Warn("card %d has no link", 3)

	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "card 3 has no link")
	assert.NotContains(t, buf.String(), "\033[")
}

func TestRetryStopsOnSuccess(t *testing.T) {
	captureLogs(t)

	calls := 0
	err := Retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryReturnsLastError(t *testing.T) {
	captureLogs(t)

	boom := errors.New("boom")
	err := Retry(context.Background(), 2, time.Millisecond, func() error { return boom })

	assert.ErrorIs(t, err, boom)
}

func TestRetryHonoursContext(t *testing.T) {
	captureLogs(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Hour, func() error { return errors.New("down") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPacerSpacesCalls(t *testing.T) {
	p := NewPacer(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	assert.Less(t, time.Since(start), 40*time.Millisecond, "first wait is immediate")

	require.NoError(t, p.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestPacerZeroDelay(t *testing.T) {
	p := NewPacer(0)
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Wait(context.Background()))
		p.Done()
	}
}

func TestPacerDoneRestartsInterval(t *testing.T) {
	p := NewPacer(50 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, p.Wait(ctx))
	// slower than the interval, so the limiter alone would not block
	time.Sleep(80 * time.Millisecond)
	p.Done()

	finished := time.Now()
	require.NoError(t, p.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(finished), 45*time.Millisecond)
}

func TestPacerWaitHonoursContext(t *testing.T) {
	p := NewPacer(time.Hour)
	require.NoError(t, p.Wait(context.Background()))
	p.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Wait(ctx))
}

func TestStealthOpts(t *testing.T) {
	ua := RandomUserAgent()
	assert.Contains(t, userAgents, ua)

	headed := StealthOpts(false, ua)
	headless := StealthOpts(true, ua)
	assert.Len(t, headless, len(headed)+1)
	assert.Len(t, headed, 4+len(searchPageFlags)+len(containerFlags))
}
