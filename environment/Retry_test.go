package environment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

// flaky is a Collaborator whose commands fail a fixed number of times
// before succeeding
type flaky struct {
	mu       sync.Mutex
	failures int
	calls    int
	err      error
}

func (f *flaky) try() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func (f *flaky) Attach(*Sensors)                                {}
func (f *flaky) Actuate(context.Context, Twist) error           { return f.try() }
func (f *flaky) Spawn(context.Context, string, r2.Vec) error    { return f.try() }
func (f *flaky) Delete(context.Context, string) error           { return f.try() }
func (f *flaky) Teleport(context.Context, string, r2.Vec) error { return f.try() }
func (f *flaky) Exists(context.Context, string) (bool, error)   { return true, f.try() }

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		Timeout:         Duration(time.Second),
		MaxAttempts:     attempts,
		InitialInterval: Duration(time.Millisecond),
		MaxElapsed:      Duration(time.Second),
	}
}

func TestRetryRecovers(t *testing.T) {
	f := &flaky{failures: 2, err: errors.New("timeout")}
	c, err := WithRetry(f, fastRetry(5), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, c.Actuate(context.Background(), Twist{Linear: 0.12}))
	require.Equal(t, 3, f.calls)
}

func TestRetryExhausted(t *testing.T) {
	f := &flaky{failures: 100, err: errors.New("no response")}
	c, err := WithRetry(f, fastRetry(3), zerolog.Nop())
	require.NoError(t, err)

	err = c.Spawn(context.Background(), "goal", r2.Vec{X: 0.5, Y: 0.5})
	require.Error(t, err)
	require.True(t, IsUnavailable(err))
	require.Equal(t, 3, f.calls)

	var envErr *Error
	require.True(t, errors.As(err, &envErr))
	require.Equal(t, "spawn", envErr.Op)
}

func TestRetryPermanent(t *testing.T) {
	f := &flaky{failures: 100, err: ErrNotFound}
	c, err := WithRetry(f, fastRetry(5), zerolog.Nop())
	require.NoError(t, err)

	err = c.Delete(context.Background(), "goal")
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, IsUnavailable(err))
	require.Equal(t, 1, f.calls)
}

// lossy is a Collaborator that applies the first entity command but
// never acknowledges it, so the retry sees the applied state
type lossy struct {
	mu     sync.Mutex
	exists bool
	calls  int
}

func (l *lossy) apply(ctx context.Context, want bool, err error) error {
	l.mu.Lock()
	l.calls++
	first := l.calls == 1
	if l.exists == want {
		l.mu.Unlock()
		return err
	}
	l.exists = want
	l.mu.Unlock()

	if first {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (l *lossy) Attach(*Sensors)                      {}
func (l *lossy) Actuate(context.Context, Twist) error { return nil }
func (l *lossy) Teleport(context.Context, string, r2.Vec) error {
	return nil
}
func (l *lossy) Spawn(ctx context.Context, _ string, _ r2.Vec) error {
	return l.apply(ctx, true, ErrExists)
}
func (l *lossy) Delete(ctx context.Context, _ string) error {
	return l.apply(ctx, false, ErrNotFound)
}
func (l *lossy) Exists(context.Context, string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.exists, nil
}

func TestRetryLostAcknowledgement(t *testing.T) {
	config := fastRetry(3)
	config.Timeout = Duration(20 * time.Millisecond)

	l := &lossy{}
	c, err := WithRetry(l, config, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, c.Spawn(context.Background(), "goal", r2.Vec{}))
	require.Equal(t, 2, l.calls)
	require.True(t, l.exists)

	l.calls = 0
	require.NoError(t, c.Delete(context.Background(), "goal"))
	require.Equal(t, 2, l.calls)
	require.False(t, l.exists)

	// A first attempt that finds the entity already there is a real
	// conflict
	l.calls = 0
	l.exists = true
	err = c.Spawn(context.Background(), "goal", r2.Vec{})
	require.ErrorIs(t, err, ErrExists)
	require.Equal(t, 1, l.calls)
}

func TestRetryCancelled(t *testing.T) {
	f := &flaky{failures: 100, err: errors.New("no response")}
	c, err := WithRetry(f, fastRetry(5), zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Exists(ctx, "goal")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRetryConfigValidate(t *testing.T) {
	require.NoError(t, DefaultRetryConfig().Validate())

	bad := DefaultRetryConfig()
	bad.MaxAttempts = 0
	require.Error(t, bad.Validate())

	bad = DefaultRetryConfig()
	bad.Timeout = 0
	require.Error(t, bad.Validate())

	_, err := WithRetry(&flaky{}, bad, zerolog.Nop())
	require.Error(t, err)
}
