package environment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r2"
)

// RetryConfig bounds how long commands to a Collaborator are retried
// before the Collaborator is declared unavailable
type RetryConfig struct {
	// Timeout for a single attempt of a command
	Timeout Duration `json:"timeout"`

	// Maximum number of attempts per command
	MaxAttempts int `json:"max_attempts"`

	// Wait before the first retry, doubled on each further retry
	InitialInterval Duration `json:"initial_interval"`

	// Total time allowed across all attempts of a command
	MaxElapsed Duration `json:"max_elapsed"`
}

// DefaultRetryConfig returns the RetryConfig used when none is given
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Timeout:         Duration(2 * time.Second),
		MaxAttempts:     5,
		InitialInterval: Duration(50 * time.Millisecond),
		MaxElapsed:      Duration(10 * time.Second),
	}
}

// Validate checks the RetryConfig for errors
func (r RetryConfig) Validate() error {
	if r.MaxAttempts < 1 {
		return fmt.Errorf("validate: max attempts should be positive"+
			"\n\twant(>0)\n\thave(%v)", r.MaxAttempts)
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("validate: timeout should be positive"+
			"\n\twant(>0)\n\thave(%v)", r.Timeout)
	}
	if r.InitialInterval < 0 || r.MaxElapsed < 0 {
		return fmt.Errorf("validate: retry intervals should be "+
			"non-negative\n\twant(>=0)\n\thave(%v, %v)", r.InitialInterval,
			r.MaxElapsed)
	}
	return nil
}

// retrier decorates a Collaborator so that every command is bounded by
// a timeout and retried with exponential backoff. Commands that still
// fail are reported as ErrUnavailable. ErrNotFound and ErrExists are
// answers rather than failures and are never retried.
type retrier struct {
	Collaborator
	config RetryConfig
	logger zerolog.Logger
}

// WithRetry wraps a Collaborator so that its commands are retried
// according to config
func WithRetry(c Collaborator, config RetryConfig,
	logger zerolog.Logger) (Collaborator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &retrier{
		Collaborator: c,
		config:       config,
		logger:       logger.With().Str("component", "retry").Logger(),
	}, nil
}

func (r *retrier) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = time.Duration(r.config.InitialInterval)
	exp.MaxElapsedTime = time.Duration(r.config.MaxElapsed)
	exp.Multiplier = 2
	exp.RandomizationFactor = 0

	// WithMaxRetries counts retries, not attempts
	retries := uint64(r.config.MaxAttempts - 1)
	return backoff.WithContext(backoff.WithMaxRetries(exp, retries), ctx)
}

// do runs f until it succeeds or the retry policy gives up. An
// earlier attempt may have been applied without its acknowledgement
// arriving, so from the second attempt on an error matching settled
// means the entity is already in the requested state.
func (r *retrier) do(ctx context.Context, op string, settled error,
	f func(context.Context) error) error {
	attempts := 0
	attempt := func() error {
		attempts++
		callCtx, cancel := context.WithTimeout(ctx,
			time.Duration(r.config.Timeout))
		defer cancel()

		err := f(callCtx)
		if attempts > 1 && settled != nil && errors.Is(err, settled) {
			r.logger.Debug().Err(err).Str("op", op).Int("attempt", attempts).
				Msg("command already applied")
			return nil
		}
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExists) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warn().Err(err).Str("op", op).Dur("wait", wait).
			Msg("command failed, retrying")
	}

	err := backoff.RetryNotify(attempt, r.policy(ctx), notify)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExists) {
		return &Error{Op: op, Err: err}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &Error{Op: op, Err: ctxErr}
	}
	return &Error{Op: op, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
}

// Actuate applies a velocity command, retrying on failure
func (r *retrier) Actuate(ctx context.Context, t Twist) error {
	return r.do(ctx, "actuate", nil, func(ctx context.Context) error {
		return r.Collaborator.Actuate(ctx, t)
	})
}

// Spawn creates an entity, retrying on failure
func (r *retrier) Spawn(ctx context.Context, name string, at r2.Vec) error {
	return r.do(ctx, "spawn", ErrExists, func(ctx context.Context) error {
		return r.Collaborator.Spawn(ctx, name, at)
	})
}

// Delete removes an entity, retrying on failure
func (r *retrier) Delete(ctx context.Context, name string) error {
	return r.do(ctx, "delete", ErrNotFound, func(ctx context.Context) error {
		return r.Collaborator.Delete(ctx, name)
	})
}

// Teleport moves an entity, retrying on failure
func (r *retrier) Teleport(ctx context.Context, name string,
	at r2.Vec) error {
	return r.do(ctx, "teleport", nil, func(ctx context.Context) error {
		return r.Collaborator.Teleport(ctx, name, at)
	})
}

// Exists queries an entity, retrying on failure
func (r *retrier) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.do(ctx, "exists", nil, func(ctx context.Context) error {
		var err error
		exists, err = r.Collaborator.Exists(ctx, name)
		return err
	})
	return exists, err
}
