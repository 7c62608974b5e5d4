package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kestrelhq/ddrgen/types"
)

// RetryPolicy bounds how often a collaborator call is re-attempted and how
// long the pipeline sleeps between attempts.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// PolicyFromConfig converts the configuration block into a policy.
func PolicyFromConfig(cfg types.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: time.Duration(cfg.InitialBackoffMs) * time.Millisecond,
		MaxBackoff:     time.Duration(cfg.MaxBackoffMs) * time.Millisecond,
		Multiplier:     cfg.Multiplier,
	}
}

// callWithRetry runs fn up to MaxAttempts times with exponential backoff.
// Non-retryable errors abort immediately; context cancellation skips further
// attempts and interrupts the backoff sleep. The returned error always
// carries the failing stage.
func callWithRetry[T any](ctx context.Context, policy RetryPolicy, stage Stage, emit ProgressFunc, log *slog.Logger, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	backoff := policy.InitialBackoff
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, stageError(stage, err)
		}
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !types.IsRetryable(err) {
			log.Error("stage failed with non-retryable error", "stage", stage.String(), "error", err)
			break
		}
		if attempt == policy.MaxAttempts {
			log.Error("stage exhausted retry budget", "stage", stage.String(), "attempts", attempt, "error", err)
			break
		}

		log.Warn("stage attempt failed, backing off",
			"stage", stage.String(), "attempt", attempt, "backoff", backoff, "error", err)
		if emit != nil {
			emit(ProgressEvent{Stage: stage, Status: ProgressRetrying, Message: err.Error(), Attempt: attempt})
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return zero, stageError(stage, ctx.Err())
		}
		backoff = nextBackoff(backoff, policy)
	}

	return zero, stageError(stage, lastErr)
}

func nextBackoff(current time.Duration, policy RetryPolicy) time.Duration {
	next := time.Duration(float64(current) * policy.Multiplier)
	if policy.MaxBackoff > 0 && next > policy.MaxBackoff {
		return policy.MaxBackoff
	}
	return next
}

// stageError guarantees the error handed out of a stage is a PipelineError
// annotated with the stage name, preserving the original error for
// errors.Is/As checks.
func stageError(stage Stage, err error) error {
	var pe *types.PipelineError
	if errors.As(err, &pe) {
		if pe.Stage == "" {
			return pe.AtStage(stage.String())
		}
		return pe
	}
	wrapped := &types.PipelineError{
		Code:    types.ErrCodeExternalService,
		Message: err.Error(),
		Err:     err,
	}
	return wrapped.AtStage(stage.String())
}
