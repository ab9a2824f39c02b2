package mongo

import (
	"context"
	"errors"
	"net"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	apperrors "drivebay/pkg/errors"
	"drivebay/pkg/logger"
)

// RetryPolicy bounds automatic retries of transient storage failures.
// Permanent errors (not found, conflicts, validation) pass through
// untouched on the first attempt.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
	Log      *logger.Logger
}

// Execute runs op up to Attempts times, sleeping Backoff between attempts
// while the failure is transient. Exhausting the attempts surfaces the
// failure as SERVICE_UNAVAILABLE.
func (p RetryPolicy) Execute(ctx context.Context, opName string, op func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}

		lastErr = err
		if attempt == attempts {
			break
		}

		if p.Log != nil {
			p.Log.Warn("Transient storage failure, retrying",
				"operation", opName,
				"attempt", attempt,
				"error", err,
			)
		}

		select {
		case <-time.After(p.Backoff):
		case <-ctx.Done():
			return apperrors.Unavailable("booking store", ctx.Err())
		}
	}

	return apperrors.Unavailable("booking store", lastErr)
}

// IsTransient reports whether a storage error is worth retrying: network
// failures, timeouts, and server-side transient transaction labels.
// AppErrors are business outcomes and are never transient.
func IsTransient(err error) bool {
	if err == nil || apperrors.IsAppError(err) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError") ||
			cmdErr.HasErrorLabel("UnknownTransactionCommitResult")
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
