// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/semsearch/ai"
	"github.com/poiesic/semsearch/core"
)

// SleepFunc blocks for d or until ctx is done, returning ctx.Err() in the latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits for d with context awareness.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Backoff returns the wait before the retry that follows a failed attempt:
// base * 2^attempt, with attempt counted from 0.
func Backoff(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<attempt)
}

// retryWithBackoff retries an operation with exponential backoff.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: wait after the first failure (doubles on each retry)
// Only errors that ai.Classify reports as transient are retried.
func retryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration, sleep SleepFunc, logger *slog.Logger) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 0 {
				logger.Debug("operation succeeded after retry", "attempt", attempt+1)
			}
			return nil
		}

		switch ai.Classify(lastErr) {
		case ai.KindCanceled:
			if err := ctx.Err(); err != nil {
				return err
			}
			return lastErr
		case ai.KindFatal, ai.KindNone:
			logger.Debug("operation failed with non-retryable error", "attempt", attempt+1, "error", lastErr)
			return withKind(lastErr, core.ErrFatalProvider)
		}

		// Don't sleep after the last attempt
		if attempt == maxAttempts-1 {
			break
		}

		delay := Backoff(baseDelay, attempt)
		logger.Debug("operation failed, will retry",
			"attempt", attempt+1, "maxAttempts", maxAttempts, "delay", delay, "error", lastErr)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, maxAttempts, withKind(lastErr, core.ErrTransientProvider))
}

// withKind wraps err with kind unless it already matches.
func withKind(err, kind error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
