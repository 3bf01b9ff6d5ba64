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


package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/poiesic/semsearch/core"
	"github.com/tmc/langchaingo/llms"
)

// ErrorKind tells a caller whether a failed provider call can be retried.
type ErrorKind int

const (
	// KindNone means there was no error.
	KindNone ErrorKind = iota
	// KindTransient covers rate limits, timeouts and transport failures.
	KindTransient
	// KindFatal covers everything a retry cannot fix.
	KindFatal
	// KindCanceled means the caller's context was canceled.
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	case KindCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ProviderError is an error already classified by the provider implementation.
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets callers match classified errors against the core error kinds.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case core.ErrTransientProvider:
		return e.Kind == KindTransient
	case core.ErrFatalProvider:
		return e.Kind == KindFatal
	}
	return false
}

// Transient marks err as retryable.
func Transient(provider string, err error) error {
	return &ProviderError{Kind: KindTransient, Provider: provider, Err: err}
}

// Fatal marks err as non-retryable.
func Fatal(provider string, err error) error {
	return &ProviderError{Kind: KindFatal, Provider: provider, Err: err}
}

// Classify decides whether err from an Embedder can be retried.
// Explicitly classified ProviderErrors win, then langchaingo error codes,
// then transport and context errors. Anything unrecognized is fatal.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Kind
	}

	var lerr *llms.Error
	if errors.As(err, &lerr) {
		switch lerr.Code {
		case llms.ErrCodeRateLimit, llms.ErrCodeProviderUnavailable, llms.ErrCodeTimeout:
			return KindTransient
		case llms.ErrCodeCanceled:
			return KindCanceled
		case llms.ErrCodeUnknown:
			// Fall through and inspect the cause.
		default:
			return KindFatal
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return KindTransient
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return KindTransient
	}

	return KindFatal
}
