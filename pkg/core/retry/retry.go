// Package retry implements the policy-value retry scheme used by every
// source adapter and the AI client. A Policy is plain data; Do applies it to
// an operation and returns the operation's result or the last error.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Kind classifies errors for retry decisions and source-status reporting.
type Kind string

const (
	KindTransient    Kind = "transient_transport"
	KindPermanent    Kind = "permanent_transport"
	KindUnconfigured Kind = "unconfigured"
	KindParse        Kind = "parse"
	KindValidation   Kind = "validation"
	KindResource     Kind = "resource"
)

// Error pairs an error kind with its cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transient wraps err as a retryable transport error.
func Transient(err error) error { return &Error{Kind: KindTransient, Err: err} }

// Permanent wraps err as a non-retryable transport error.
func Permanent(err error) error { return &Error{Kind: KindPermanent, Err: err} }

// Unconfigured marks a source as missing required credentials.
func Unconfigured(source string) error {
	return &Error{Kind: KindUnconfigured, Err: fmt.Errorf("%s source is not configured", source)}
}

// ParseErr wraps a malformed-payload error.
func ParseErr(err error) error { return &Error{Kind: KindParse, Err: err} }

// KindOf extracts the classification of err, defaulting to permanent for
// unclassified errors so unknown failures are never retried blindly.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPermanent
}

// IsUnconfigured reports whether err carries the unconfigured kind.
func IsUnconfigured(err error) bool { return KindOf(err) == KindUnconfigured }

// Policy is the retry configuration exposed as a value, per adapter.
type Policy struct {
	MaxTries    int
	InitialWait time.Duration
	Factor      float64
	Jitter      bool
	TotalBudget time.Duration // 0 = unbounded
	RetryOn     []Kind
	OnBackoff   func(attempt int, wait time.Duration, err error)
}

// Adapter policies. Narrative streams tolerate more attempts; trade and
// macro cap the total budget at 60s.
var (
	NarrativePolicy = Policy{MaxTries: 5, InitialWait: time.Second, Factor: 2, RetryOn: []Kind{KindTransient}}
	TradePolicy     = Policy{MaxTries: 3, InitialWait: time.Second, Factor: 2, Jitter: true, TotalBudget: 60 * time.Second, RetryOn: []Kind{KindTransient}}
	MacroPolicy     = Policy{MaxTries: 3, InitialWait: time.Second, Factor: 2, Jitter: true, TotalBudget: 60 * time.Second, RetryOn: []Kind{KindTransient}}
	AIPolicy        = Policy{MaxTries: 3, InitialWait: 2 * time.Second, Factor: 2, RetryOn: []Kind{KindTransient}}
)

func (p Policy) shouldRetry(err error) bool {
	kind := KindOf(err)
	for _, k := range p.RetryOn {
		if k == kind {
			return true
		}
	}
	return false
}

// Do runs op under the policy. It returns the first success, the first
// non-retryable error, or the last error once tries or budget run out.
// Context cancellation stops the backoff sleep immediately.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if p.MaxTries <= 0 {
		p.MaxTries = 1
	}

	start := time.Now()
	wait := p.InitialWait
	var lastErr error

	for attempt := 1; attempt <= p.MaxTries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !p.shouldRetry(err) || attempt == p.MaxTries {
			break
		}
		if p.TotalBudget > 0 && time.Since(start)+wait > p.TotalBudget {
			break
		}

		sleep := wait
		if p.Jitter {
			sleep = wait/2 + time.Duration(rand.Int63n(int64(wait)/2+1))
		}
		if p.OnBackoff != nil {
			p.OnBackoff(attempt, sleep, err)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(sleep):
		}
		wait = time.Duration(float64(wait) * p.Factor)
	}

	return zero, lastErr
}
