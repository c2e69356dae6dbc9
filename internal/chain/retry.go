package chain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
)

const (
	defaultBackoffBase = 100 * time.Millisecond
	defaultBackoffMax  = 10 * time.Second

	// JSON-RPC code geth and hardhat use for a reverted eth_call.
	revertErrorCode = 3
)

// Backoff retries idempotent RPC reads with exponential delays.
type Backoff struct {
	Retries int
	Base    time.Duration
	Max     time.Duration
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsExecutionRevert reports whether err is a contract revert rather than a transport failure.
func IsExecutionRevert(err error) bool {
	if err == nil {
		return false
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		var codeErr rpc.Error
		if errors.As(err, &codeErr) && codeErr.ErrorCode() == revertErrorCode {
			return true
		}
	}
	return strings.Contains(err.Error(), "execution reverted")
}

// Do calls fn until it succeeds, the retries run out, or the error is permanent.
func (b Backoff) Do(ctx context.Context, fn func(context.Context) error) error {
	retries := b.Retries
	if retries < 0 {
		retries = 0
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if IsExecutionRevert(err) || attempt >= retries {
			return err
		}

		timer := time.NewTimer(b.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (b Backoff) delay(attempt int) time.Duration {
	base := b.Base
	if base <= 0 {
		base = defaultBackoffBase
	}
	max := b.Max
	if max <= 0 {
		max = defaultBackoffMax
	}

	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	return d
}
