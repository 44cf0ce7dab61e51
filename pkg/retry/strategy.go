package retry

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/ybbus/jsonrpc"
)

// Strategy decides whether a failed action should be attempted again. It may
// block before returning.
type Strategy func(attempts uint, err error) bool

// Limit caps the total number of attempts, including the first one.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only allows retries for errors matching one of the provided
// errors.
func RetriableErrors(retriable ...error) Strategy {
	return func(_ uint, err error) bool {
		for _, e := range retriable {
			if errors.Is(err, e) {
				return true
			}
		}
		return false
	}
}

// RetriableRPCCodes only allows retries for JSON-RPC failures carrying one of
// the provided codes. Both RPC error objects and bare HTTP failures are
// matched.
func RetriableRPCCodes(codes ...int) Strategy {
	return func(_ uint, err error) bool {
		code, ok := rpcCode(err)
		if !ok {
			return false
		}

		for _, c := range codes {
			if code == c {
				return true
			}
		}
		return false
	}
}

func rpcCode(err error) (int, bool) {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code, true
	}

	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, true
	}

	return 0, false
}

// Backoff sleeps for the delay of the current attempt, capped at maxDelay.
func Backoff(delay Delay, maxDelay time.Duration) Strategy {
	return func(attempts uint, _ error) bool {
		sleeperImpl.Sleep(capDelay(delay(attempts), maxDelay))
		return true
	}
}

// BackoffWithJitter is Backoff with the capped delay shifted by up to
// +/- jitter of itself. A jitter of 0.1 on 100ms sleeps between 90ms and 110ms.
func BackoffWithJitter(delay Delay, maxDelay time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		capped := capDelay(delay(attempts), maxDelay)
		sleeperImpl.Sleep(time.Duration(float64(capped) * (1 + (rand.Float64()*2-1)*jitter)))
		return true
	}
}

func capDelay(d, max time.Duration) time.Duration {
	if d > max || d < 0 {
		return max
	}
	return d
}

type sleeper interface {
	Sleep(time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

var sleeperImpl sleeper = realSleeper{}
