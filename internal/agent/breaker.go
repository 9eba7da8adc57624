package agent

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrAgentsUnavailable is returned while the breaker is open.
var ErrAgentsUnavailable = errors.New("agent backend temporarily unavailable")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerDispatcher wraps a Dispatcher with a circuit breaker so a failing
// model backend sheds load fast instead of stacking up timeouts.
type BreakerDispatcher struct {
	inner Dispatcher

	mu              sync.Mutex
	state           breakerState
	failureCount    int
	successCount    int
	lastFailureTime time.Time

	maxFailures     int
	timeout         time.Duration
	halfOpenSuccess int
}

func NewBreakerDispatcher(inner Dispatcher, maxFailures int, timeout time.Duration) *BreakerDispatcher {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &BreakerDispatcher{
		inner:           inner,
		state:           stateClosed,
		maxFailures:     maxFailures,
		timeout:         timeout,
		halfOpenSuccess: 1,
	}
}

func (b *BreakerDispatcher) Dispatch(ctx context.Context, req Request) (Response, error) {
	b.mu.Lock()
	if b.state == stateOpen {
		if time.Since(b.lastFailureTime) > b.timeout {
			b.state = stateHalfOpen
			b.successCount = 0
		} else {
			b.mu.Unlock()
			return Response{}, ErrAgentsUnavailable
		}
	}
	b.mu.Unlock()

	resp, err := b.inner.Dispatch(ctx, req)

	b.mu.Lock()
	defer b.mu.Unlock()

	// A request the backend understood but rejected is not a backend fault.
	if err != nil && !errors.Is(err, ErrUnknownAgent) {
		b.onFailure()
		return Response{}, err
	}

	b.onSuccess()
	return resp, err
}

func (b *BreakerDispatcher) onFailure() {
	b.failureCount++
	b.lastFailureTime = time.Now()

	if b.state == stateHalfOpen {
		b.state = stateOpen
		b.successCount = 0
	} else if b.failureCount >= b.maxFailures {
		b.state = stateOpen
	}
}

func (b *BreakerDispatcher) onSuccess() {
	switch b.state {
	case stateHalfOpen:
		b.successCount++
		if b.successCount >= b.halfOpenSuccess {
			b.state = stateClosed
			b.failureCount = 0
		}
	case stateClosed:
		b.failureCount = 0
	}
}

// State reports the breaker state for the admin status endpoint.
func (b *BreakerDispatcher) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.String()
}
