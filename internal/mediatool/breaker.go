package mediatool

import (
	"sync"
	"sync/atomic"

	"github.com/flashcat/flash/internal/metrics"
)

// consecutiveFailureTrip is the number of consecutive GPU failures that
// auto-disables GPU, per §4.11.
const consecutiveFailureTrip = 3

// cpuRetryInterval is how many CPU jobs pass between GPU retry attempts
// once tripped, per §4.11.
const cpuRetryInterval = 10

// breaker tracks consecutive GPU failures and gates GPU usage once tripped.
type breaker struct {
	mu               sync.Mutex
	consecutiveFails int
	disabled         bool
	cpuJobsSinceTrip int64
	accel            string
}

func newBreaker(accel string) *breaker {
	b := &breaker{accel: accel}
	metrics.MediaToolGPUEnabled.WithLabelValues(accel).Set(1)
	return b
}

// allowGPU reports whether this job may attempt the GPU path: always when
// not tripped; every 10th CPU job otherwise (§4.11 "every 10 subsequent
// CPU jobs, the breaker allows one GPU retry").
func (b *breaker) allowGPU() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.disabled {
		return true
	}
	n := atomic.LoadInt64(&b.cpuJobsSinceTrip)
	return n > 0 && n%cpuRetryInterval == 0
}

// recordGPUSuccess resets the breaker and re-enables GPU.
func (b *breaker) recordGPUSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFails = 0
	if b.disabled {
		b.disabled = false
		metrics.MediaToolGPUEnabled.WithLabelValues(b.accel).Set(1)
	}
	metrics.MediaToolGPUConsecutiveFailures.Set(0)
}

// recordGPUFailure increments the consecutive-failure counter, tripping
// the breaker to CPU-only on the third consecutive failure.
func (b *breaker) recordGPUFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFails++
	metrics.MediaToolGPUConsecutiveFailures.Set(float64(b.consecutiveFails))
	if b.consecutiveFails >= consecutiveFailureTrip && !b.disabled {
		b.disabled = true
		atomic.StoreInt64(&b.cpuJobsSinceTrip, 0)
		metrics.MediaToolGPUEnabled.WithLabelValues(b.accel).Set(0)
		metrics.MediaToolGPUTripsTotal.Inc()
	}
}

// recordCPUJob increments the CPU-job counter consulted by allowGPU.
func (b *breaker) recordCPUJob() {
	atomic.AddInt64(&b.cpuJobsSinceTrip, 1)
}

// isDisabled reports whether the breaker has tripped to CPU-only.
func (b *breaker) isDisabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disabled
}
