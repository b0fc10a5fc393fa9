package middleware

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue/v2"

	"github.com/juntao/modelgate/errors"
	"github.com/juntao/modelgate/server/metrics"
)

// QueueMiddleware bounds the number of chat requests admitted concurrently.
// Requests join a FIFO queue on arrival and leave it when their handler
// returns; once the queue is full, new requests are rejected immediately
// with 503 rather than piling onto a paid upstream.
type QueueMiddleware struct {
	queue      *queue.Queue[chan struct{}]
	maxSize    atomic.Int64
	mu         sync.RWMutex
	processing int32
	metrics    *metrics.Metrics
}

// QueueConfig defines the queue's operational parameters.
type QueueConfig struct {
	// MaxSize is the maximum number of requests allowed in the queue.
	MaxSize int64

	// Metrics is the optional Prometheus collector for queue monitoring.
	Metrics *metrics.Metrics
}

// NewQueueMiddleware initializes a queue middleware. The queue begins
// accepting requests immediately.
func NewQueueMiddleware(cfg QueueConfig) *QueueMiddleware {
	qm := &QueueMiddleware{
		queue:   queue.New[chan struct{}](),
		metrics: cfg.Metrics,
	}
	qm.maxSize.Store(cfg.MaxSize)
	return qm
}

// SetMaxSize updates the maximum queue size. Takes effect immediately for
// new requests.
func (qm *QueueMiddleware) SetMaxSize(size int64) {
	qm.maxSize.Store(size)
}

// GetQueueSize returns the current queue length.
func (qm *QueueMiddleware) GetQueueSize() int {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return qm.queue.Length()
}

// GetProcessing returns the number of requests currently being processed.
func (qm *QueueMiddleware) GetProcessing() int32 {
	return atomic.LoadInt32(&qm.processing)
}

// Handler manages the request lifecycle through the queue. Cleanup happens
// in a defer so queue slots are released even when the handler panics.
func (qm *QueueMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		qm.mu.Lock()
		currentSize := qm.queue.Length()
		maxSize := qm.maxSize.Load()

		if qm.metrics != nil {
			qm.metrics.ActiveRequests.WithLabelValues("queued").Set(float64(currentSize))
		}

		if int64(currentSize) >= maxSize {
			qm.mu.Unlock()
			if qm.metrics != nil {
				qm.metrics.ErrorsTotal.WithLabelValues("queue_full").Inc()
			}
			errors.Error(w, "Queue is full", http.StatusServiceUnavailable)
			return
		}

		done := make(chan struct{})
		qm.queue.Add(done)
		qm.mu.Unlock()

		atomic.AddInt32(&qm.processing, 1)
		if qm.metrics != nil {
			qm.metrics.ActiveRequests.WithLabelValues("processing").Inc()
		}

		defer func() {
			atomic.AddInt32(&qm.processing, -1)
			if qm.metrics != nil {
				qm.metrics.ActiveRequests.WithLabelValues("processing").Dec()
			}
			close(done)
			qm.mu.Lock()
			qm.queue.Remove()
			if qm.metrics != nil {
				qm.metrics.ActiveRequests.WithLabelValues("queued").Set(float64(qm.queue.Length()))
			}
			qm.mu.Unlock()

			if qm.metrics != nil {
				qm.metrics.RequestDuration.WithLabelValues("queue_wait").Observe(time.Since(start).Seconds())
			}
		}()

		next.ServeHTTP(w, r)
	})
}
