package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueAllowsWithinLimit(t *testing.T) {
	qm := NewQueueMiddleware(QueueConfig{MaxSize: 2})
	handler := qm.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/chat", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, qm.GetQueueSize())
	assert.Equal(t, int32(0), qm.GetProcessing())
}

func TestQueueRejectsWhenFull(t *testing.T) {
	qm := NewQueueMiddleware(QueueConfig{MaxSize: 1})

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	handler := qm.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusOK)
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/chat", nil))
	}()
	<-started

	// The slot is taken; the next request is turned away.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/chat", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Queue is full", body["error"])

	close(release)
	wg.Wait()
	assert.Equal(t, 0, qm.GetQueueSize())
}

func TestQueueReleasesSlotOnPanic(t *testing.T) {
	qm := NewQueueMiddleware(QueueConfig{MaxSize: 1})
	handler := qm.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	assert.Panics(t, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/chat", nil))
	})
	assert.Equal(t, 0, qm.GetQueueSize())
	assert.Equal(t, int32(0), qm.GetProcessing())
}

func TestQueueSetMaxSize(t *testing.T) {
	qm := NewQueueMiddleware(QueueConfig{MaxSize: 0})
	handler := qm.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/chat", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	qm.SetMaxSize(10)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/chat", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueueTracksProcessing(t *testing.T) {
	qm := NewQueueMiddleware(QueueConfig{MaxSize: 5})

	release := make(chan struct{})
	started := make(chan struct{})
	handler := qm.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	}))

	go handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/chat", nil))
	<-started
	assert.Equal(t, int32(1), qm.GetProcessing())

	close(release)
	require.Eventually(t, func() bool {
		return qm.GetProcessing() == 0
	}, time.Second, 5*time.Millisecond)
}
