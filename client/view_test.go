package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	rendered []*TransactionRecord
}

func (r *fakeRenderer) Render(record *TransactionRecord) {
	r.rendered = append(r.rendered, record)
}

func TestView_SlowLoadingHint(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-gate:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	recorder := newSnapshotRecorder()
	coord := NewCoordinator(NewFetcher(server.URL, nil, nil), nil, nil)
	coord.OnChange = recorder.hook
	view := NewView(coord, nil)

	coord.Start(context.Background(), sigA)
	recorder.waitFor(t, "loading", func(s Snapshot) bool { return s.State == StateLoading })

	state := view.State()
	assert.Equal(t, PhaseLoading, state.Phase)
	assert.False(t, state.Slow, "hint must not show immediately")

	// The hint appears after 5 continuous seconds in Loading; advance the
	// view's clock instead of sleeping.
	view.now = func() time.Time { return time.Now().Add(SlowLoadThreshold) }
	state = view.State()
	assert.Equal(t, PhaseLoading, state.Phase)
	assert.True(t, state.Slow)
}

func TestView_ErrorState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limit exceeded"}`))
	}))
	defer server.Close()

	recorder := newSnapshotRecorder()
	coord := NewCoordinator(NewFetcher(server.URL, nil, nil), nil, nil)
	coord.OnChange = recorder.hook
	view := NewView(coord, nil)

	coord.Start(context.Background(), sigA)
	recorder.waitFor(t, "failure", func(s Snapshot) bool { return s.State == StateFailed })

	state := view.State()
	assert.Equal(t, PhaseError, state.Phase)
	assert.Equal(t, "rate limit exceeded", state.Message, "error message shown verbatim")
	assert.Equal(t, LoadFailureCauses, state.Causes)
	assert.Nil(t, state.Record)
}

func TestView_RendererInvokedOnSuccess(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(transactionHandler(&requests, nil))
	defer server.Close()

	recorder := newSnapshotRecorder()
	renderer := &fakeRenderer{}
	coord := NewCoordinator(NewFetcher(server.URL, nil, nil), nil, nil)
	coord.PrefetchAccounts = 0
	coord.OnChange = recorder.hook
	view := NewView(coord, renderer)
	_ = view

	coord.Start(context.Background(), sigA)
	recorder.waitFor(t, "success", func(s Snapshot) bool { return s.State == StateSuccess })

	require.Len(t, renderer.rendered, 1)
	assert.Equal(t, sigA, renderer.rendered[0].Signature)
}

func TestView_RetryBypassesCache(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(transactionHandler(&requests, nil))
	defer server.Close()

	recorder := newSnapshotRecorder()
	coord := NewCoordinator(NewFetcher(server.URL, nil, nil), nil, nil)
	coord.PrefetchAccounts = 0
	coord.OnChange = recorder.hook
	view := NewView(coord, nil)

	coord.Start(context.Background(), sigA)
	recorder.waitFor(t, "first success", func(s Snapshot) bool { return s.State == StateSuccess })
	require.Equal(t, int64(1), requests.Load())

	view.Retry()
	recorder.waitFor(t, "second success", func(s Snapshot) bool { return s.State == StateSuccess })
	assert.Equal(t, int64(2), requests.Load(), "retry must refetch even when cached")
}
