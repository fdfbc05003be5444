package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSignature = "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7"

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/transaction/"+testSignature, r.URL.Path)

		record := DemoRecord()
		record.Signature = testSignature
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(record)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, nil, nil)
	record, err := fetcher.Fetch(context.Background(), testSignature)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, testSignature, record.Signature)
	assert.Equal(t, "token", record.Type)
	assert.True(t, record.Success)
	assert.Len(t, record.Details.Accounts, 7)
}

func TestFetch_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
		wantMsg  string
	}{
		{
			name:     "not found",
			status:   http.StatusNotFound,
			body:     `{"error": "transaction not found"}`,
			wantKind: ErrorNotFound,
			wantMsg:  "transaction not found",
		},
		{
			name:     "not found without body",
			status:   http.StatusNotFound,
			body:     "",
			wantKind: ErrorNotFound,
			wantMsg:  "transaction not found",
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"error": "too many requests"}`,
			wantKind: ErrorRateLimited,
			wantMsg:  "too many requests",
		},
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			body:     "",
			wantKind: ErrorForbidden,
			wantMsg:  "access forbidden",
		},
		{
			name:     "server error with details",
			status:   http.StatusInternalServerError,
			body:     `{"error": "upstream failure", "details": {"rpc": "node unavailable"}}`,
			wantKind: ErrorServer,
			wantMsg:  `upstream failure: {"rpc":"node unavailable"}`,
		},
		{
			name:     "other status with raw body",
			status:   http.StatusBadGateway,
			body:     "bad gateway",
			wantKind: ErrorUnknown,
			wantMsg:  "bad gateway",
		},
		{
			name:     "other status with empty body",
			status:   http.StatusTeapot,
			body:     "",
			wantKind: ErrorUnknown,
			wantMsg:  "request failed with status 418",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			fetcher := NewFetcher(server.URL, nil, nil)
			record, err := fetcher.Fetch(context.Background(), testSignature)
			require.Error(t, err)
			assert.Nil(t, record)
			assert.Equal(t, tt.wantKind, KindOf(err))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestFetch_EmptyBody(t *testing.T) {
	for _, body := range []string{"", "null", "  null\n"} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		fetcher := NewFetcher(server.URL, nil, nil)
		record, err := fetcher.Fetch(context.Background(), testSignature)
		require.Error(t, err)
		assert.Nil(t, record)
		assert.Equal(t, ErrorEmptyData, KindOf(err))
		server.Close()
	}
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, nil, nil)
	fetcher.Timeout = 50 * time.Millisecond

	start := time.Now()
	record, err := fetcher.Fetch(context.Background(), testSignature)
	require.Error(t, err)
	assert.Nil(t, record)
	assert.Equal(t, ErrorTimeout, KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second, "timeout must be bounded, not hang")
}

func TestFetch_DemoSignatureShortCircuits(t *testing.T) {
	// Unreachable base URL: the demo signature must never touch the network.
	fetcher := NewFetcher("http://127.0.0.1:1", nil, nil)

	first, err := fetcher.Fetch(context.Background(), DemoSignature)
	require.NoError(t, err)
	second, err := fetcher.Fetch(context.Background(), DemoSignature)
	require.NoError(t, err)

	assert.Equal(t, first, second, "demo record must be deterministic")
	assert.Equal(t, "token", first.Type)
	assert.True(t, first.Success)
}

func TestFetch_SupersededCancellationPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, nil, nil)

	ctx, cancel := context.WithCancelCause(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := fetcher.Fetch(ctx, testSignature)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel(ErrSuperseded)

	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSuperseded)
}

func TestFetch_UncausedCancellationFallsBackToDemo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		record *TransactionRecord
		err    error
	}
	done := make(chan result, 1)
	go func() {
		record, err := fetcher.Fetch(ctx, testSignature)
		done <- result{record, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	res := <-done
	require.NoError(t, res.err)
	require.NotNil(t, res.record)
	assert.Equal(t, DemoRecord(), res.record)
}

func TestRecentForAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/account/"+demoSender+"/transactions", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"transactions": []*TransactionRecord{DemoRecord()},
		})
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, nil, nil)
	records, err := fetcher.RecentForAccount(context.Background(), demoSender, 3)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, DemoSignature, records[0].Signature)
}

func TestRecentForAccount_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "account not found"}`))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, nil, nil)
	records, err := fetcher.RecentForAccount(context.Background(), demoSender, 1)
	require.Error(t, err)
	assert.Nil(t, records)
	assert.Contains(t, err.Error(), "account not found")
}
