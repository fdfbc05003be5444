package nats

import "time"

// TransactionFetchedEvent is published whenever the service resolves a
// transaction from RPC (as opposed to serving it from a cache layer).
// Consumers use these to build recency feeds without polling the API.
type TransactionFetchedEvent struct {
	Signature string    `json:"signature"`
	Slot      uint64    `json:"slot"`
	Type      string    `json:"type"`
	Success   bool      `json:"success"`
	FetchedAt time.Time `json:"fetched_at"`

	// FetchDuration is how long the RPC resolution took.
	FetchDuration time.Duration `json:"fetch_duration"`
}
