package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mr-tron/base58"
	"golang.org/x/sync/errgroup"

	"github.com/txwatch/sigview/service/db"
	"github.com/txwatch/sigview/service/metrics"
	"github.com/txwatch/sigview/service/nats"
	"github.com/txwatch/sigview/service/solana"
)

// transactionFetcher is the slice of the Solana client the handlers use.
type transactionFetcher interface {
	FetchRecord(ctx context.Context, signature string) (*solana.TransactionRecord, error)
	RecentForAddress(ctx context.Context, address string, limit int) ([]string, error)
}

// recordStore is the slice of the Postgres store the handlers use.
type recordStore interface {
	UpsertTransaction(ctx context.Context, record *solana.TransactionRecord) error
	GetTransaction(ctx context.Context, signature string) (*solana.TransactionRecord, error)
	ListSignaturesByAccount(ctx context.Context, address string, limit int) ([]string, error)
}

// errorResponse is the error body contract shared with clients.
type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// resolver runs the cache/store/RPC resolution pipeline for one signature.
// Layers are consulted cheapest first; every RPC success is written back
// through the warmer layers and announced on NATS.
type resolver struct {
	cache        *recordCache
	store        recordStore // nil when DATABASE_URL is not configured
	fetcher      transactionFetcher
	publisher    nats.Publisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
	fetchTimeout time.Duration
}

// resolve returns the record for a signature and the layer that served it
// ("lru", "store" or "rpc").
func (r *resolver) resolve(ctx context.Context, signature string) (*solana.TransactionRecord, string, error) {
	if record, ok := r.cache.Get(signature); ok {
		r.recordCacheEvent("lru", "hit")
		return record, "lru", nil
	}
	r.recordCacheEvent("lru", "miss")

	if r.store != nil {
		record, err := r.store.GetTransaction(ctx, signature)
		if err == nil {
			r.recordCacheEvent("store", "hit")
			r.cache.Add(signature, record)
			return record, "store", nil
		}
		r.recordCacheEvent("store", "miss")
		if !errors.Is(err, db.ErrNotFound) {
			// A broken store should not take down reads; fall through to RPC.
			r.logger.ErrorContext(ctx, "store lookup failed", "signature", signature, "error", err)
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	start := time.Now()
	record, err := r.fetcher.FetchRecord(fetchCtx, signature)
	if err != nil {
		return nil, "rpc", err
	}
	fetchDuration := time.Since(start)

	r.cache.Add(signature, record)
	if r.store != nil {
		if err := r.store.UpsertTransaction(ctx, record); err != nil {
			r.logger.ErrorContext(ctx, "failed to persist transaction", "signature", signature, "error", err)
		}
	}
	if r.publisher != nil {
		event := &nats.TransactionFetchedEvent{
			Signature:     record.Signature,
			Slot:          record.Slot,
			Type:          record.Type,
			Success:       record.Success,
			FetchedAt:     time.Now().UTC(),
			FetchDuration: fetchDuration,
		}
		if err := r.publisher.PublishFetched(ctx, event); err != nil {
			r.logger.ErrorContext(ctx, "failed to publish fetch event", "signature", signature, "error", err)
		}
	}

	return record, "rpc", nil
}

func (r *resolver) recordCacheEvent(layer, result string) {
	if r.metrics != nil {
		r.metrics.RecordCacheEvent(layer, result)
	}
}

// handleGetTransaction serves GET /api/transaction/{signature}.
func handleGetTransaction(res *resolver, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature := r.PathValue("signature")
		if err := validateSignature(signature); err != nil {
			writeError(w, http.StatusBadRequest, "invalid transaction signature", err.Error())
			return
		}

		record, source, err := res.resolve(r.Context(), signature)
		if err != nil {
			status := statusForResolveError(err)
			res.recordServed(source, "error")
			switch status {
			case http.StatusNotFound:
				writeError(w, status, "transaction not found", nil)
			case http.StatusTooManyRequests:
				writeError(w, status, "rate limited by upstream RPC", nil)
			default:
				logger.ErrorContext(r.Context(), "failed to resolve transaction",
					"signature", signature,
					"error", err,
				)
				writeError(w, status, "failed to fetch transaction", err.Error())
			}
			return
		}

		res.recordServed(source, "success")
		writeJSON(w, http.StatusOK, record)
	})
}

// handleGetAccountTransactions serves
// GET /api/account/{address}/transactions?limit=N. Signatures come from
// the RPC endpoint, falling back to the store when RPC cannot list them;
// each one is then resolved through the normal pipeline. Individual
// resolution failures drop that entry rather than failing the listing.
func handleGetAccountTransactions(res *resolver, limitMax int, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.PathValue("address")
		if err := validateAddress(address); err != nil {
			res.recordAccountLookup("bad_request")
			writeError(w, http.StatusBadRequest, "invalid account address", err.Error())
			return
		}

		limit := parseLimit(r.URL.Query().Get("limit"), limitMax)

		signatures, err := res.fetcher.RecentForAddress(r.Context(), address, limit)
		if err != nil {
			if res.store != nil {
				stored, storeErr := res.store.ListSignaturesByAccount(r.Context(), address, limit)
				if storeErr == nil && len(stored) > 0 {
					signatures = stored
					err = nil
				}
			}
			if err != nil {
				status := statusForResolveError(err)
				res.recordAccountLookup("error")
				if status == http.StatusTooManyRequests {
					writeError(w, status, "rate limited by upstream RPC", nil)
					return
				}
				logger.ErrorContext(r.Context(), "failed to list account transactions",
					"address", address,
					"error", err,
				)
				writeError(w, http.StatusBadGateway, "failed to list account transactions", err.Error())
				return
			}
		}

		resolved := make([]*solana.TransactionRecord, len(signatures))
		var g errgroup.Group
		g.SetLimit(4)
		for i, sig := range signatures {
			g.Go(func() error {
				record, _, err := res.resolve(r.Context(), sig)
				if err != nil {
					logger.DebugContext(r.Context(), "skipping unresolvable signature",
						"address", address,
						"signature", sig,
						"error", err,
					)
					return nil
				}
				resolved[i] = record
				return nil
			})
		}
		g.Wait() //nolint:errcheck // workers never return errors

		records := make([]*solana.TransactionRecord, 0, len(signatures))
		for _, record := range resolved {
			if record != nil {
				records = append(records, record)
			}
		}

		res.recordAccountLookup("success")
		writeJSON(w, http.StatusOK, map[string]any{
			"transactions": records,
		})
	})
}

func (r *resolver) recordServed(source, status string) {
	if r.metrics != nil {
		r.metrics.RecordTransactionServed(source, status)
	}
}

func (r *resolver) recordAccountLookup(status string) {
	if r.metrics != nil {
		r.metrics.RecordAccountLookup(status)
	}
}

// statusForResolveError maps pipeline errors to HTTP status codes.
func statusForResolveError(err error) int {
	switch {
	case errors.Is(err, solana.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, solana.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// validateSignature checks that a string is a base58-encoded 64-byte
// ed25519 signature.
func validateSignature(signature string) error {
	if signature == "" {
		return errors.New("signature is required")
	}
	raw, err := base58.Decode(signature)
	if err != nil {
		return errors.New("signature is not valid base58")
	}
	if len(raw) != 64 {
		return errors.New("signature must decode to 64 bytes")
	}
	return nil
}

// validateAddress checks that a string is a base58-encoded 32-byte pubkey.
func validateAddress(address string) error {
	if address == "" {
		return errors.New("address is required")
	}
	raw, err := base58.Decode(address)
	if err != nil {
		return errors.New("address is not valid base58")
	}
	if len(raw) != 32 {
		return errors.New("address must decode to 32 bytes")
	}
	return nil
}

// parseLimit parses the limit query parameter, clamping it to [1, max].
func parseLimit(raw string, max int) int {
	if raw == "" {
		return max
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return max
	}
	if n > max {
		return max
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, details any) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}
