package solana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/txwatch/sigview/service/metrics"
)

// RPCClient is the subset of Solana RPC operations the service needs.
// Keeping it an interface lets tests stub the RPC layer without hitting
// real nodes.
type RPCClient interface {
	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)

	GetSignaturesForAddress(
		ctx context.Context,
		address solana.PublicKey,
		opts *rpc.GetSignaturesForAddressOpts,
	) ([]*rpc.TransactionSignature, error)
}

var (
	// ErrNotFound means the node does not know the transaction: never
	// landed, or already pruned.
	ErrNotFound = errors.New("transaction not found")

	// ErrRateLimited means the RPC endpoint rejected the call with a 429.
	ErrRateLimited = errors.New("rate limited by RPC endpoint")
)

// Client resolves signatures into display records against a Solana RPC
// endpoint. No retry loops here: the HTTP layer maps failures straight to
// status codes and the caller decides what to do.
type Client struct {
	rpc      RPCClient
	logger   *slog.Logger
	metrics  *metrics.Metrics
	endpoint string // endpoint identifier for metrics labels
}

// NewClient creates a Solana client. A nil metrics disables recording.
func NewClient(rpcClient RPCClient, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		rpc:      rpcClient,
		logger:   logger,
		metrics:  m,
		endpoint: endpoint,
	}
}

// FetchRecord fetches and converts one transaction.
func (c *Client) FetchRecord(ctx context.Context, signature string) (*TransactionRecord, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", signature, err)
	}

	maxVersion := uint64(0)
	opts := &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		MaxSupportedTransactionVersion: &maxVersion,
	}

	start := time.Now()
	result, err := c.rpc.GetTransaction(ctx, sig, opts)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("GetTransaction", status, c.endpoint, duration)
	}

	if err != nil {
		switch {
		case errors.Is(err, rpc.ErrNotFound):
			return nil, ErrNotFound
		case strings.Contains(err.Error(), "429"):
			c.logger.WarnContext(ctx, "RPC rate limit hit", "endpoint", c.endpoint)
			return nil, ErrRateLimited
		}
		c.logger.ErrorContext(ctx, "failed to get transaction",
			"signature", signature,
			"error", err,
		)
		return nil, fmt.Errorf("rpc GetTransaction: %w", err)
	}
	if result == nil {
		return nil, ErrNotFound
	}

	record, err := buildRecord(signature, result)
	if err != nil {
		return nil, fmt.Errorf("failed to build record for %s: %w", signature, err)
	}

	c.logger.DebugContext(ctx, "fetched transaction",
		"signature", signature,
		"slot", record.Slot,
		"type", record.Type,
		"success", record.Success,
	)
	return record, nil
}

// RecentForAddress lists recent transaction signatures involving an
// address, newest first.
func (c *Client) RecentForAddress(ctx context.Context, address string, limit int) ([]string, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}

	opts := &rpc.GetSignaturesForAddressOpts{Limit: &limit}

	start := time.Now()
	signatures, err := c.rpc.GetSignaturesForAddress(ctx, pubkey, opts)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("GetSignaturesForAddress", status, c.endpoint, duration)
	}

	if err != nil {
		if strings.Contains(err.Error(), "429") {
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("rpc GetSignaturesForAddress: %w", err)
	}

	out := make([]string, 0, len(signatures))
	for _, sig := range signatures {
		out = append(out, sig.Signature.String())
	}
	return out, nil
}
