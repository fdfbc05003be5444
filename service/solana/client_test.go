package solana

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRPCClient struct {
	transactions map[string]*rpc.GetTransactionResult
	txErr        error
	signatures   []*rpc.TransactionSignature
	sigErr       error
}

func (m *mockRPCClient) GetTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetTransactionOpts,
) (*rpc.GetTransactionResult, error) {
	if m.txErr != nil {
		return nil, m.txErr
	}
	return m.transactions[signature.String()], nil
}

func (m *mockRPCClient) GetSignaturesForAddress(
	ctx context.Context,
	address solana.PublicKey,
	opts *rpc.GetSignaturesForAddressOpts,
) ([]*rpc.TransactionSignature, error) {
	if m.sigErr != nil {
		return nil, m.sigErr
	}
	return m.signatures, nil
}

func newTestClient(mock *mockRPCClient) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(mock, "test", nil, logger)
}

func TestFetchRecord(t *testing.T) {
	from := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	to := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	tx := &solana.Transaction{
		Message: solana.Message{
			Header: solana.MessageHeader{
				NumRequiredSignatures:       1,
				NumReadonlyUnsignedAccounts: 1,
			},
			AccountKeys: []solana.PublicKey{from, to, SystemProgramID},
			Instructions: []solana.CompiledInstruction{
				{
					ProgramIDIndex: 2,
					Accounts:       []uint16{0, 1},
					Data:           systemTransferData(500000),
				},
			},
		},
	}

	mock := &mockRPCClient{
		transactions: map[string]*rpc.GetTransactionResult{
			sigSOLTransfer: {
				Slot:        12345,
				Transaction: makeTransactionEnvelope(t, tx),
				Meta: &rpc.TransactionMeta{
					PreBalances:  []uint64{1000000, 0, 1},
					PostBalances: []uint64{495000, 500000, 1},
				},
			},
		},
	}

	client := newTestClient(mock)
	record, err := client.FetchRecord(context.Background(), sigSOLTransfer)
	require.NoError(t, err)

	assert.Equal(t, sigSOLTransfer, record.Signature)
	assert.Equal(t, uint64(12345), record.Slot)
	assert.Equal(t, "transfer", record.Type)
	assert.True(t, record.Success)
}

func TestFetchRecord_InvalidSignature(t *testing.T) {
	client := newTestClient(&mockRPCClient{})

	_, err := client.FetchRecord(context.Background(), "not-a-signature")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid signature")
}

func TestFetchRecord_NotFound(t *testing.T) {
	// A nil result without an error also means the node has no record.
	client := newTestClient(&mockRPCClient{})

	_, err := client.FetchRecord(context.Background(), sigSOLTransfer)
	assert.ErrorIs(t, err, ErrNotFound)

	client = newTestClient(&mockRPCClient{txErr: rpc.ErrNotFound})
	_, err = client.FetchRecord(context.Background(), sigSOLTransfer)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchRecord_RateLimited(t *testing.T) {
	client := newTestClient(&mockRPCClient{txErr: errors.New("429 Too Many Requests")})

	_, err := client.FetchRecord(context.Background(), sigSOLTransfer)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestRecentForAddress(t *testing.T) {
	sig1 := solana.MustSignatureFromBase58(sigSOLTransfer)
	sig2 := solana.MustSignatureFromBase58(sigTokenXfer)

	mock := &mockRPCClient{
		signatures: []*rpc.TransactionSignature{
			{Signature: sig1, Slot: 101},
			{Signature: sig2, Slot: 100},
		},
	}

	client := newTestClient(mock)
	sigs, err := client.RecentForAddress(context.Background(), "So11111111111111111111111111111111111111112", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{sigSOLTransfer, sigTokenXfer}, sigs)
}

func TestRecentForAddress_InvalidAddress(t *testing.T) {
	client := newTestClient(&mockRPCClient{})

	_, err := client.RecentForAddress(context.Background(), "bogus0OIl", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid address")
}

func TestRecentForAddress_RateLimited(t *testing.T) {
	client := newTestClient(&mockRPCClient{sigErr: errors.New("HTTP 429")})

	_, err := client.RecentForAddress(context.Background(), "So11111111111111111111111111111111111111112", 10)
	assert.ErrorIs(t, err, ErrRateLimited)
}
