package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txwatch/sigview/service/solana"
)

func testRecord(signature string, accounts ...string) *solana.TransactionRecord {
	metas := make([]solana.AccountMeta, 0, len(accounts))
	for i, acct := range accounts {
		metas = append(metas, solana.AccountMeta{
			Pubkey:   acct,
			Signer:   i == 0,
			Writable: i < 2,
		})
	}
	return &solana.TransactionRecord{
		Signature: signature,
		Timestamp: 1700000000,
		Slot:      250000000,
		Success:   true,
		Type:      "transfer",
		Details: solana.TransactionDetails{
			Accounts:     metas,
			PreBalances:  []uint64{1000000000, 2039280},
			PostBalances: []uint64{999500000, 2539280},
			SolChanges: []solana.BalanceDelta{
				{AccountIndex: 0, Change: -500000},
				{AccountIndex: 1, Change: 500000},
			},
		},
	}
}

func TestStore_UpsertAndGet(t *testing.T) {
	SkipIfNoTestDB(t)

	ts := NewTestStore(t)
	defer ts.Close()
	ts.Cleanup(t)

	ctx := context.Background()
	record := testRecord("sigAAA", "senderPubkey", "recipientPubkey")

	require.NoError(t, ts.UpsertTransaction(ctx, record))

	got, err := ts.GetTransaction(ctx, "sigAAA")
	require.NoError(t, err)
	assert.Equal(t, record.Signature, got.Signature)
	assert.Equal(t, record.Slot, got.Slot)
	assert.Equal(t, record.Type, got.Type)
	assert.Equal(t, record.Details.SolChanges, got.Details.SolChanges)
}

func TestStore_GetMissing(t *testing.T) {
	SkipIfNoTestDB(t)

	ts := NewTestStore(t)
	defer ts.Close()
	ts.Cleanup(t)

	_, err := ts.GetTransaction(context.Background(), "never-seen")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpsertIsIdempotent(t *testing.T) {
	SkipIfNoTestDB(t)

	ts := NewTestStore(t)
	defer ts.Close()
	ts.Cleanup(t)

	ctx := context.Background()
	record := testRecord("sigBBB", "senderPubkey", "recipientPubkey")

	require.NoError(t, ts.UpsertTransaction(ctx, record))

	// Second write with a refreshed payload must not error and must win.
	record.Type = "token"
	require.NoError(t, ts.UpsertTransaction(ctx, record))

	got, err := ts.GetTransaction(ctx, "sigBBB")
	require.NoError(t, err)
	assert.Equal(t, "token", got.Type)
}

func TestStore_ListSignaturesByAccount(t *testing.T) {
	SkipIfNoTestDB(t)

	ts := NewTestStore(t)
	defer ts.Close()
	ts.Cleanup(t)

	ctx := context.Background()

	first := testRecord("sigOld", "sharedPubkey", "otherA")
	first.Timestamp = 1700000000
	second := testRecord("sigNew", "sharedPubkey", "otherB")
	second.Timestamp = 1700000500
	unrelated := testRecord("sigOther", "strangerPubkey", "otherC")

	require.NoError(t, ts.UpsertTransaction(ctx, first))
	require.NoError(t, ts.UpsertTransaction(ctx, second))
	require.NoError(t, ts.UpsertTransaction(ctx, unrelated))

	sigs, err := ts.ListSignaturesByAccount(ctx, "sharedPubkey", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"sigNew", "sigOld"}, sigs)

	limited, err := ts.ListSignaturesByAccount(ctx, "sharedPubkey", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"sigNew"}, limited)

	none, err := ts.ListSignaturesByAccount(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
