package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/txwatch/sigview/service/solana"
)

// ErrNotFound is returned when a transaction is not in the store.
var ErrNotFound = errors.New("transaction not found in store")

// Store provides Postgres persistence for resolved transactions. Records
// are written through after every successful RPC fetch so later requests
// can be served without touching the RPC endpoint, even across restarts.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store with the given database connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the transactions table if it does not exist. The schema
// is small enough that we manage it inline rather than with a migration
// tool.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			signature    TEXT PRIMARY KEY,
			slot         BIGINT NOT NULL,
			block_time   TIMESTAMPTZ,
			success      BOOLEAN NOT NULL,
			tx_type      TEXT NOT NULL,
			account_keys TEXT[] NOT NULL DEFAULT '{}',
			record       JSONB NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_account_keys
			ON transactions USING GIN (account_keys);
		CREATE INDEX IF NOT EXISTS idx_transactions_block_time
			ON transactions (block_time DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate transactions table: %w", err)
	}
	return nil
}

// UpsertTransaction stores a resolved record. Transactions are immutable
// once finalized, so conflicting writes just keep the existing row's
// created_at and overwrite the payload.
func (s *Store) UpsertTransaction(ctx context.Context, record *solana.TransactionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	accountKeys := make([]string, 0, len(record.Details.Accounts))
	for _, acct := range record.Details.Accounts {
		accountKeys = append(accountKeys, acct.Pubkey)
	}

	var blockTime *time.Time
	if record.Timestamp != 0 {
		bt := time.Unix(record.Timestamp, 0).UTC()
		blockTime = &bt
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO transactions (signature, slot, block_time, success, tx_type, account_keys, record)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (signature) DO UPDATE SET
			slot         = EXCLUDED.slot,
			block_time   = EXCLUDED.block_time,
			success      = EXCLUDED.success,
			tx_type      = EXCLUDED.tx_type,
			account_keys = EXCLUDED.account_keys,
			record       = EXCLUDED.record
	`, record.Signature, int64(record.Slot), blockTime, record.Success, record.Type, accountKeys, payload)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction %s: %w", record.Signature, err)
	}
	return nil
}

// GetTransaction retrieves a stored record by signature. Returns
// ErrNotFound if the signature has never been resolved.
func (s *Store) GetTransaction(ctx context.Context, signature string) (*solana.TransactionRecord, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM transactions WHERE signature = $1`,
		signature,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction %s: %w", signature, err)
	}

	var record solana.TransactionRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record for %s: %w", signature, err)
	}
	return &record, nil
}

// ListSignaturesByAccount returns signatures of stored transactions that
// involve the given account, newest first.
func (s *Store) ListSignaturesByAccount(ctx context.Context, address string, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT signature FROM transactions
		WHERE $1 = ANY(account_keys)
		ORDER BY block_time DESC NULLS LAST, slot DESC
		LIMIT $2
	`, address, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list signatures for %s: %w", address, err)
	}
	defer rows.Close()

	var signatures []string
	for rows.Next() {
		var sig string
		if err := rows.Scan(&sig); err != nil {
			return nil, fmt.Errorf("failed to scan signature: %w", err)
		}
		signatures = append(signatures, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate signatures: %w", err)
	}
	return signatures, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
