package client

import "fmt"

// TransactionRecord is the display model for a single Solana transaction.
// Records are immutable once created: the fetcher builds them, the cache
// stores them, and everything downstream only reads.
type TransactionRecord struct {
	Signature string             `json:"signature"`
	Timestamp int64              `json:"timestamp"`
	Slot      uint64             `json:"slot"`
	Success   bool               `json:"success"`
	Type      string             `json:"type"`
	Details   TransactionDetails `json:"details"`
}

// TransactionDetails holds the expanded view data for a transaction.
// All account index fields (instruction account lists, balance deltas,
// token balance entries) index into Accounts.
type TransactionDetails struct {
	Accounts          []AccountMeta         `json:"accounts"`
	Instructions      []Instruction         `json:"instructions"`
	PreBalances       []uint64              `json:"preBalances"`
	PostBalances      []uint64              `json:"postBalances"`
	PreTokenBalances  []TokenBalance        `json:"preTokenBalances"`
	PostTokenBalances []TokenBalance        `json:"postTokenBalances"`
	Logs              []string              `json:"logs"`
	InnerInstructions []InnerInstructionSet `json:"innerInstructions"`
	SolChanges        []BalanceDelta        `json:"solChanges"`
	TokenChanges      []TokenDelta          `json:"tokenChanges"`
}

// AccountMeta describes one account referenced by a transaction.
type AccountMeta struct {
	Pubkey   string `json:"pubkey"`
	Signer   bool   `json:"signer"`
	Writable bool   `json:"writable"`
}

// Instruction is a single top-level or inner instruction.
type Instruction struct {
	ProgramID string `json:"programId"`
	Accounts  []int  `json:"accounts"`
	Data      string `json:"data"`
	Type      string `json:"type,omitempty"`
}

// InnerInstructionSet groups the inner instructions emitted while executing
// the top-level instruction at Index.
type InnerInstructionSet struct {
	Index        int           `json:"index"`
	Instructions []Instruction `json:"instructions"`
}

// TokenBalance is a token account balance snapshot taken before or after
// the transaction executed.
type TokenBalance struct {
	AccountIndex int    `json:"accountIndex"`
	Mint         string `json:"mint"`
	Owner        string `json:"owner,omitempty"`
	Amount       string `json:"amount"`
	Decimals     uint8  `json:"decimals"`
}

// BalanceDelta is a net lamport change for one account.
type BalanceDelta struct {
	AccountIndex int   `json:"accountIndex"`
	Change       int64 `json:"change"`
}

// TokenDelta is a net token amount change for one account, in raw units.
type TokenDelta struct {
	AccountIndex int    `json:"accountIndex"`
	Mint         string `json:"mint"`
	Change       int64  `json:"change"`
}

// Validate checks the shared-index-space invariant: every account index
// recorded in the details must be in bounds for the account list.
func (r *TransactionRecord) Validate() error {
	n := len(r.Details.Accounts)
	for i, ix := range r.Details.Instructions {
		for _, a := range ix.Accounts {
			if a < 0 || a >= n {
				return fmt.Errorf("instruction %d references account %d, have %d accounts", i, a, n)
			}
		}
	}
	for _, set := range r.Details.InnerInstructions {
		for i, ix := range set.Instructions {
			for _, a := range ix.Accounts {
				if a < 0 || a >= n {
					return fmt.Errorf("inner instruction %d.%d references account %d, have %d accounts", set.Index, i, a, n)
				}
			}
		}
	}
	for _, d := range r.Details.SolChanges {
		if d.AccountIndex < 0 || d.AccountIndex >= n {
			return fmt.Errorf("sol change references account %d, have %d accounts", d.AccountIndex, n)
		}
	}
	for _, d := range r.Details.TokenChanges {
		if d.AccountIndex < 0 || d.AccountIndex >= n {
			return fmt.Errorf("token change references account %d, have %d accounts", d.AccountIndex, n)
		}
	}
	return nil
}
