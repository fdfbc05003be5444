package solana

import "fmt"

// TransactionRecord is the display model served by the API. The client
// package keeps a mirror of this shape; the JSON field names are the wire
// contract between the two.
type TransactionRecord struct {
	Signature string             `json:"signature"`
	Timestamp int64              `json:"timestamp"`
	Slot      uint64             `json:"slot"`
	Success   bool               `json:"success"`
	Type      string             `json:"type"`
	Details   TransactionDetails `json:"details"`
}

// TransactionDetails carries the expanded per-transaction view data. All
// account index fields index into Accounts, including entries loaded from
// address lookup tables.
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

// AccountMeta describes one account referenced by the transaction message.
type AccountMeta struct {
	Pubkey   string `json:"pubkey"`
	Signer   bool   `json:"signer"`
	Writable bool   `json:"writable"`
}

// Instruction is a compiled instruction with its account index list and
// base58-encoded data.
type Instruction struct {
	ProgramID string `json:"programId"`
	Accounts  []int  `json:"accounts"`
	Data      string `json:"data"`
	Type      string `json:"type,omitempty"`
}

// InnerInstructionSet groups inner instructions by the index of the
// top-level instruction that emitted them.
type InnerInstructionSet struct {
	Index        int           `json:"index"`
	Instructions []Instruction `json:"instructions"`
}

// TokenBalance is a pre- or post-execution token account balance.
type TokenBalance struct {
	AccountIndex int    `json:"accountIndex"`
	Mint         string `json:"mint"`
	Owner        string `json:"owner,omitempty"`
	Amount       string `json:"amount"`
	Decimals     uint8  `json:"decimals"`
}

// BalanceDelta is a net lamport change for one account index.
type BalanceDelta struct {
	AccountIndex int   `json:"accountIndex"`
	Change       int64 `json:"change"`
}

// TokenDelta is a net raw-unit token change for one account index.
type TokenDelta struct {
	AccountIndex int    `json:"accountIndex"`
	Mint         string `json:"mint"`
	Change       int64  `json:"change"`
}

// Validate checks that every account index in the record is in bounds for
// its account list. Built records must always pass.
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
