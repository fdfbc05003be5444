package solana

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
)

// Well-known program IDs used for instruction labeling and transaction
// classification.
var (
	SystemProgramID    = solana.SystemProgramID
	TokenProgramID     = solana.TokenProgramID
	Token2022ProgramID = solana.Token2022ProgramID
	VoteProgramID      = solana.VoteProgramID
)

// System Program instruction discriminants (u32 little-endian prefix).
const (
	systemInstructionCreateAccount = uint32(0)
	systemInstructionTransfer      = uint32(2)
)

// Token Program instruction discriminants (u8 prefix).
const (
	tokenInstructionInitializeAccount = uint8(1)
	tokenInstructionTransfer          = uint8(3)
	tokenInstructionMintTo            = uint8(7)
	tokenInstructionBurn              = uint8(8)
	tokenInstructionCloseAccount      = uint8(9)
	tokenInstructionTransferChecked   = uint8(12)
)

// buildRecord converts a raw getTransaction result into the display record.
// The account list is the message's static keys followed by writable then
// readonly lookup-table addresses, matching the index space the meta's
// balance arrays and instruction account lists use.
func buildRecord(signature string, result *rpc.GetTransactionResult) (*TransactionRecord, error) {
	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	message := tx.Message
	accounts := buildAccountList(&message, result.Meta)

	record := &TransactionRecord{
		Signature: signature,
		Slot:      result.Slot,
		Success:   true,
		Details: TransactionDetails{
			Accounts:          accounts,
			InnerInstructions: []InnerInstructionSet{},
			SolChanges:        []BalanceDelta{},
			TokenChanges:      []TokenDelta{},
		},
	}
	if result.BlockTime != nil {
		record.Timestamp = int64(*result.BlockTime)
	}

	for _, compiled := range message.Instructions {
		record.Details.Instructions = append(record.Details.Instructions,
			buildInstruction(compiled, accounts))
	}

	if meta := result.Meta; meta != nil {
		record.Success = meta.Err == nil
		record.Details.PreBalances = meta.PreBalances
		record.Details.PostBalances = meta.PostBalances
		record.Details.Logs = meta.LogMessages
		record.Details.PreTokenBalances = buildTokenBalances(meta.PreTokenBalances)
		record.Details.PostTokenBalances = buildTokenBalances(meta.PostTokenBalances)
		record.Details.SolChanges = solChanges(meta.PreBalances, meta.PostBalances)
		record.Details.TokenChanges = tokenChanges(
			record.Details.PreTokenBalances, record.Details.PostTokenBalances)

		for _, inner := range meta.InnerInstructions {
			set := InnerInstructionSet{Index: int(inner.Index), Instructions: []Instruction{}}
			for _, compiled := range inner.Instructions {
				// The meta carries rpc.CompiledInstruction, the message the
				// solana.CompiledInstruction twin; same fields, distinct types.
				set.Instructions = append(set.Instructions, buildInstruction(solana.CompiledInstruction{
					ProgramIDIndex: compiled.ProgramIDIndex,
					Accounts:       compiled.Accounts,
					Data:           compiled.Data,
				}, accounts))
			}
			record.Details.InnerInstructions = append(record.Details.InnerInstructions, set)
		}
	}

	record.Type = classify(record.Details)
	return record, nil
}

// buildAccountList flattens static message keys and loaded lookup-table
// addresses into one indexed list with signer/writable flags.
func buildAccountList(message *solana.Message, meta *rpc.TransactionMeta) []AccountMeta {
	header := message.Header
	numSigners := int(header.NumRequiredSignatures)
	numReadonlySigned := int(header.NumReadonlySignedAccounts)
	numReadonlyUnsigned := int(header.NumReadonlyUnsignedAccounts)
	static := len(message.AccountKeys)

	accounts := make([]AccountMeta, 0, static)
	for i, key := range message.AccountKeys {
		signer := i < numSigners
		var writable bool
		if signer {
			writable = i < numSigners-numReadonlySigned
		} else {
			writable = i < static-numReadonlyUnsigned
		}
		accounts = append(accounts, AccountMeta{
			Pubkey:   key.String(),
			Signer:   signer,
			Writable: writable,
		})
	}

	if meta != nil {
		for _, key := range meta.LoadedAddresses.Writable {
			accounts = append(accounts, AccountMeta{Pubkey: key.String(), Writable: true})
		}
		for _, key := range meta.LoadedAddresses.ReadOnly {
			accounts = append(accounts, AccountMeta{Pubkey: key.String()})
		}
	}
	return accounts
}

func buildInstruction(compiled solana.CompiledInstruction, accounts []AccountMeta) Instruction {
	ix := Instruction{
		Accounts: make([]int, 0, len(compiled.Accounts)),
		Data:     base58.Encode(compiled.Data),
	}
	for _, idx := range compiled.Accounts {
		ix.Accounts = append(ix.Accounts, int(idx))
	}

	programIdx := int(compiled.ProgramIDIndex)
	if programIdx < len(accounts) {
		ix.ProgramID = accounts[programIdx].Pubkey
		ix.Type = instructionType(ix.ProgramID, compiled.Data)
	}
	return ix
}

// instructionType labels the common System and Token Program instructions;
// anything else is left unlabeled.
func instructionType(programID string, data []byte) string {
	switch programID {
	case SystemProgramID.String():
		if len(data) < 4 {
			return ""
		}
		switch binary.LittleEndian.Uint32(data[:4]) {
		case systemInstructionCreateAccount:
			return "createAccount"
		case systemInstructionTransfer:
			return "transfer"
		}
	case TokenProgramID.String(), Token2022ProgramID.String():
		if len(data) < 1 {
			return ""
		}
		switch data[0] {
		case tokenInstructionInitializeAccount:
			return "initializeAccount"
		case tokenInstructionTransfer:
			return "transfer"
		case tokenInstructionMintTo:
			return "mintTo"
		case tokenInstructionBurn:
			return "burn"
		case tokenInstructionCloseAccount:
			return "closeAccount"
		case tokenInstructionTransferChecked:
			return "transferChecked"
		}
	}
	return ""
}

func buildTokenBalances(balances []rpc.TokenBalance) []TokenBalance {
	out := make([]TokenBalance, 0, len(balances))
	for _, b := range balances {
		entry := TokenBalance{
			AccountIndex: int(b.AccountIndex),
			Mint:         b.Mint.String(),
		}
		if b.Owner != nil {
			entry.Owner = b.Owner.String()
		}
		if b.UiTokenAmount != nil {
			entry.Amount = b.UiTokenAmount.Amount
			entry.Decimals = b.UiTokenAmount.Decimals
		}
		out = append(out, entry)
	}
	return out
}

// solChanges diffs pre/post lamport balances, keeping non-zero deltas only.
func solChanges(pre, post []uint64) []BalanceDelta {
	changes := []BalanceDelta{}
	n := len(pre)
	if len(post) < n {
		n = len(post)
	}
	for i := 0; i < n; i++ {
		delta := int64(post[i]) - int64(pre[i])
		if delta != 0 {
			changes = append(changes, BalanceDelta{AccountIndex: i, Change: delta})
		}
	}
	return changes
}

// tokenChanges diffs pre/post token balances keyed by account index and
// mint. Amounts that do not fit int64 are skipped rather than truncated.
func tokenChanges(pre, post []TokenBalance) []TokenDelta {
	type key struct {
		index int
		mint  string
	}

	preAmounts := make(map[key]int64, len(pre))
	for _, b := range pre {
		amount, err := strconv.ParseInt(b.Amount, 10, 64)
		if err != nil {
			continue
		}
		preAmounts[key{b.AccountIndex, b.Mint}] = amount
	}

	changes := []TokenDelta{}
	seen := make(map[key]bool, len(post))
	for _, b := range post {
		amount, err := strconv.ParseInt(b.Amount, 10, 64)
		if err != nil {
			continue
		}
		k := key{b.AccountIndex, b.Mint}
		seen[k] = true
		if delta := amount - preAmounts[k]; delta != 0 {
			changes = append(changes, TokenDelta{AccountIndex: b.AccountIndex, Mint: b.Mint, Change: delta})
		}
	}

	// Token accounts closed by the transaction appear only in pre.
	for _, b := range pre {
		k := key{b.AccountIndex, b.Mint}
		if seen[k] {
			continue
		}
		if amount, ok := preAmounts[k]; ok && amount != 0 {
			changes = append(changes, TokenDelta{AccountIndex: b.AccountIndex, Mint: b.Mint, Change: -amount})
		}
	}
	return changes
}

// classify derives the coarse transaction type from the programs invoked.
func classify(details TransactionDetails) string {
	var sawSystem bool
	programs := make([]string, 0, len(details.Instructions))
	for _, ix := range details.Instructions {
		programs = append(programs, ix.ProgramID)
	}
	for _, set := range details.InnerInstructions {
		for _, ix := range set.Instructions {
			programs = append(programs, ix.ProgramID)
		}
	}

	for _, program := range programs {
		switch program {
		case TokenProgramID.String(), Token2022ProgramID.String():
			return "token"
		case VoteProgramID.String():
			return "vote"
		case SystemProgramID.String():
			sawSystem = true
		}
	}
	if sawSystem {
		return "transfer"
	}
	return "unknown"
}
