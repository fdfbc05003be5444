package client

// DemoSignature is the reserved signature that always resolves to the
// synthetic record below, without touching the network. It is also served
// when a request dies from an uncaused context cancellation, a quirk of
// some embedding hosts that tear requests down without recording a reason.
const DemoSignature = "4RwR2w12LydcoutGYJz2TbVxY8HVV44FCN2xoo1L9xu7ZcFxFBpoxxpSFTRWf9MPwMzmr9yTuJZjGqSmzcrawF43"

const (
	demoSender         = "5VexWrHzXe7N6mD2GWSTHvyx7PQACCKWBdqiyq2n8B1H"
	demoRecipient      = "8cJ5FH9zo6TDxEfTXzYMgZnxGeNgSnW9PcJv3yMyDnhE"
	demoSourceToken    = "3nYbVx8MTcQpvCCjqFMoQQoDt9sCCXBgFpqKVeAYZdrw"
	demoDestToken      = "HW2RyKvKJZnXDHuQ96euvvLniE3Nx4acE6zPNe2rrQD7"
	demoMint           = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	demoTokenProgram   = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	demoSystemProgram  = "11111111111111111111111111111111"
)

// DemoRecord returns the synthetic transaction shown for DemoSignature.
// Every call builds a fresh value with identical contents.
func DemoRecord() *TransactionRecord {
	return &TransactionRecord{
		Signature: DemoSignature,
		Timestamp: 1736532000,
		Slot:      311178098,
		Success:   true,
		Type:      "token",
		Details: TransactionDetails{
			Accounts: []AccountMeta{
				{Pubkey: demoSender, Signer: true, Writable: true},
				{Pubkey: demoRecipient, Writable: true},
				{Pubkey: demoSourceToken, Writable: true},
				{Pubkey: demoDestToken, Writable: true},
				{Pubkey: demoMint},
				{Pubkey: demoTokenProgram},
				{Pubkey: demoSystemProgram},
			},
			Instructions: []Instruction{
				{
					ProgramID: demoSystemProgram,
					Accounts:  []int{0, 1},
					Data:      "3Bxs4NLhqGqRKKUX",
					Type:      "transfer",
				},
				{
					ProgramID: demoTokenProgram,
					Accounts:  []int{2, 4, 3, 0},
					Data:      "iJtybdrzM9hZ",
					Type:      "transferChecked",
				},
			},
			PreBalances:  []uint64{1000000000, 2039280, 2039280, 2039280, 146540160, 934087680, 1},
			PostBalances: []uint64{999500000, 2539280, 2039280, 2039280, 146540160, 934087680, 1},
			PreTokenBalances: []TokenBalance{
				{AccountIndex: 2, Mint: demoMint, Owner: demoSender, Amount: "150000000", Decimals: 6},
				{AccountIndex: 3, Mint: demoMint, Owner: demoRecipient, Amount: "0", Decimals: 6},
			},
			PostTokenBalances: []TokenBalance{
				{AccountIndex: 2, Mint: demoMint, Owner: demoSender, Amount: "100000000", Decimals: 6},
				{AccountIndex: 3, Mint: demoMint, Owner: demoRecipient, Amount: "50000000", Decimals: 6},
			},
			Logs: []string{
				"Program 11111111111111111111111111111111 invoke [1]",
				"Program 11111111111111111111111111111111 success",
				"Program TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA invoke [1]",
				"Program log: Instruction: TransferChecked",
				"Program TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA consumed 6199 of 200000 compute units",
				"Program TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA success",
			},
			InnerInstructions: []InnerInstructionSet{},
			SolChanges: []BalanceDelta{
				{AccountIndex: 0, Change: -500000},
				{AccountIndex: 1, Change: 500000},
			},
			TokenChanges: []TokenDelta{
				{AccountIndex: 2, Mint: demoMint, Change: -50000000},
				{AccountIndex: 3, Mint: demoMint, Change: 50000000},
			},
		},
	}
}
