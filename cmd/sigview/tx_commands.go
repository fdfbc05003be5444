package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/txwatch/sigview/client"
)

func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func getTransactionCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Resolve a transaction signature",
		ArgsUsage: "<signature>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "jq expression applied to the record before printing",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: client.DefaultFetchTimeout,
			},
		},
		Action: func(c *cli.Context) error {
			signature := c.Args().First()
			if signature == "" {
				return fmt.Errorf("signature argument is required")
			}

			fetcher := client.NewFetcher(c.String("server-url"), nil, cliLogger())
			fetcher.Timeout = c.Duration("timeout")

			record, err := fetcher.Fetch(context.Background(), signature)
			if err != nil {
				return fmt.Errorf("failed to fetch transaction: %w", err)
			}

			return printRecord(c, record)
		},
	}
}

func demoTransactionCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Print the built-in demo transaction",
		Action: func(c *cli.Context) error {
			return printRecord(c, client.DemoRecord())
		},
	}
}

func printRecord(c *cli.Context, record *client.TransactionRecord) error {
	if expr := c.String("filter"); expr != "" {
		results, err := applyFilter(record, expr)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, result := range results {
			if err := enc.Encode(result); err != nil {
				return err
			}
		}
		return nil
	}

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	}

	status := "success"
	if !record.Success {
		status = "failed"
	}

	fmt.Printf("Signature: %s\n", record.Signature)
	fmt.Printf("  Slot:    %d\n", record.Slot)
	fmt.Printf("  Time:    %s\n", time.Unix(record.Timestamp, 0).UTC().Format(time.RFC3339))
	fmt.Printf("  Status:  %s\n", status)
	fmt.Printf("  Type:    %s\n", record.Type)
	for _, delta := range record.Details.SolChanges {
		if delta.AccountIndex < len(record.Details.Accounts) {
			fmt.Printf("  SOL:     %s %+d lamports\n",
				record.Details.Accounts[delta.AccountIndex].Pubkey, delta.Change)
		}
	}
	for _, delta := range record.Details.TokenChanges {
		fmt.Printf("  Token:   %s %+d (mint %s)\n",
			shorten(accountAt(record, delta.AccountIndex)), delta.Change, shorten(delta.Mint))
	}
	return nil
}

func accountAt(record *client.TransactionRecord, index int) string {
	if index >= 0 && index < len(record.Details.Accounts) {
		return record.Details.Accounts[index].Pubkey
	}
	return "?"
}

func shorten(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:6] + ".." + s[len(s)-4:]
}
