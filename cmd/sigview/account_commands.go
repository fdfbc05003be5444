package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/txwatch/sigview/client"
)

func accountTransactionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "txs",
		Usage:     "List recent transactions involving an account",
		ArgsUsage: "<address>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of transactions to return",
				Value:   10,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 30 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			address := c.Args().First()
			if address == "" {
				return fmt.Errorf("address argument is required")
			}

			fetcher := client.NewFetcher(c.String("server-url"), nil, cliLogger())

			ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
			defer cancel()

			records, err := fetcher.RecentForAccount(ctx, address, c.Int("limit"))
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			if c.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			if len(records) == 0 {
				fmt.Println("No transactions found.")
				return nil
			}

			fmt.Printf("%-24s %-12s %-8s %-10s %s\n", "SIGNATURE", "SLOT", "TYPE", "STATUS", "TIME")
			for _, record := range records {
				status := "success"
				if !record.Success {
					status = "failed"
				}
				fmt.Printf("%-24s %-12d %-8s %-10s %s\n",
					shorten(record.Signature),
					record.Slot,
					record.Type,
					status,
					time.Unix(record.Timestamp, 0).UTC().Format(time.RFC3339),
				)
			}
			return nil
		},
	}
}
