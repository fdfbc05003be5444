package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Local development keeps the server URL and friends in a .env file.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "sigview",
		Usage: "Solana transaction signature resolution CLI",
		Description: `A command-line tool for querying the sigview service.

Use this CLI to resolve transaction signatures, list recent transactions
for an account, and check service health.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			{
				Name:  "tx",
				Usage: "Transaction commands",
				Subcommands: []*cli.Command{
					getTransactionCommand(),
					demoTransactionCommand(),
				},
			},
			{
				Name:  "account",
				Usage: "Account commands",
				Subcommands: []*cli.Command{
					accountTransactionsCommand(),
				},
			},
			{
				Name:  "server",
				Usage: "Server utility commands",
				Subcommands: []*cli.Command{
					healthCommand(),
					versionCommand(),
				},
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server-url",
				Usage:   "sigview service URL",
				EnvVars: []string{"SERVER_URL"},
				Value:   "http://localhost:8080",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
