package cli

import (
	"context"
	"fmt"

	"github.com/gabapcia/eventwatch/internal/accountregistry"

	"github.com/urfave/cli/v3"
)

// startWatchingAccountCommand returns a CLI command that registers an account
// address for event indexing.
//
// Usage example:
//
//	eventwatch watch --address 5Q544f...
func startWatchingAccountCommand(ar accountregistry.Service) *cli.Command {
	return &cli.Command{
		Name:        "watch",
		Description: "Register an account to have its program events indexed.",
		Usage:       "Registers an account address for watching.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Base58 account address to start watching",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return ar.StartWatching(ctx, c.String("address"))
		},
	}
}

// stopWatchingAccountCommand returns a CLI command that unregisters an
// account address from event indexing.
//
// Usage example:
//
//	eventwatch unwatch --address 5Q544f...
func stopWatchingAccountCommand(ar accountregistry.Service) *cli.Command {
	return &cli.Command{
		Name:        "unwatch",
		Description: "Unregister an account from event indexing.",
		Usage:       "Stops watching an account address.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Base58 account address to stop watching",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return ar.StopWatching(ctx, c.String("address"))
		},
	}
}

// listWatchedAccountsCommand returns a CLI command that prints every
// registered account address, one per line.
//
// Usage example:
//
//	eventwatch watched
func listWatchedAccountsCommand(ar accountregistry.Service) *cli.Command {
	return &cli.Command{
		Name:        "watched",
		Description: "List every account registered for event indexing.",
		Usage:       "Prints the watched account addresses, one per line.",
		Action: func(ctx context.Context, c *cli.Command) error {
			accounts, err := ar.ListWatched(ctx)
			if err != nil {
				return err
			}

			for _, account := range accounts {
				fmt.Println(account.String())
			}

			return nil
		},
	}
}
