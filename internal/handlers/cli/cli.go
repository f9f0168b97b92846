// Package cli exposes the eventwatch command-line interface.
package cli

import (
	"context"
	"os"

	"github.com/gabapcia/eventwatch/internal/accountregistry"
	"github.com/gabapcia/eventwatch/internal/indexer"

	"github.com/urfave/cli/v3"
)

// Run initializes and executes the eventwatch CLI application.
//
// It registers all available commands:
//
//   - `start`: Starts the event indexing pipeline.
//   - `watch`: Registers an account for event indexing.
//   - `unwatch`: Unregisters an account from event indexing.
//   - `watched`: Lists every registered account.
func Run(ctx context.Context, ar accountregistry.Service, ix indexer.Service) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "eventwatch",
		Description:           "Command-line interface for managing and running the eventwatch indexing pipeline.",
		Usage:                 "eventwatch [command] [flags]",
		Commands: []*cli.Command{
			startPipelineCommand(ix),
			startWatchingAccountCommand(ar),
			stopWatchingAccountCommand(ar),
			listWatchedAccountsCommand(ar),
		},
	}

	return app.Run(ctx, os.Args)
}
