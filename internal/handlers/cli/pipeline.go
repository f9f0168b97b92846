package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gabapcia/eventwatch/internal/indexer"

	"github.com/urfave/cli/v3"
)

// startPipelineCommand returns a CLI command that starts the event indexing
// pipeline: account resolution, polling, decoding, and persistence.
//
// Usage example:
//
//	eventwatch start
//
// The process runs indefinitely until it receives an interrupt (SIGINT or
// SIGTERM). Shutdown is graceful: in-flight signatures finish their
// persist-then-advance step before the process exits.
func startPipelineCommand(ix indexer.Service) *cli.Command {
	return &cli.Command{
		Name:        "start",
		Description: "Starts the event indexing pipeline for every watched account.",
		Usage:       "Initializes and runs the full pipeline. Terminates gracefully on Ctrl+C or termination signals.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			defer close(quit)

			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			if err := ix.Start(ctx); err != nil {
				return err
			}
			defer ix.Close()

			<-quit
			return nil
		},
	}
}
