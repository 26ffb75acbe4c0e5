// ABOUTME: Root CLI command for the bookbrain backend
// ABOUTME: Registers the serve, ingest, purge, and version subcommands
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookbrain",
		Short: "Backend for the personalized Physical AI textbook",
		Long: `bookbrain serves the Physical AI book platform: retrieval-augmented
question answering over book content, profile-driven content adaptation,
and cached machine translation.

Typical workflow:
  bookbrain ingest --docs ./docs    index the book into the vector store
  bookbrain serve                   run the HTTP API`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewIngestCmd())
	cmd.AddCommand(NewPurgeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
