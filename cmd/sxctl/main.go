// Command sxctl computes whitelist proofs, execution payloads and voting power for Snapshot X
// style governance spaces.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/commands"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
)

func main() {
	lggr, err := logger.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(lggr).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(lggr logger.Logger) *cobra.Command {
	cmds := commands.New(lggr)

	root := &cobra.Command{
		Use:          "sxctl",
		Short:        "Governance client tooling",
		SilenceUsage: true,
	}
	root.AddCommand(cmds.Merkle(), cmds.Query())

	return root
}
