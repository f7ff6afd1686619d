// Package commands provides modular CLI command packages for the governance client.
//
// There are two ways to use commands from this package:
//
// 1. Via the Commands factory (recommended for most use cases):
//
//	commands := commands.New(lggr)
//	app.AddCommand(
//	    commands.Merkle(),
//	    commands.Query(),
//	)
//
// 2. Via direct package imports (for advanced DI/testing):
//
//	import "github.com/snapshot-labs/sx-monorepo-sub001/pkg/commands/query"
//
//	app.AddCommand(query.NewCommand(query.Config{
//	    Logger: lggr,
//	    Deps:   &query.Deps{...},  // inject fakes for testing
//	}))
package commands

import (
	"github.com/spf13/cobra"

	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/commands/merkle"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/commands/query"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
)

// Commands provides a factory for creating CLI commands with shared configuration.
// This allows setting the logger once and reusing it across all commands.
type Commands struct {
	lggr logger.Logger
}

// New creates a new Commands factory with the given logger.
// The logger will be shared across all commands created by this factory.
func New(lggr logger.Logger) *Commands {
	return &Commands{lggr: lggr}
}

// Merkle creates the merkle command group for whitelist roots and proofs.
func (c *Commands) Merkle() *cobra.Command {
	return merkle.NewCommand(merkle.Config{Logger: c.lggr})
}

// Query creates the query command group for voting power and execution data.
func (c *Commands) Query() *cobra.Command {
	return query.NewCommand(query.Config{Logger: c.lggr})
}
