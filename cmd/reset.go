package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/rebalance"
	"github.com/google/subcommands"
)

type resetCmd struct{}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "reset the portfolio to its load-time state" }
func (*resetCmd) Usage() string {
	return `reset

  Drops all simulated trades and the session analysis, restores the holdings
  declared in the portfolio file, and rewrites the shared state file.
`
}

func (c *resetCmd) SetFlags(_ *flag.FlagSet) {}

func (c *resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	result, err := a.gate.Invoke(ctx, rebalance.OpResetPortfolio, nil, rebalance.MutateCapability)
	if err != nil {
		return fail(err)
	}
	ack := result.(rebalance.Ack)

	fmt.Printf("Portfolio %q reset.\n", ack.Detail)
	return subcommands.ExitSuccess
}
