package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/rebalance"
	"github.com/google/subcommands"
)

type performanceCmd struct{}

func (*performanceCmd) Name() string     { return "performance" }
func (*performanceCmd) Synopsis() string { return "display session performance figures" }
func (*performanceCmd) Usage() string {
	return `performance

  Displays the portfolio value change since load time, the fees paid and the
  net change. Figures use live prices.
`
}

func (c *performanceCmd) SetFlags(_ *flag.FlagSet) {}

func (c *performanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	result, err := a.gate.Invoke(ctx, rebalance.OpPerformance, nil, rebalance.ReadCapability)
	if err != nil {
		return fail(err)
	}
	perf := result.(rebalance.Performance)

	fmt.Printf("Initial value:   %s\n", perf.InitialValue)
	fmt.Printf("Current value:   %s\n", perf.CurrentValue)
	fmt.Printf("Change:          %s (%s)\n", perf.AbsoluteChange.SignedString(), perf.PercentChange.SignedString())
	fmt.Printf("Fees paid:       %s over %d trades\n", perf.TotalFees, perf.TradeCount)
	fmt.Printf("Net change:      %s\n", perf.NetChange.SignedString())
	return subcommands.ExitSuccess
}
