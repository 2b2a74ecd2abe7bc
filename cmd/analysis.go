package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/rebalance"
	"github.com/google/subcommands"
)

type analysisCmd struct{}

func (*analysisCmd) Name() string     { return "analysis" }
func (*analysisCmd) Synopsis() string { return "display the session analysis" }
func (*analysisCmd) Usage() string {
	return `analysis

  Computes and displays the analysis of the portfolio: total value, cost
  basis, allocation, deviation from target and performance. The figures are
  frozen the first time they are computed in a session.
`
}

func (c *analysisCmd) SetFlags(_ *flag.FlagSet) {}

func (c *analysisCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	result, err := a.gate.Invoke(ctx, rebalance.OpGenerateAnalysis, nil, rebalance.ReadCapability)
	if err != nil {
		return fail(err)
	}
	snap := result.(*rebalance.AnalysisSnapshot)

	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio analysis\n\n")
	fmt.Fprintf(&b, "Taken at %s.\n\n", snap.TakenAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Total value**: %s, cost basis %s.\n\n", snap.TotalValue, snap.CostBasis)

	fmt.Fprintf(&b, "| Class | Allocation | Deviation |\n")
	fmt.Fprintf(&b, "|---|---:|---:|\n")
	for _, class := range rebalance.AllClasses {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", class, snap.Allocation[class], snap.Deviation[class].SignedString())
	}

	perf := snap.Performance
	fmt.Fprintf(&b, "\n**Performance**: %s (%s), fees %s over %d trades, net %s.\n",
		perf.AbsoluteChange.SignedString(), perf.PercentChange.SignedString(),
		perf.TotalFees, perf.TradeCount, perf.NetChange.SignedString())

	for kind, text := range snap.Commentary {
		fmt.Fprintf(&b, "\n## Commentary (%s)\n\n%s\n", kind, text)
	}

	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
