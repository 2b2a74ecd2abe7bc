package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/rebalance"
	"github.com/google/subcommands"
)

type historyCmd struct{}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display the trade ledger" }
func (*historyCmd) Usage() string {
	return `history

  Displays every simulated trade of the session, in execution order.
`
}

func (c *historyCmd) SetFlags(_ *flag.FlagSet) {}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	result, err := a.gate.Invoke(ctx, rebalance.OpGetTradeHistory, nil, rebalance.ReadCapability)
	if err != nil {
		return fail(err)
	}
	trades := result.([]rebalance.Trade)

	if len(trades) == 0 {
		fmt.Println("No trades yet.")
		return subcommands.ExitSuccess
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Trade history\n\n")
	fmt.Fprintf(&b, "| When | Action | Asset | Quantity | Price | Fee | Rationale |\n")
	fmt.Fprintf(&b, "|---|---|---|---:|---:|---:|---|\n")
	for _, t := range trades {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			t.Timestamp.Format("2006-01-02 15:04"), t.Action, t.AssetID, t.Quantity, t.Price, t.Fee, t.Rationale)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
