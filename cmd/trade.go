package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance"
	"github.com/google/subcommands"
)

type tradeCmd struct {
	rationale string
}

func (*tradeCmd) Name() string     { return "trade" }
func (*tradeCmd) Synopsis() string { return "execute a simulated trade" }
func (*tradeCmd) Usage() string {
	return `trade [-r <rationale>] <buy|sell> <assetId> <quantity>

  Executes a simulated trade against the portfolio. The price is refreshed
  from the market source, the trading fee applied, and the resulting state
  persisted to the shared state file.

Usage Examples:
# Buy 50 units of vti, with a rationale recorded in the ledger.
$ rebal trade -r "rebalancing towards stock target" buy vti 50

`
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.rationale, "r", "", "rationale recorded with the trade")
}

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "expected: <buy|sell> <assetId> <quantity>")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	args := map[string]any{
		"action":    f.Arg(0),
		"assetId":   f.Arg(1),
		"quantity":  f.Arg(2),
		"rationale": c.rationale,
	}
	result, err := a.gate.Invoke(ctx, rebalance.OpSimulateTrade, args, rebalance.MutateCapability)
	if err != nil {
		return fail(err)
	}
	t := result.(rebalance.Trade)

	total := t.TotalCost()
	if t.Action == rebalance.Sell {
		total = t.NetProceeds()
	}
	fmt.Printf("Executed %s %s x %s at %s (fee %s, total %s)\n",
		t.Action, t.AssetID, t.Quantity, t.Price, t.Fee, total)
	return subcommands.ExitSuccess
}
