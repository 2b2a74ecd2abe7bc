package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance"
	"github.com/google/subcommands"
)

type priceCmd struct{}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "display the current price of an asset" }
func (*priceCmd) Usage() string {
	return `price <assetId>

  Displays the current market price of one asset, and where the price came
  from (live provider, cache, stale cache, manual fallback or purchase price).
`
}

func (c *priceCmd) SetFlags(_ *flag.FlagSet) {}

func (c *priceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "exactly one asset id is expected")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	result, err := a.gate.Invoke(ctx, rebalance.OpGetAssetPrice, map[string]any{"assetId": f.Arg(0)}, rebalance.ReadCapability)
	if err != nil {
		return fail(err)
	}
	quote := result.(rebalance.Quote)

	fmt.Printf("%s: %s (%s, fetched %s)\n", quote.AssetID, quote.Price, quote.Source, quote.FetchedAt.Format("15:04:05"))
	return subcommands.ExitSuccess
}
