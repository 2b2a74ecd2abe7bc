package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/rebalance"
	"github.com/google/subcommands"
)

type tradeableCmd struct{}

func (*tradeableCmd) Name() string     { return "tradeable" }
func (*tradeableCmd) Synopsis() string { return "list the assets that can be traded" }
func (*tradeableCmd) Usage() string {
	return `tradeable

  Lists the assets carrying a market ticker, with their current prices.
  Assets without a ticker are held but cannot be bought or sold.
`
}

func (c *tradeableCmd) SetFlags(_ *flag.FlagSet) {}

func (c *tradeableCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	result, err := a.gate.Invoke(ctx, rebalance.OpListTradeable, nil, rebalance.ReadCapability)
	if err != nil {
		return fail(err)
	}
	assets := result.([]rebalance.TradeableAsset)

	var b strings.Builder
	fmt.Fprintf(&b, "# Tradeable assets\n\n")
	fmt.Fprintf(&b, "| Id | Name | Class | Ticker | Price | Source |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---:|---|\n")
	for _, t := range assets {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			t.AssetID, t.Name, t.Class, t.Ticker, t.CurrentPrice, t.Source)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
