package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/rebalance"
	"github.com/google/subcommands"
)

type stateCmd struct {
	asJSON bool
}

func (*stateCmd) Name() string     { return "state" }
func (*stateCmd) Synopsis() string { return "display the current portfolio state" }
func (*stateCmd) Usage() string {
	return `state [-json]

  Displays the holdings with their live prices, the allocation per asset
  class and the deviation from the target allocation.
`
}

func (c *stateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "print the raw state as JSON")
}

func (c *stateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	result, err := a.gate.Invoke(ctx, rebalance.OpGetPortfolioState, nil, rebalance.MutateCapability)
	if err != nil {
		return fail(err)
	}
	st := result.(rebalance.PortfolioState)

	if c.asJSON {
		out, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return fail(err)
		}
		fmt.Println(string(out))
		return subcommands.ExitSuccess
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio %s\n\n", st.Name)
	fmt.Fprintf(&b, "| Asset | Class | Quantity | Avg Price | Price | Value |\n")
	fmt.Fprintf(&b, "|---|---|---:|---:|---:|---:|\n")
	for _, h := range st.Holdings {
		marker := ""
		if !h.Tradeable {
			marker = " *"
		}
		fmt.Fprintf(&b, "| %s%s | %s | %s | %s | %s | %s |\n",
			h.Name, marker, h.Class, h.Quantity, h.AvgPrice, h.CurrentPrice, h.CurrentValue)
	}
	fmt.Fprintf(&b, "\n**Total**: %s (initial %s)\n", st.CurrentValue, st.InitialValue)

	fmt.Fprintf(&b, "\n## Allocation\n\n")
	fmt.Fprintf(&b, "| Class | Current | Deviation from target |\n")
	fmt.Fprintf(&b, "|---|---:|---:|\n")
	for _, class := range rebalance.AllClasses {
		current, ok := st.Allocation[class]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", class, current, st.Deviation[class].SignedString())
	}

	fmt.Fprintf(&b, "\n_Investor: %s risk, %d year horizon. %s_\n",
		st.Profile.RiskLevel, st.Profile.TimeHorizon, st.Profile.Philosophy)

	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
