package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/rebalance"
	"github.com/google/subcommands"
)

type commentaryCmd struct {
	kind string
}

func (*commentaryCmd) Name() string     { return "commentary" }
func (*commentaryCmd) Synopsis() string { return "attach commentary to the session analysis" }
func (*commentaryCmd) Usage() string {
	return `commentary [-k <kind>] <text...>

  Attaches qualitative commentary to the session analysis. The analysis is
  computed first if it does not exist yet. Kind is either portfolio_analysis
  (default) or target_allocation.
`
}

func (c *commentaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "k", "portfolio_analysis", "commentary kind: portfolio_analysis or target_allocation")
}

func (c *commentaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "commentary text is expected")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	args := map[string]any{
		"kind": c.kind,
		"text": strings.Join(f.Args(), " "),
	}
	result, err := a.gate.Invoke(ctx, rebalance.OpSaveCommentary, args, rebalance.MutateCapability)
	if err != nil {
		return fail(err)
	}
	ack := result.(rebalance.Ack)

	fmt.Printf("Commentary %s (%s).\n", ack.Status, ack.Detail)
	return subcommands.ExitSuccess
}
