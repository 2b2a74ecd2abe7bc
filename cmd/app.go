// Package cmd implements the CLI application to manage a simulated portfolio.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/polygon"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&stateCmd{}, "portfolio")
	c.Register(&priceCmd{}, "portfolio")
	c.Register(&tradeableCmd{}, "portfolio")

	c.Register(&tradeCmd{}, "trading")
	c.Register(&historyCmd{}, "trading")
	c.Register(&resetCmd{}, "trading")

	c.Register(&performanceCmd{}, "analysis")
	c.Register(&analysisCmd{}, "analysis")
	c.Register(&commentaryCmd{}, "analysis")

	c.Register(&assistCmd{}, "assistant")
	c.Register(&topicCmd{}, "assistant")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var portfolioFile = flag.String("portfolio-file", "portfolio.json", "Path to the portfolio definition file (JSON format)")
var stateFile = flag.String("state-file", ".portfolio_state.json", "Path to the shared portfolio state file")

// app bundles the components of one command invocation, wired over the
// portfolio and state files.
type app struct {
	store   *rebalance.Store
	cache   *rebalance.PriceCache
	sim     *rebalance.Simulator
	session *rebalance.Session
	sync    *rebalance.StateSync
	gate    *rebalance.ToolGate
}

// openApp loads the portfolio and replays the shared state file, so every
// command starts from the same state its sibling processes left behind.
func openApp() (*app, error) {
	p, err := rebalance.LoadPortfolio(*portfolioFile)
	if err != nil {
		return nil, fmt.Errorf("could not load portfolio %q: %w", *portfolioFile, err)
	}

	store := rebalance.NewStore(p)
	sync := rebalance.NewStateSync(*stateFile)
	if err := sync.Load(store); err != nil {
		return nil, fmt.Errorf("could not load state %q: %w", *stateFile, err)
	}

	cache := rebalance.NewPriceCache(polygon.New(polygon.APIKey()), p)
	sim := rebalance.NewSimulator(store, cache, sync)
	session := rebalance.NewSession(store, cache)

	return &app{
		store:   store,
		cache:   cache,
		sim:     sim,
		session: session,
		sync:    sync,
		gate:    rebalance.NewToolGate(store, cache, sim, session, sync),
	}, nil
}

// fail prints the error and converts it to an exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
