package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path"

	"github.com/etnz/rebalance/cmd"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/posener/complete/v2"
)

func main() {
	// .env carries the API keys. A missing file is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("skipping .env: %v", err)
	}

	completion()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// completion serves shell completion requests, and is a no-op outside of one.
func completion() {
	sub := make(map[string]*complete.Command)
	for _, name := range []string{
		"state", "price", "tradeable",
		"trade", "history", "reset",
		"performance", "analysis", "commentary",
		"assist", "topic",
	} {
		sub[name] = &complete.Command{}
	}
	(&complete.Command{Sub: sub}).Complete("rebal")
}
