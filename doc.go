// Package rebalance implements the stateful core of a simulated portfolio
// rebalancing session. It keeps a single portfolio internally consistent
// while several independent callers, possibly running in separate processes,
// read its state and drive simulated trades against live market prices.
//
// The core functionalities include:
//   - Price Cache: a TTL-keyed cache fronting a rate-limited market data
//     provider, degrading to stale or fallback prices rather than failing.
//   - Portfolio Store: holdings, investor profile and an append-only trade
//     ledger, mutated only through the auditable trade simulation.
//   - Trade Simulation: validated buy/sell execution with fees, weighted
//     average cost tracking and atomic persistence of each trade.
//   - Analysis Snapshot: a session-scoped freeze of all computed figures so
//     every consumer of one rebalancing run reports the same numbers.
//   - Tool Gate: the fixed operation catalogue exposed to collaborating
//     agents, split between read-only and mutating capabilities.
//   - State Sync: a shared JSON document synchronizing the store between
//     the writing process and its readers.
//
// This package serves as the foundational logic for the `rebal` command-line
// tool and for the agents in the agent package.
package rebalance
