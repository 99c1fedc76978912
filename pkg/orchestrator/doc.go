// Package orchestrator drives asynchronous remote operations to a single
// exit status: submit once, poll to a terminal state under a bounded
// attempt budget, locate the created resource after a visibility grace
// period, and tear it down with bounded retries. The coordinator reduces
// every path through that pipeline to an Outcome whose exit code is 0 only
// for a fully successful end-to-end run.
package orchestrator
