// Package parallel runs per-file work with bounded concurrency.
//
// Results always come back in input order regardless of which worker
// finished first, so reports are stable between runs.
package parallel
