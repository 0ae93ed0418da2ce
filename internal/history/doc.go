// Package history merges incrementally fetched listening activity into a cached history.
//
// Histories are ordered most-recent-first and only ever grow by prepending.
package history
