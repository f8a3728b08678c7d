// Package travel resolves addresses and driving times for the scheduler.
//
// The Adapter is the only component of the core that performs I/O. It wraps a
// Provider with a memoizing Cache and converts every provider failure into a
// fixed fallback duration flagged as Estimated, so that routing passes never
// abort because a lookup failed. BuildMatrix fans out pairwise lookups with
// bounded concurrency.
package travel
