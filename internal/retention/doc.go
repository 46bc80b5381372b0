// Package retention implements the periodic eviction pass over the feed.
//
// A record inserted at t with retention period P is evicted by the first
// pass whose clock sample now satisfies now > t + P. A record at exactly
// t + P survives that pass. Work per pass is proportional to the number of
// records evicted.
package retention
