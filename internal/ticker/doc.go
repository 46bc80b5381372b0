// Package ticker drives the feed's periodic eviction pass from a single
// goroutine.
package ticker
