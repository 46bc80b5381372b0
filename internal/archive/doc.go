// Package archive exports records evicted from the feed as JSONL objects.
//
// An Archiver is installed as the queue's EvictionHook. Each committed
// eviction batch becomes one object named
// {prefix}/{queue}/{firstSeq}-{lastSeq}.jsonl in the configured Sink.
// S3Sink targets AWS S3 or any S3-compatible endpoint.
package archive
