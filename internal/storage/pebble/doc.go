// Package pebblestore wraps Pebble with an fsync policy, batches, snapshots
// and a small metrics hook.
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	    Metrics: pebblestore.SlowCommitLogger{Logger: logger, Threshold: 50 * time.Millisecond},
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.CommitBatch(ctx, b)
//	b.Close()
package pebblestore
