// Package feed is the single-writer event feed.
//
// Service glues the pieces together: the auth Gate decides who may write,
// the clock stamps each record, the eventlog queue stores it, and a
// Publisher announces it. OnTick is called by the host once per cycle and
// evicts every record whose retention window has strictly elapsed.
//
//	svc, _ := feed.New(queue, feed.Options{
//	    Gate:            auth.StaticIdentity("alice"),
//	    RetentionPeriod: 3600,
//	})
//	rec, err := svc.Submit(ctx, "alice", []byte("moshimoshi"))
//	n := svc.OnTick(ctx)
package feed
