// Package id provides the sortable identifiers stamped on feed notifications.
//
// An ID is 16 bytes big-endian: [8 bytes unix ms][8 bytes sequence], so
// byte-wise order is emission order. The Generator pins to the last seen
// millisecond when the clock regresses and bumps the sequence instead.
//
//	g := id.NewGenerator()
//	n := g.Next()
//	_ = n.String() // 32 hex chars
package id
