// Package auth gates writes to the feed on the caller's identity.
//
// The identity itself is established outside this service (mTLS terminator,
// gateway, signed session); transports only carry it as a bearer value and
// the Gate decides. StaticIdentity covers the single-writer deployment;
// Predicate is the seam for anything broader.
package auth
