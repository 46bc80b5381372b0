package auth

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

func TestStaticIdentity(t *testing.T) {
	gate := StaticIdentity("alice")

	require.NoError(t, gate.CheckAuthorized("alice"))
	assert.ErrorIs(t, gate.CheckAuthorized("bob"), ErrNotAuthorized)
	assert.ErrorIs(t, gate.CheckAuthorized(""), ErrNotAuthorized)
	assert.ErrorIs(t, gate.CheckAuthorized("alice "), ErrNotAuthorized)
}

func TestEmptyStaticIdentityDeniesEveryone(t *testing.T) {
	gate := StaticIdentity("")
	assert.ErrorIs(t, gate.CheckAuthorized(""), ErrNotAuthorized)
	assert.ErrorIs(t, gate.CheckAuthorized("anyone"), ErrNotAuthorized)
}

func TestPredicate(t *testing.T) {
	gate := Predicate(func(id string) bool { return id == "ops" || id == "admin" })
	require.NoError(t, gate.CheckAuthorized("ops"))
	assert.ErrorIs(t, gate.CheckAuthorized("guest"), ErrNotAuthorized)

	var nilGate Predicate
	assert.ErrorIs(t, nilGate.CheckAuthorized("ops"), ErrNotAuthorized)
}

func TestIdentityFromRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/v1/feed/events", nil)
	assert.Equal(t, "", IdentityFromRequest(r))

	r.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", IdentityFromRequest(r))

	r.Header.Set("Authorization", BearerHeader("alice"))
	assert.Equal(t, "alice", IdentityFromRequest(r))
}

func TestIdentityFromContext(t *testing.T) {
	assert.Equal(t, "", IdentityFromContext(context.Background()))

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer alice"))
	assert.Equal(t, "alice", IdentityFromContext(ctx))

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "alice"))
	assert.Equal(t, "", IdentityFromContext(ctx))
}
