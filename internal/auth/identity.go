package auth

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/grpc/metadata"
)

const bearerPrefix = "Bearer "

// IdentityFromRequest reads the caller identity from an
// "Authorization: Bearer <identity>" header. It returns "" when the header is
// missing or uses another scheme.
func IdentityFromRequest(r *http.Request) string {
	return parseBearer(r.Header.Get("Authorization"))
}

// IdentityFromContext reads the identity from incoming gRPC "authorization" metadata.
func IdentityFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	return parseBearer(vals[0])
}

// BearerHeader formats identity as an Authorization header value.
func BearerHeader(identity string) string {
	return bearerPrefix + identity
}

func parseBearer(h string) string {
	if !strings.HasPrefix(h, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
}
