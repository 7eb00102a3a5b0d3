package auth

import (
	"context"
	"net/http"
	"strings"
)

const TokenHeader = "X-FITWISE-TOKEN"

type ctxKey struct{}

func ContextWithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(ctxKey{}).(int)
	return userID, ok
}

// TokenFromRequest reads the session token from the Authorization bearer
// header, falling back to the X-FITWISE-TOKEN header.
func TokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return r.Header.Get(TokenHeader)
}
