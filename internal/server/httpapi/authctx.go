package httpapi

import (
	"context"
	"strings"

	"github.com/and161185/cardvault/internal/model"
)

type ctxKey string

const accountKey ctxKey = "cv.account"

// WithAccount stores the authenticated account in context.
func WithAccount(ctx context.Context, a model.Account) context.Context {
	return context.WithValue(ctx, accountKey, a)
}

// AccountFromContext fetches the authenticated account from context.
func AccountFromContext(ctx context.Context) (model.Account, bool) {
	v := ctx.Value(accountKey)
	if v == nil {
		return model.Account{}, false
	}
	a, ok := v.(model.Account)
	return a, ok
}

// bearerToken extracts the token from an "Authorization: Bearer <JWT>" value.
func bearerToken(header string) string {
	v := strings.TrimSpace(header)
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return ""
}
