package auth

import (
	"context"

	"meetmed/internal/models"
)

type contextKey struct{}

func WithAccount(ctx context.Context, account models.Account) context.Context {
	return context.WithValue(ctx, contextKey{}, account)
}

func AccountFromContext(ctx context.Context) (models.Account, bool) {
	account, ok := ctx.Value(contextKey{}).(models.Account)
	return account, ok
}
