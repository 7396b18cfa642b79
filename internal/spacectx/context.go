// Package spacectx threads the active management-space id through a
// request context. The core never keeps a process-wide "current space";
// every call resolves the space explicitly.
package spacectx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type contextKey struct{}

func WithSpaceID(ctx context.Context, spaceID snowflake.ID) context.Context {
	return context.WithValue(ctx, contextKey{}, spaceID)
}

func SpaceIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	id, ok := ctx.Value(contextKey{}).(snowflake.ID)
	return id, ok
}
