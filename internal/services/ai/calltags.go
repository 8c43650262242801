package ai

import (
	"context"

	"github.com/benvon/postcraft/internal/logger"
	"github.com/benvon/postcraft/internal/request"
	"go.uber.org/zap"
)

// PreviewLength bounds model text quoted in warn-level logs
const PreviewLength = 200

type callTagsKey struct{}

// callTags identify a provider call in debug logs. The request ID comes from
// the HTTP request data when the call is made on behalf of a request.
type callTags struct {
	userID    string
	variation string
}

func tagsFrom(ctx context.Context) callTags {
	t, _ := ctx.Value(callTagsKey{}).(callTags)
	return t
}

// WithUserID tags provider calls made with ctx with the requesting user
func WithUserID(ctx context.Context, userID string) context.Context {
	t := tagsFrom(ctx)
	t.userID = userID
	return context.WithValue(ctx, callTagsKey{}, t)
}

// WithVariation tags provider calls made with ctx with the variation being generated
func WithVariation(ctx context.Context, variation string) context.Context {
	t := tagsFrom(ctx)
	t.variation = variation
	return context.WithValue(ctx, callTagsKey{}, t)
}

// callFields returns the non-empty tags of ctx as log fields
func callFields(ctx context.Context) []zap.Field {
	t := tagsFrom(ctx)
	var fields []zap.Field
	if t.userID != "" {
		fields = append(fields, zap.String("user_id", t.userID))
	}
	if t.variation != "" {
		fields = append(fields, zap.String("variation", t.variation))
	}
	if id := request.RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	return fields
}

// Preview makes model text safe to log. Debug logging keeps the full text up
// to the debug limit; otherwise only the first PreviewLength runes are kept.
func Preview(text string, full bool) string {
	if full {
		return logger.SanitizeDebugContent(text)
	}
	return logger.SanitizeString(text, PreviewLength)
}
