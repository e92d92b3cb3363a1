package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// BusinessEvents provides helper methods for tracing domain operations,
// higher-level than the HTTP spans otelgin emits.
type BusinessEvents struct {
	tracer trace.Tracer
}

// NewBusinessEvents creates a new business events tracer
func NewBusinessEvents() *BusinessEvents {
	return &BusinessEvents{
		tracer: otel.Tracer("business-events"),
	}
}

// TraceFeedPage creates a span for a feed page fetch
func (be *BusinessEvents) TraceFeedPage(ctx context.Context, view string, refresh bool) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, "feed.page",
		trace.WithAttributes(
			attribute.String("feed.view", view),
			attribute.Bool("feed.refresh", refresh),
		),
	)
}

// TraceCreatePost creates a span for post creation
func (be *BusinessEvents) TraceCreatePost(ctx context.Context, category string, imageCount int) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, "post.create",
		trace.WithAttributes(
			attribute.String("post.category", category),
			attribute.Int("post.image_count", imageCount),
		),
	)
}

// TraceReaction creates a span for a reaction toggle
func (be *BusinessEvents) TraceReaction(ctx context.Context, postID string) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, "post.react",
		trace.WithAttributes(
			attribute.String("post.id", postID),
		),
	)
}

// TraceFollow creates a span for follow/unfollow operations
func (be *BusinessEvents) TraceFollow(ctx context.Context, actorID, targetID string, follow bool) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, "social.follow",
		trace.WithAttributes(
			attribute.String("user.id", actorID),
			attribute.String("target_user.id", targetID),
			attribute.Bool("social.follow", follow),
		),
	)
}

// TraceComment creates a span for comment operations
func (be *BusinessEvents) TraceComment(ctx context.Context, postID string, isReply bool) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, "post.comment",
		trace.WithAttributes(
			attribute.String("post.id", postID),
			attribute.Bool("comment.is_reply", isReply),
		),
	)
}
