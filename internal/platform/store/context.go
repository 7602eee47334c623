package store

import "context"

type (
	campaignKey struct{}
	reqIDKey    struct{}
)

// WithCampaign attaches a campaign label to the context so store-side
// tracing can attribute queries to the campaign that issued them
func WithCampaign(ctx context.Context, campaign string) context.Context {
	return context.WithValue(ctx, campaignKey{}, campaign)
}

// Campaign retrieves the campaign label from context if present
func Campaign(ctx context.Context) (string, bool) {
	v := ctx.Value(campaignKey{})
	if v == nil {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// WithRequestID attaches a request id to the context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, reqIDKey{}, id)
}

// RequestID retrieves a request id from context if present
func RequestID(ctx context.Context) (string, bool) {
	v := ctx.Value(reqIDKey{})
	if v == nil {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}
