package events

import "context"

// Channel names the transport an Event arrived on.
type Channel string

const (
	ChannelSocket Channel = "socket"
	ChannelHTTP   Channel = "http"
	ChannelDirect Channel = "direct"
)

// Origin describes where an Event came from.
type Origin struct {
	Channel      Channel
	ConnectionID string
}

type originKey struct{}

// WithOrigin attaches o to ctx.
func WithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, originKey{}, o)
}

// OriginFromContext returns the Origin stored in ctx. Events dispatched
// without one report ChannelDirect.
func OriginFromContext(ctx context.Context) Origin {
	if ctx != nil {
		if o, ok := ctx.Value(originKey{}).(Origin); ok {
			return o
		}
	}
	return Origin{Channel: ChannelDirect}
}
