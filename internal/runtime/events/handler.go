package events

import "context"

// Handler processes one Event. A returned error becomes a failed Result whose
// message is the error text.
type Handler interface {
	Handle(ctx context.Context, ev Event) (Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event) (Result, error)

func (f HandlerFunc) Handle(ctx context.Context, ev Event) (Result, error) {
	return f(ctx, ev)
}
