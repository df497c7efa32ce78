package bastion

import "context"

type contextKey int

const ctxKeyActor contextKey = iota

// WithActor returns a context carrying the authenticated actor. Session
// middleware calls this once the credentials have been verified.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (*Actor, bool) {
	a, ok := ctx.Value(ctxKeyActor).(*Actor)
	return a, ok && a != nil
}
