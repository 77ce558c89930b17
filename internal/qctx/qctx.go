// Package qctx carries request-scoped identifiers through a context.Context
// so structured logging can tag every line produced during one daemon purge
// cycle without threading extra parameters through every call, mirroring
// the teacher's item/stage/lane context propagation.
package qctx

import "context"

type correlationKey struct{}

type elementKey struct{}

// WithCorrelationID attaches an opaque correlation identifier to ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation identifier attached to ctx, if any.
func CorrelationID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(correlationKey{}).(string)
	return id, ok && id != ""
}

// element identifies one queue element by bucket and name.
type element struct {
	bucket string
	name   string
}

// WithElement attaches the bucket/name of the element currently being
// processed to ctx.
func WithElement(ctx context.Context, bucket, name string) context.Context {
	return context.WithValue(ctx, elementKey{}, element{bucket: bucket, name: name})
}

// Element returns the bucket/name attached to ctx, if any.
func Element(ctx context.Context) (bucket, name string, ok bool) {
	if ctx == nil {
		return "", "", false
	}
	e, found := ctx.Value(elementKey{}).(element)
	if !found {
		return "", "", false
	}
	return e.bucket, e.name, true
}
