package auth

import "context"

type ctxKey string

const ctxKeySub ctxKey = "sub"

// WithSubject attaches the authenticated subject to the request context.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

// SubjectFromContext returns the authenticated subject, or "" when the
// request went through without auth (local auth disabled).
func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeySub).(string)
	return s
}
