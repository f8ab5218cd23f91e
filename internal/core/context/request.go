// Package context carries request-scoped values: the caller resolved from the
// access token and the ids correlating logs with traces.
package context

import "context"

// TraceContext correlates one request across logs, spans and responses.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

// UserContext is the authenticated caller. Role is the raw claim; it is
// checked against the assignable roles when an Actor is built.
type UserContext struct {
	UserID    string
	Email     string
	Role      string
	SessionID string
}

type (
	traceKey struct{}
	userKey  struct{}
)

func WithTrace(ctx context.Context, t *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// GetTrace returns nil outside a traced request.
func GetTrace(ctx context.Context) *TraceContext {
	t, _ := ctx.Value(traceKey{}).(*TraceContext)
	return t
}

func WithUser(ctx context.Context, u *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// GetUser returns nil for unauthenticated requests and background jobs.
func GetUser(ctx context.Context) *UserContext {
	u, _ := ctx.Value(userKey{}).(*UserContext)
	return u
}

// LogFields returns the key-value pairs every log line of the request carries.
func LogFields(ctx context.Context) []any {
	var fields []any
	if t := GetTrace(ctx); t != nil {
		fields = append(fields, "trace_id", t.TraceID, "request_id", t.RequestID)
	}
	if u := GetUser(ctx); u != nil {
		fields = append(fields, "user_id", u.UserID, "role", u.Role)
	}
	return fields
}
