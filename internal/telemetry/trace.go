package telemetry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type traceKey struct{}

// TraceContext carries correlation IDs through the memory pipeline.
type TraceContext struct {
	ConversationID string `json:"conversation_id"`
	TraceID        string `json:"trace_id"`
	SpanID         string `json:"span_id"`
	ParentID       string `json:"parent_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	Operation      string `json:"operation,omitempty"`
}

// NewTraceContext creates a root trace context with a fresh TraceID and SpanID.
func NewTraceContext(conversationID string) *TraceContext {
	return &TraceContext{
		ConversationID: conversationID,
		TraceID:        randomID(),
		SpanID:         randomID(),
	}
}

// ChildSpan creates a child trace context inheriting the TraceID and ConversationID.
func (tc *TraceContext) ChildSpan() *TraceContext {
	return &TraceContext{
		ConversationID: tc.ConversationID,
		TraceID:        tc.TraceID,
		SpanID:         randomID(),
		ParentID:       tc.SpanID,
		UserID:         tc.UserID,
	}
}

// WithUser returns a copy with the UserID set.
func (tc *TraceContext) WithUser(id string) *TraceContext {
	child := *tc
	child.UserID = id
	return &child
}

// WithOperation returns a copy with the Operation set.
func (tc *TraceContext) WithOperation(name string) *TraceContext {
	child := *tc
	child.Operation = name
	return &child
}

// Fields returns key-value pairs suitable for structured logging.
func (tc *TraceContext) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"conversation_id": tc.ConversationID,
		"trace_id":        tc.TraceID,
		"span_id":         tc.SpanID,
	}
	if tc.ParentID != "" {
		fields["parent_id"] = tc.ParentID
	}
	if tc.UserID != "" {
		fields["user"] = tc.UserID
	}
	if tc.Operation != "" {
		fields["operation"] = tc.Operation
	}
	return fields
}

// ContextWithTrace stores a TraceContext in the context.
func ContextWithTrace(ctx context.Context, tc *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, tc)
}

// TraceFromContext extracts a TraceContext from the context, or nil.
func TraceFromContext(ctx context.Context) *TraceContext {
	tc, _ := ctx.Value(traceKey{}).(*TraceContext)
	return tc
}

// WithTrace returns a logger enriched with trace fields from the context.
func (l *Logger) WithTrace(ctx context.Context) *Logger {
	tc := TraceFromContext(ctx)
	if tc == nil {
		return l
	}
	return l.WithFields(tc.Fields())
}

func randomID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
