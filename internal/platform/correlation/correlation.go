package correlation

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
)

type contextKey struct{}

// Frame identifies the EventSub frame currently being processed.
type Frame struct {
	MessageID   string
	MessageType string
	// Ref stands in for MessageID when the frame could not be decoded far
	// enough to yield one.
	Ref string
}

// Undecodable returns a Frame with a fresh Ref and no message id.
func Undecodable() Frame {
	return Frame{Ref: NewID()}
}

// NewID generates an 8-character hex ID (4 random bytes).
func NewID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// WithFrame returns a new context carrying f.
func WithFrame(ctx context.Context, f Frame) context.Context {
	return context.WithValue(ctx, contextKey{}, f)
}

// FromContext extracts the frame from ctx, returning false if there is none.
func FromContext(ctx context.Context) (Frame, bool) {
	f, ok := ctx.Value(contextKey{}).(Frame)
	return f, ok && (f.MessageID != "" || f.Ref != "")
}

// MessageID extracts the message id from ctx, returning ("", false) if not present.
func MessageID(ctx context.Context) (string, bool) {
	f, _ := FromContext(ctx)
	return f.MessageID, f.MessageID != ""
}

// Handler wraps an existing slog.Handler and stamps records logged with a
// frame context: "message_id" (or "frame_ref" for undecodable frames) and
// "message_type" unless the record already carries one.
type Handler struct {
	inner slog.Handler
}

func NewHandler(inner slog.Handler) *Handler {
	return &Handler{inner: inner}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if f, ok := FromContext(ctx); ok {
		if f.MessageID != "" {
			r.AddAttrs(slog.String("message_id", f.MessageID))
		} else {
			r.AddAttrs(slog.String("frame_ref", f.Ref))
		}
		if f.MessageType != "" && !hasAttr(r, "message_type") {
			r.AddAttrs(slog.String("message_type", f.MessageType))
		}
	}
	if err := h.inner.Handle(ctx, r); err != nil {
		return fmt.Errorf("correlation handler: %w", err)
	}
	return nil
}

func hasAttr(r slog.Record, key string) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		found = a.Key == key
		return !found
	})
	return found
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{inner: h.inner.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name)}
}
