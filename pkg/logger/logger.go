package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// ContextExtractor pulls a slog attribute out of a context. Extractors
// run per log call, so request-scoped values (request IDs, attempt
// numbers) land on every record emitted during that call.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// Option configures the logger factory.
type Option func(*options)

type options struct {
	out        io.Writer
	level      slog.Level
	extractors []ContextExtractor
}

func defaultOptions() *options {
	return &options{
		out:   os.Stdout,
		level: slog.LevelInfo,
	}
}

// WithOutput redirects log output. Default: os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithLevel sets the minimum level. Default: slog.LevelInfo.
func WithLevel(l slog.Level) Option {
	return func(o *options) {
		o.level = l
	}
}

// WithExtractor adds a context extractor. Nil extractors are ignored.
func WithExtractor(ex ContextExtractor) Option {
	return func(o *options) {
		if ex != nil {
			o.extractors = append(o.extractors, ex)
		}
	}
}

// New creates a JSON-formatted logger.
func New(opts ...Option) *slog.Logger {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	h := slog.NewJSONHandler(o.out, &slog.HandlerOptions{Level: o.level})
	return slog.New(withExtractors(h, o.extractors))
}

// NewNope creates a no-op logger that discards all output.
// Used as the default wherever logging is not configured.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withExtractors wraps a handler so context attributes are injected on
// every record.
func withExtractors(next slog.Handler, extractors []ContextExtractor) slog.Handler {
	if len(extractors) == 0 {
		return next
	}
	return &contextHandler{next: next, extractors: extractors}
}

type contextHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			rec.AddAttrs(attr)
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}
