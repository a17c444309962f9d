// Package logger builds structured slog loggers for the access layer.
//
// [New] produces a JSON logger; [NewNope] a silent one for defaults
// and tests; [NewWithSentry] additionally forwards errors to Sentry
// and degrades to local-only logging when the DSN is empty or init
// fails.
//
// Context extractors attach request-scoped attributes to every record
// emitted with a context:
//
//	log := logger.New(
//	    logger.WithLevel(slog.LevelDebug),
//	    logger.WithExtractor(func(ctx context.Context) (slog.Attr, bool) {
//	        if id, ok := ctx.Value(requestIDKey).(string); ok {
//	            return slog.String("request_id", id), true
//	        }
//	        return slog.Attr{}, false
//	    }),
//	)
package logger
