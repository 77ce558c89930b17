package logging

import (
	"context"
	"log/slog"

	"dirqueue/internal/qctx"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldElement is the standardized structured logging key for the element name (14 hex digits).
	FieldElement = "element"
	// FieldBucket is the standardized structured logging key for the bucket name (8 hex digits).
	FieldBucket = "bucket"
	// FieldPhase is the standardized structured logging key for a purge sub-phase name.
	FieldPhase = "phase"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if bucket, name, ok := qctx.Element(ctx); ok {
		if bucket != "" {
			fields = append(fields, slog.String(FieldBucket, bucket))
		}
		if name != "" {
			fields = append(fields, slog.String(FieldElement, name))
		}
	}
	if rid, ok := qctx.CorrelationID(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
