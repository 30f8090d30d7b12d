package simplevalues

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogReporter writes anomalies to a structured logger
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a reporter logging through logger
func NewLogReporter(logger *slog.Logger) Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

func (r *LogReporter) ReferenceUnresolved(ctx context.Context, d *PropertyDescriptor, ownerID uuid.UUID, key uuid.UUID, preview bool) {
	r.logger.WarnContext(ctx, "Reference not resolved",
		"property", d.String(), "content_id", ownerID.String(), "key", key.String(), "preview", preview)
}

func (r *LogReporter) EntryMalformed(ctx context.Context, d *PropertyDescriptor, index int, err error) {
	r.logger.WarnContext(ctx, "Skipping malformed entry", "property", d.String(), "index", index, "error", err)
}

func (r *LogReporter) ConfigurationFault(ctx context.Context, err *ConfigurationError) {
	r.logger.ErrorContext(ctx, "Content type cannot be served",
		"content_type", err.ContentTypeAlias, "property", err.PropertyAlias,
		"editor", err.EditorAlias, "converters", err.Converters, "error", err.Err)
}

func (r *LogReporter) ConversionFailed(ctx context.Context, d *PropertyDescriptor, ownerID uuid.UUID, err error) {
	r.logger.WarnContext(ctx, "Conversion step failed", "property", d.String(), "content_id", ownerID.String(), "error", err)
}

type reporterKey struct{}

// ContextWithReporter returns a context carrying the reporter converters
// should send anomalies to.
func ContextWithReporter(ctx context.Context, r Reporter) context.Context {
	return context.WithValue(ctx, reporterKey{}, r)
}

// ReporterFromContext returns the reporter carried by ctx, or a no-op reporter.
func ReporterFromContext(ctx context.Context) Reporter {
	if r, ok := ctx.Value(reporterKey{}).(Reporter); ok && r != nil {
		return r
	}
	return NewNoopReporter()
}
