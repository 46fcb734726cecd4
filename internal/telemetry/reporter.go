package telemetry

import (
	"context"
	"log/slog"
)

// Reporter records failures that degrade a request without failing it
// (catalog fetches, coupon validation, kitchen ticket publishing).
type Reporter interface {
	Report(ctx context.Context, err error, attrs ...slog.Attr)
}

// LogReporter writes reported errors to a structured logger.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a reporter that logs at error level.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

// Report logs err with attrs.
func (r *LogReporter) Report(ctx context.Context, err error, attrs ...slog.Attr) {
	if err == nil {
		return
	}
	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.String("error", err.Error()))
	for _, a := range attrs {
		args = append(args, a)
	}
	r.logger.ErrorContext(ctx, "reported error", args...)
}

// MultiReporter fans out to several reporters.
type MultiReporter []Reporter

// Report forwards to every reporter.
func (m MultiReporter) Report(ctx context.Context, err error, attrs ...slog.Attr) {
	for _, r := range m {
		r.Report(ctx, err, attrs...)
	}
}

// NopReporter discards everything.
type NopReporter struct{}

// Report does nothing.
func (NopReporter) Report(context.Context, error, ...slog.Attr) {}
