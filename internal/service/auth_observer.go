package service

import (
	"context"
	"log/slog"

	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/observability/metrics"
)

// LoggingObserver logs session manager transitions and feeds the login metrics.
type LoggingObserver struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder
}

var _ TransitionObserver = (*LoggingObserver)(nil)

// NewLoggingObserver builds an observer; nil arguments fall back to slog.Default and no metrics.
func NewLoggingObserver(logger *slog.Logger, rec metrics.Recorder) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &LoggingObserver{Logger: logger, Metrics: rec}
}

func (o *LoggingObserver) Observe(ctx context.Context, t domainauth.Transition) {
	attrs := []any{"from", t.From, "to", t.To, "email", t.Email}
	if t.Err != nil {
		o.Logger.WarnContext(ctx, "session transition", append(attrs, "error", t.Err)...)
	} else {
		o.Logger.DebugContext(ctx, "session transition", attrs...)
	}

	o.Metrics.RecordTransition(string(t.From), string(t.To))

	switch {
	case t.To == domainauth.StateAuthenticated && t.From != domainauth.StateAnonymous:
		o.Metrics.RecordLogin(nil)
	case t.To == domainauth.StateFailed:
		o.Metrics.RecordLogin(t.Err)
	}
	if t.From == domainauth.StateRepairing {
		o.Metrics.RecordProfileRepair(t.Err)
	}
}
