// Package observe wraps every inventory operation with error tagging, logging and metrics.
package observe

import (
	"context"
	"net/http"
	"time"

	pkgerrors "github.com/angelmondragon/shelfstock-backend/pkg/errors"
	"github.com/angelmondragon/shelfstock-backend/pkg/logger"
	"github.com/angelmondragon/shelfstock-backend/pkg/metrics"
)

// Tracker is shared by the services; the zero value is usable and records nothing.
type Tracker struct {
	logg    *logger.Logger
	metrics *metrics.OperationMetrics
}

// NewTracker builds a tracker. Both collaborators are optional.
func NewTracker(logg *logger.Logger, m *metrics.OperationMetrics) Tracker {
	return Tracker{logg: logg, metrics: m}
}

// Logger returns the tracker's logger, never nil.
func (t Tracker) Logger() *logger.Logger {
	if t.logg == nil {
		return logger.Nop()
	}
	return t.logg
}

// Start tags ctx with the operation name and returns the completion hook:
//
//	ctx, done := s.track.Start(ctx, "create_shelf")
//	defer done(&err)
//
// The hook converts untyped errors to INTERNAL_ERROR, stamps details.operation,
// logs failures and records duration plus outcome.
func (t Tracker) Start(ctx context.Context, operation string) (context.Context, func(*error)) {
	logg := t.Logger()
	ctx = logg.WithOperation(ctx, operation)
	start := time.Now()

	return ctx, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		if err != nil {
			typed := pkgerrors.As(err)
			if typed == nil {
				typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "operation failed")
			}
			typed.ForOperation(operation)
			*errp = typed
			err = typed

			if pkgerrors.MetadataFor(typed.Code()).HTTPStatus >= http.StatusInternalServerError {
				logg.Error(ctx, "operation failed", err)
			} else {
				logg.Info(logg.WithField(ctx, "error_code", string(typed.Code())), typed.Message())
			}
		}
		t.metrics.Observe(operation, time.Since(start), err)
	}
}
