package history

import (
	"context"
	"time"

	dglerrors "github.com/msto63/dglrechner/pkg/core/errors"
	"github.com/msto63/dglrechner/pkg/core/logging"
)

// Recorder writes entries on a best-effort basis. A failing store never
// fails the solve that produced the entry.
type Recorder struct {
	store   Store
	log     *logging.Logger
	timeout time.Duration
}

// NewRecorder wraps store. A nil store makes every Record a no-op.
func NewRecorder(store Store, log *logging.Logger) *Recorder {
	if log == nil {
		log = logging.Discard()
	}
	return &Recorder{store: store, log: log, timeout: 2 * time.Second}
}

// Enabled reports whether entries are persisted
func (r *Recorder) Enabled() bool {
	return r != nil && r.store != nil
}

// Record stores e, filling Error and ErrorCode from solveErr
func (r *Recorder) Record(ctx context.Context, e *Entry, solveErr error) {
	if !r.Enabled() {
		return
	}
	if solveErr != nil {
		e.Error = solveErr.Error()
		e.ErrorCode = string(dglerrors.CodeOf(solveErr))
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if err := r.store.Record(ctx, e); err != nil {
		r.log.Warn("Verlauf konnte nicht gespeichert werden", "error", err.Error())
	}
}
