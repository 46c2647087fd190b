package publication

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// compensationTimeout bounds the local reverts after a failed step. The
// usual reason to compensate is that the operation deadline expired inside
// a remote write, so compensation cannot run under the caller's context.
const compensationTimeout = 10 * time.Second

// step is one stage of a publication saga. forward performs the stage;
// compensate undoes its local effects given the error that aborted the
// saga. Stages whose effects are idempotent upserts leave compensate nil.
type step struct {
	name       string
	forward    func(ctx context.Context) error
	compensate func(ctx context.Context, cause error) error
}

// runSaga executes the steps in order. When a step fails, the already
// completed steps are compensated in reverse order and the original error
// is returned. Compensation failures are logged but never mask the cause;
// the upsert keys make a later retry safe either way.
func runSaga(ctx context.Context, logger *zap.Logger, steps []step) error {
	for i, s := range steps {
		err := s.forward(ctx)
		if err == nil {
			continue
		}
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
		for j := i - 1; j >= 0; j-- {
			prev := steps[j]
			if prev.compensate == nil {
				continue
			}
			if cerr := prev.compensate(cctx, err); cerr != nil {
				logger.Error("saga compensation failed",
					zap.String("step", prev.name),
					zap.Error(cerr),
					zap.NamedError("cause", err))
			}
		}
		cancel()
		return err
	}
	return nil
}
