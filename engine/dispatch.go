package engine

import (
	"context"
	"errors"

	"seasonkit/core"
)

// ProcessEngagement fans a generic engagement signal out to every active
// event definition's OnEngagement hook, sequentially in registry order.
// A hook failure is attributed to its event and does not stop the fan-out;
// there is no cross-hook transaction, so earlier hooks' side effects stand.
func (e *Engine) ProcessEngagement(ctx context.Context, signal core.EngagementSignal) error {
	now := e.clock.Now()
	ec := core.EngagementContext{Signal: signal, Cosmetics: e.store}

	var errs []error
	for _, def := range e.registry.Active(now) {
		if def.OnEngagement == nil {
			continue
		}
		if err := def.OnEngagement(ctx, ec); err != nil {
			e.metrics.HookError("onEngagement")
			e.log.Error("engagement hook failed", "event", def.Name, "error", err)
			errs = append(errs, hookErr(def.Name, "onEngagement", err))
		}
	}

	e.metrics.EngagementDispatched()
	e.bus.Publish(ctx, core.NewEngagementProcessed(signal.Type, signal.UserID))
	return errors.Join(errs...)
}
