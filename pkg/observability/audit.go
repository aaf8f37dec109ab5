package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/sticky/pkg/domain"
)

// AuditHooks returns lifecycle hooks writing every event to logger.
// State events are logged at Debug, applied transitions at Info, failures at Warn.
func AuditHooks(logger *slog.Logger) domain.LifecycleHooks {
	state := func(ctx context.Context, e *domain.StateEvent) {
		logger.DebugContext(ctx, "state "+string(e.Type),
			"state", e.State,
			"instance_id", e.InstanceID,
			"sticky", e.Sticky,
		)
	}
	return domain.LifecycleHooks{
		OnEnter:   state,
		OnPark:    state,
		OnResume:  state,
		OnDiscard: state,
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			if e.Type != domain.EventTransitionEnd {
				return
			}
			attrs := []any{"from", e.From, "to", e.To, "duration", e.Duration}
			if e.Plan != nil {
				attrs = append(attrs, "plan", e.Plan.String())
			}
			if e.Err != nil {
				logger.WarnContext(ctx, "transition failed", append(attrs, "error", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "transition", attrs...)
		},
	}
}
