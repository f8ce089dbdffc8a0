// Package delay implements the delay action. The wait is cooperative: it
// parks the run's goroutine on a timer and wakes early if the dispatch
// context is cancelled, in which case the run ends as cancelled.
package delay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

type DelayAction struct {
	params models.DelayParams
}

func NewDelayAction(raw map[string]any) (*DelayAction, error) {
	var params models.DelayParams

	err := models.DecodeParams(raw, &params)
	if err != nil {
		return nil, err
	}

	if params.DurationMs <= 0 {
		return nil, fmt.Errorf("delay action requires a positive duration_ms")
	}

	return &DelayAction{params: params}, nil
}

func (a *DelayAction) Execute(ctx context.Context, execCtx protocol.ExecutionContext, logger *slog.Logger) (any, error) {
	duration := time.Duration(a.params.DurationMs) * time.Millisecond

	logger.Debug("Delaying run", "run_id", execCtx.RunID, "duration_ms", a.params.DurationMs)

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return map[string]any{"delayed_ms": a.params.DurationMs}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
