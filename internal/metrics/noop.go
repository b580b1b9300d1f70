package metrics

import (
	"context"
	"time"
)

// Noop discards all metrics.
type Noop struct{}

func (Noop) RecordAttempt(context.Context, string, string) {}

func (Noop) RecordCompletion(context.Context, string, string, time.Duration) {}

func (Noop) RecordRequest(context.Context, string, int, time.Duration) {}
