package frame

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TickerHost is a Host backed by a time.Ticker. Frames fire on the goroutine
// that calls Run, one tick at a time.
type TickerHost struct {
	interval time.Duration
	logger   *zap.Logger
	reqs     requests
}

// NewTickerHost creates a TickerHost firing every interval. A nil logger
// disables logging.
func NewTickerHost(interval time.Duration, logger *zap.Logger) *TickerHost {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := new(TickerHost)
	h.interval = interval
	h.logger = logger
	return h
}

// IntervalForRate converts a frame rate in frames per second to a tick interval.
func IntervalForRate(frameRate float64) time.Duration {
	if frameRate <= 0 {
		return NominalDelta
	}
	return time.Duration(float64(time.Second) / frameRate)
}

// RequestFrame registers fn for the next tick.
func (h *TickerHost) RequestFrame(fn func(timestamp time.Duration)) Handle {
	return h.reqs.add(fn)
}

// CancelFrame drops a pending request. Unknown handles are ignored.
func (h *TickerHost) CancelFrame(handle Handle) {
	h.reqs.cancel(handle)
}

// Run fires pending requests on every tick until ctx is done. Timestamps are
// measured from the start of Run.
func (h *TickerHost) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Info("frame host started", zap.Duration("interval", h.interval))
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("frame host stopped")
			return ctx.Err()
		case now := <-ticker.C:
			began := time.Now()
			h.reqs.fire(now.Sub(start))
			if took := time.Since(began); took > h.interval {
				h.logger.Debug("frame overran interval",
					zap.Duration("took", took), zap.Duration("interval", h.interval))
			}
		}
	}
}
