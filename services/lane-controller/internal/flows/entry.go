package flows

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"parkgate/services/lane-controller/internal/gate"
	"parkgate/services/lane-controller/internal/models"
	"parkgate/services/lane-controller/internal/store"
)

// EntryController turns accepted entry-lane detections into open
// transactions and gate-open triggers. It processes one vehicle at a time.
type EntryController struct {
	store  store.Store
	gate   gate.Sink
	logger *zap.Logger
}

// NewEntryController builds controller.
func NewEntryController(st store.Store, sink gate.Sink, logger *zap.Logger) *EntryController {
	return &EntryController{
		store:  st,
		gate:   sink,
		logger: logger,
	}
}

// Run consumes the detection stream until the context is cancelled.
func (c *EntryController) Run(ctx context.Context, detections <-chan models.Detection) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-detections:
			c.Handle(ctx, event)
		}
	}
}

// Handle processes one entry detection. Entry fails open: a bookkeeping
// anomaly is worth a warning, not a blocked barrier.
func (c *EntryController) Handle(ctx context.Context, event models.Detection) {
	id, err := c.store.Open(ctx, event.Plate, event.DetectedAt)
	switch {
	case errors.Is(err, store.ErrDuplicateOpen):
		c.logger.Warn("re-entry with an open transaction, newest record is now authoritative",
			zap.String("plate", event.Plate),
			zap.Int64("transaction_id", id),
		)
	case err != nil:
		c.logger.Error("failed to record entry, gate stays closed",
			zap.String("plate", event.Plate),
			zap.Error(err),
		)
		return
	default:
		c.logger.Info("entry recorded",
			zap.String("plate", event.Plate),
			zap.Int64("transaction_id", id),
			zap.Time("entry_time", event.DetectedAt),
		)
	}

	if err := c.gate.OpenEntry(ctx, event.Plate, event.DetectedAt); err != nil {
		c.logger.Error("entry gate trigger failed", zap.String("plate", event.Plate), zap.Error(err))
	}
}
