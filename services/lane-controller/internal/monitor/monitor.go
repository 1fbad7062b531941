package monitor

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"parkgate/services/lane-controller/internal/gate"
	"parkgate/services/lane-controller/internal/models"
	"parkgate/services/lane-controller/internal/store"
)

// Monitor watches physical gate-crossing signals independently of the exit
// flow's success path. A crossing for a plate whose transaction is still
// open means the vehicle left without paying: tailgating or a forced
// barrier. This is the only code path that marks a transaction unauthorized.
type Monitor struct {
	store  store.Store
	gate   gate.Sink
	logger *zap.Logger
}

// New builds monitor.
func New(st store.Store, sink gate.Sink, logger *zap.Logger) *Monitor {
	return &Monitor{
		store:  st,
		gate:   sink,
		logger: logger,
	}
}

// Run consumes the crossing stream until the context is cancelled.
func (m *Monitor) Run(ctx context.Context, crossings <-chan models.GateCrossing) {
	for {
		select {
		case <-ctx.Done():
			return
		case crossing := <-crossings:
			m.Handle(ctx, crossing)
		}
	}
}

// Handle processes one crossing signal. A paid exit also trips the sensor,
// so a closed or missing transaction is the normal case, not an error.
func (m *Monitor) Handle(ctx context.Context, crossing models.GateCrossing) {
	tx, err := m.store.FindOpen(ctx, crossing.Plate)
	if errors.Is(err, store.ErrNotFound) {
		m.logger.Debug("crossing for settled plate", zap.String("plate", crossing.Plate))
		return
	}
	if err != nil {
		m.logger.Error("open transaction lookup failed",
			zap.String("plate", crossing.Plate),
			zap.Error(err),
		)
		return
	}

	err = m.store.CloseUnauthorized(ctx, tx.ID, crossing.CrossedAt)
	if errors.Is(err, store.ErrAlreadyClosed) {
		m.logger.Debug("crossing re-trigger for closed transaction",
			zap.String("plate", crossing.Plate),
			zap.Int64("transaction_id", tx.ID),
		)
		return
	}
	if err != nil {
		m.logger.Error("failed to record unauthorized exit",
			zap.String("plate", crossing.Plate),
			zap.Int64("transaction_id", tx.ID),
			zap.Error(err),
		)
		return
	}

	m.logger.Warn("unauthorized exit",
		zap.String("plate", crossing.Plate),
		zap.Int64("transaction_id", tx.ID),
		zap.Time("crossed_at", crossing.CrossedAt),
	)
	if err := m.gate.Alarm(ctx, crossing.Plate, crossing.CrossedAt); err != nil {
		m.logger.Error("alarm trigger failed", zap.String("plate", crossing.Plate), zap.Error(err))
	}
}
