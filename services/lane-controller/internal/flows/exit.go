package flows

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"parkgate/services/lane-controller/internal/fees"
	"parkgate/services/lane-controller/internal/gate"
	"parkgate/services/lane-controller/internal/models"
	"parkgate/services/lane-controller/internal/store"
	"parkgate/services/lane-controller/internal/terminal"
)

// PaymentCollector runs one payment handshake for a vehicle at the exit
// gate. Satisfied by *terminal.Client.
type PaymentCollector interface {
	Collect(ctx context.Context, plate string, feeDue int64) terminal.Outcome
}

// ExitController matches exit-lane detections against open transactions,
// drives the payment handshake, and authorizes the gate only on a confirmed
// payment. Every other outcome fails closed and leaves the transaction open
// for the next attempt.
type ExitController struct {
	store     store.Store
	gate      gate.Sink
	collector PaymentCollector
	fees      fees.Calculator
	logger    *zap.Logger
	now       func() time.Time
}

// NewExitController builds controller.
func NewExitController(st store.Store, sink gate.Sink, collector PaymentCollector, calc fees.Calculator, logger *zap.Logger) *ExitController {
	return &ExitController{
		store:     st,
		gate:      sink,
		collector: collector,
		fees:      calc,
		logger:    logger,
		now:       time.Now,
	}
}

// Run consumes the detection stream until the context is cancelled.
func (c *ExitController) Run(ctx context.Context, detections <-chan models.Detection) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-detections:
			c.Handle(ctx, event)
		}
	}
}

// Handle processes one exit detection end to end. A failed handshake is an
// isolated denial, never a controller failure.
func (c *ExitController) Handle(ctx context.Context, event models.Detection) {
	tx, err := c.store.FindOpen(ctx, event.Plate)
	if errors.Is(err, store.ErrNotFound) {
		c.logger.Warn("exit attempt with no recorded entry, access denied",
			zap.String("plate", event.Plate),
		)
		return
	}
	if err != nil {
		c.logger.Error("open transaction lookup failed, access denied",
			zap.String("plate", event.Plate),
			zap.Error(err),
		)
		return
	}

	exitTime := c.now().UTC()
	feeDue, err := c.fees.Fee(tx.EntryTime, exitTime)
	if err != nil {
		c.logger.Error("fee calculation failed, access denied",
			zap.String("plate", event.Plate),
			zap.Time("entry_time", tx.EntryTime),
			zap.Time("exit_time", exitTime),
			zap.Error(err),
		)
		return
	}

	outcome := c.collector.Collect(ctx, event.Plate, feeDue)
	if !outcome.Authorized() {
		// Transaction stays open and unpaid; the monitor watches the gate
		// for a forced crossing from here on.
		c.logger.Info("exit denied, payment pending",
			zap.String("plate", event.Plate),
			zap.Int64("transaction_id", tx.ID),
			zap.String("outcome", outcome.Kind.String()),
			zap.String("reason", outcome.Reason),
		)
		return
	}

	paidAt := c.now().UTC()
	err = c.store.ClosePaid(ctx, tx.ID, paidAt, outcome.Amount)
	switch {
	case errors.Is(err, store.ErrAlreadyClosed):
		c.logger.Info("duplicate exit event for closed transaction",
			zap.String("plate", event.Plate),
			zap.Int64("transaction_id", tx.ID),
		)
	case err != nil:
		// The card was already debited; the money must not be lost to a
		// bookkeeping failure, so the vehicle still leaves.
		c.logger.Error("payment collected but exit not recorded",
			zap.String("plate", event.Plate),
			zap.Int64("transaction_id", tx.ID),
			zap.Int64("amount", outcome.Amount),
			zap.Error(err),
		)
	default:
		c.logger.Info("paid exit recorded",
			zap.String("plate", event.Plate),
			zap.Int64("transaction_id", tx.ID),
			zap.Int64("amount", outcome.Amount),
			zap.Int64("new_balance", outcome.NewBalance),
		)
	}

	if err := c.gate.OpenExit(ctx, event.Plate, paidAt); err != nil {
		c.logger.Error("exit gate trigger failed", zap.String("plate", event.Plate), zap.Error(err))
	}
}
