package gate

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Signal names, logged with plate and timestamp for the audit trail.
const (
	SignalOpenEntryGate = "OPEN_ENTRY_GATE"
	SignalOpenExitGate  = "OPEN_EXIT_GATE"
	SignalSoundAlarm    = "SOUND_ALARM"
)

// Sink receives the discrete gate and alarm triggers the flows produce.
// Physical motor control lives behind it.
type Sink interface {
	OpenEntry(ctx context.Context, plate string, at time.Time) error
	OpenExit(ctx context.Context, plate string, at time.Time) error
	Alarm(ctx context.Context, plate string, at time.Time) error
}

// LogSink records signals on the audit log without driving hardware. It is
// the default when no gate bridge address is configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink returns log-only sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) audit(signal, plate string, at time.Time) {
	s.logger.Info("gate signal",
		zap.String("signal", signal),
		zap.String("plate", plate),
		zap.Time("at", at),
	)
}

// OpenEntry implements Sink.
func (s *LogSink) OpenEntry(ctx context.Context, plate string, at time.Time) error {
	s.audit(SignalOpenEntryGate, plate, at)
	return nil
}

// OpenExit implements Sink.
func (s *LogSink) OpenExit(ctx context.Context, plate string, at time.Time) error {
	s.audit(SignalOpenExitGate, plate, at)
	return nil
}

// Alarm implements Sink.
func (s *LogSink) Alarm(ctx context.Context, plate string, at time.Time) error {
	s.audit(SignalSoundAlarm, plate, at)
	return nil
}
