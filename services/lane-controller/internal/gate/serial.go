package gate

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Command bytes understood by the gate controller board.
const (
	cmdOpen  = '1'
	cmdClose = '0'
	cmdAlarm = '2'
)

const (
	dialTimeout  = 5 * time.Second
	writeTimeout = 3 * time.Second
	defaultHold  = 15 * time.Second
)

// SerialSink drives the barrier and buzzer through a serial bridge. The gate
// is held open for the configured duration, then closed from a background
// timer so the flow controller never blocks on gate travel.
type SerialSink struct {
	mu     sync.Mutex
	conn   net.Conn
	hold   time.Duration
	logger *zap.Logger
}

// DialSerial connects to the gate controller bridge.
func DialSerial(addr string, hold time.Duration, logger *zap.Logger) (*SerialSink, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("gate: dial %s: %w", addr, err)
	}
	return NewSerialSink(conn, hold, logger), nil
}

// NewSerialSink wraps an existing connection; tests pass one end of net.Pipe.
func NewSerialSink(conn net.Conn, hold time.Duration, logger *zap.Logger) *SerialSink {
	if hold <= 0 {
		hold = defaultHold
	}
	return &SerialSink{
		conn:   conn,
		hold:   hold,
		logger: logger,
	}
}

func (s *SerialSink) write(cmd byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := s.conn.Write([]byte{cmd, '\n'})
	return err
}

func (s *SerialSink) open(signal, plate string, at time.Time) error {
	if err := s.write(cmdOpen); err != nil {
		return fmt.Errorf("gate: %s for %s: %w", signal, plate, err)
	}
	s.logger.Info("gate signal",
		zap.String("signal", signal),
		zap.String("plate", plate),
		zap.Time("at", at),
	)

	time.AfterFunc(s.hold, func() {
		if err := s.write(cmdClose); err != nil {
			s.logger.Error("failed to close gate", zap.String("plate", plate), zap.Error(err))
		}
	})
	return nil
}

// OpenEntry implements Sink.
func (s *SerialSink) OpenEntry(ctx context.Context, plate string, at time.Time) error {
	return s.open(SignalOpenEntryGate, plate, at)
}

// OpenExit implements Sink.
func (s *SerialSink) OpenExit(ctx context.Context, plate string, at time.Time) error {
	return s.open(SignalOpenExitGate, plate, at)
}

// Alarm implements Sink.
func (s *SerialSink) Alarm(ctx context.Context, plate string, at time.Time) error {
	if err := s.write(cmdAlarm); err != nil {
		return fmt.Errorf("gate: %s for %s: %w", SignalSoundAlarm, plate, err)
	}
	s.logger.Warn("gate signal",
		zap.String("signal", SignalSoundAlarm),
		zap.String("plate", plate),
		zap.Time("at", at),
	)
	return nil
}

// Close closes the bridge connection.
func (s *SerialSink) Close() error {
	return s.conn.Close()
}
