package terminal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"parkgate/services/lane-controller/internal/models"
)

const (
	tokenReady = "READY"
	tokenDone  = "DONE"
	tokenDeny  = "I"

	defaultCardWait   = 30 * time.Second
	defaultAckTimeout = 10 * time.Second
)

// Client drives the balance-check-and-deduct exchange with the payment
// terminal firmware. One Client owns one serial-bridge channel; the exit
// flow calls it one vehicle at a time.
type Client struct {
	conn       *LineConn
	cardWait   time.Duration
	ackTimeout time.Duration
	logger     *zap.Logger
}

// NewClient builds client. cardWait bounds how long a driver has to present
// a card; ackTimeout is the terminal's own decision window, fixed at 10s in
// the reference firmware.
func NewClient(conn *LineConn, cardWait, ackTimeout time.Duration, logger *zap.Logger) *Client {
	if cardWait <= 0 {
		cardWait = defaultCardWait
	}
	if ackTimeout <= 0 {
		ackTimeout = defaultAckTimeout
	}
	return &Client{
		conn:       conn,
		cardWait:   cardWait,
		ackTimeout: ackTimeout,
		logger:     logger,
	}
}

// Collect runs one complete handshake for the given transaction plate and
// fare. It never retries the balance write: an ambiguous acknowledgment
// resolves as Timeout and the caller treats the fare as uncollected.
func (c *Client) Collect(ctx context.Context, plate string, feeDue int64) Outcome {
	sess := NewSession(plate, feeDue)
	_ = sess.Transition(StateAwaitCardData)

	outcome := c.run(ctx, sess)
	_ = sess.Transition(StateResolved)

	c.logger.Info("payment session resolved",
		zap.String("session_id", sess.ID),
		zap.String("plate", plate),
		zap.String("outcome", outcome.Kind.String()),
		zap.Int64("fee_due", feeDue),
		zap.String("reason", outcome.Reason),
	)
	return outcome
}

func (c *Client) run(ctx context.Context, sess *Session) Outcome {
	// The terminal autonomously reports "<plate>,<balance>" when a card is
	// presented. No card within the grace window denies the exit.
	line, err := c.readSkippingChatter(ctx, time.Now().Add(c.cardWait))
	if err != nil {
		if isTimeout(err) {
			return Outcome{Kind: OutcomeNoCard, Reason: "no card presented"}
		}
		return Outcome{Kind: OutcomeMalformed, Reason: fmt.Sprintf("card read failed: %v", err)}
	}

	cardPlate, balance, err := parseCardLine(line)
	if err != nil {
		return Outcome{Kind: OutcomeMalformed, Reason: err.Error()}
	}
	sess.BalanceAtRead = balance

	if err := sess.Transition(StateAwaitReady); err != nil {
		return Outcome{Kind: OutcomeMalformed, Reason: err.Error()}
	}

	ready, err := c.readSkippingChatter(ctx, time.Now().Add(c.ackTimeout))
	if err != nil || ready != tokenReady {
		if err != nil && isTimeout(err) {
			return Outcome{Kind: OutcomeTimeout, Reason: "terminal did not announce readiness"}
		}
		return Outcome{Kind: OutcomeMalformed, Reason: fmt.Sprintf("expected %s, got %q", tokenReady, ready)}
	}

	// The firmware holds the card for a fixed window after READY; both the
	// decision and the ack must land inside it.
	sess.Deadline = time.Now().Add(c.ackTimeout)

	if models.NormalizePlate(cardPlate) != models.NormalizePlate(sess.Plate) {
		c.deny(sess)
		return Outcome{
			Kind:   OutcomeCardMismatch,
			Reason: fmt.Sprintf("card is registered to %s, vehicle is %s", cardPlate, sess.Plate),
		}
	}

	if balance < sess.FeeDue {
		c.deny(sess)
		return Outcome{
			Kind:   OutcomeInsufficientBalance,
			Reason: fmt.Sprintf("insufficient balance: need %d, card holds %d", sess.FeeDue, balance),
		}
	}

	newBalance := balance - sess.FeeDue
	if err := c.conn.WriteLine(sess.Deadline, strconv.FormatInt(newBalance, 10)); err != nil {
		return Outcome{Kind: OutcomeTimeout, Reason: fmt.Sprintf("balance write failed: %v", err)}
	}
	if err := sess.Transition(StateAwaitWriteAck); err != nil {
		return Outcome{Kind: OutcomeMalformed, Reason: err.Error()}
	}

	ack, err := c.readSkippingChatter(ctx, sess.Deadline)
	if err != nil || ack != tokenDone {
		// The write is never reissued; a second attempt after an ambiguous
		// ack could deduct the fare twice.
		return Outcome{Kind: OutcomeTimeout, Reason: "no response from terminal"}
	}

	return Outcome{Kind: OutcomePaid, Amount: sess.FeeDue, NewBalance: newBalance}
}

func (c *Client) deny(sess *Session) {
	if err := c.conn.WriteLine(sess.Deadline, tokenDeny); err != nil {
		c.logger.Warn("failed to send denial token",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	}
}

// readSkippingChatter returns the next protocol line, dropping the bracketed
// debug chatter the firmware interleaves on the same channel.
func (c *Client) readSkippingChatter(ctx context.Context, deadline time.Time) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line, err := c.conn.ReadLine(deadline)
		if err != nil {
			return "", err
		}
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		return line, nil
	}
}

// RegisterCard issues the out-of-band W command that writes a plate and an
// opening balance onto a blank card. Returns the terminal's response line.
func (c *Client) RegisterCard(ctx context.Context, plate string, balance int64) (string, error) {
	if balance < 0 {
		return "", errors.New("terminal: opening balance must not be negative")
	}

	payload, err := json.Marshal(struct {
		Plate   string `json:"plate"`
		Balance int64  `json:"balance"`
	}{Plate: models.NormalizePlate(plate), Balance: balance})
	if err != nil {
		return "", err
	}

	deadline := time.Now().Add(c.ackTimeout)
	if err := c.conn.WriteLine(deadline, "W"+string(payload)); err != nil {
		return "", fmt.Errorf("terminal: send register command: %w", err)
	}
	return c.readSkippingChatter(ctx, deadline)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
