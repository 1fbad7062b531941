package terminal

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const dialTimeout = 5 * time.Second

// LineConn frames the serial-bridge channel into newline-terminated text
// lines, the only unit the terminal firmware understands.
type LineConn struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to the terminal's serial bridge.
func Dial(addr string) (*LineConn, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("terminal: dial %s: %w", addr, err)
	}
	return NewLineConn(conn), nil
}

// NewLineConn wraps an existing connection; tests pass one end of net.Pipe.
func NewLineConn(conn net.Conn) *LineConn {
	return &LineConn{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// ReadLine blocks until the next line or the deadline. A zero deadline
// clears any previous one.
func (c *LineConn) ReadLine(deadline time.Time) (string, error) {
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return "", err
	}
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// WriteLine sends one newline-terminated line.
func (c *LineConn) WriteLine(deadline time.Time, line string) error {
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	_, err := c.conn.Write([]byte(line + "\n"))
	return err
}

// Close closes the underlying connection.
func (c *LineConn) Close() error {
	return c.conn.Close()
}

// parseCardLine decodes the terminal's autonomous "<plate>,<balance>" report.
// The firmware occasionally pads the balance with non-printable bytes, so
// those are stripped before parsing.
func parseCardLine(line string) (string, int64, error) {
	parts := strings.SplitN(line, ",", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("terminal: malformed card line %q", line)
	}

	plate := strings.TrimSpace(parts[0])
	if plate == "" {
		return "", 0, fmt.Errorf("terminal: empty plate in card line %q", line)
	}

	raw := strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return r
		}
		return -1
	}, parts[1])

	balance, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("terminal: invalid balance in card line %q: %w", line, err)
	}
	if balance < 0 {
		return "", 0, fmt.Errorf("terminal: negative balance %d on card", balance)
	}
	return plate, balance, nil
}
