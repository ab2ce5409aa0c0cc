// Package console implements the line-oriented command interface. It
// echoes every byte it receives and answers the "avg" command with the
// most recently published batch average. It attaches to any reader/writer
// pair: stdin/stdout, a serial port, or a test buffer.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

const (
	// maxLineLen bounds the command line buffer; input beyond it is
	// echoed but not stored.
	maxLineLen = 255

	avgCommand = "avg"
)

// Console echoes input and reports the published average on demand.
type Console struct {
	in      io.Reader
	out     io.Writer
	average func() float64
	logger  *zap.Logger
}

// New creates a console reading commands from in and writing echoes and
// replies to out. average is polled when the avg command is received;
// the value is a wholesale-published snapshot, so no locking is needed
// here.
func New(in io.Reader, out io.Writer, average func() float64, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{
		in:      in,
		out:     out,
		average: average,
		logger:  logger,
	}
}

// Run processes input until ctx is cancelled, the reader hits EOF, or a
// write fails. Cancellation takes effect at the next input byte, since
// the read itself blocks.
func (c *Console) Run(ctx context.Context) error {
	reader := bufio.NewReader(c.in)
	line := make([]byte, 0, maxLineLen)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("[console] stopping")
			return nil
		default:
		}

		b, err := reader.ReadByte()
		if err != nil {
			if err == io.EOF {
				c.logger.Info("[console] input closed")
				return nil
			}
			return fmt.Errorf("console read: %w", err)
		}

		// Echo every byte as received.
		if _, err := c.out.Write([]byte{b}); err != nil {
			return fmt.Errorf("console echo: %w", err)
		}

		if b == '\n' || b == '\r' {
			if string(line) == avgCommand {
				if _, err := fmt.Fprintf(c.out, "Average: %.2f\n", c.average()); err != nil {
					return fmt.Errorf("console write: %w", err)
				}
			}
			// Unrecognized lines produce no output beyond the echo.
			line = line[:0]
			continue
		}

		if len(line) < maxLineLen-1 {
			line = append(line, b)
		}
	}
}
