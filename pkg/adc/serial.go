package adc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

const (
	// DefaultBaudRate is the standard baud rate for the sensor MCU.
	DefaultBaudRate = 115200
)

// Reading is a single parsed line from the MCU.
type Reading struct {
	Timestamp time.Time
	Value     uint16 // Raw ADC counts
}

// Serial reads the sensor MCU's line stream and keeps the most recent
// value available through Read. The MCU pushes readings at its own rate;
// the host samples the latest one on each acquisition tick, so Read never
// blocks on the port.
type Serial struct {
	port     string
	baudRate int
	maxCount uint16
	logger   *zap.Logger

	conn      serial.Port
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	latest   Reading
	haveData bool
}

// NewSerial creates a new Serial source for the given port. maxCount is
// the highest raw value the MCU's converter can produce (4095 for 12-bit).
func NewSerial(port string, baudRate int, maxCount uint16, logger *zap.Logger) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		maxCount: maxCount,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Connect opens the serial port and starts the line reader.
func (s *Serial) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: s.baudRate,
	}

	port, err := serial.Open(s.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}

	s.conn = port
	s.connected = true

	go s.readLines()

	return nil
}

// Close stops the reader and closes the port. Safe to call more than once.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	s.cancel()

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.logger.Warn("[adc] error closing serial port", zap.Error(err), zap.String("port", s.port))
		}
		s.conn = nil
	}

	s.connected = false

	return nil
}

// Read returns the most recent value received from the MCU. Returns
// ErrNoSample until the first line has been parsed.
func (s *Serial) Read() (uint16, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return 0, fmt.Errorf("not connected")
	}
	if !s.haveData {
		return 0, ErrNoSample
	}
	return s.latest.Value, nil
}

// Latest returns the most recent reading with its timestamp.
func (s *Serial) Latest() (Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.haveData
}

// IsConnected returns whether the source is currently connected.
func (s *Serial) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// readLines reads lines from the serial port and stores the latest value.
func (s *Serial) readLines() {
	scanner := bufio.NewScanner(s.conn)
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					s.logger.Warn("[adc] error reading from serial port", zap.Error(err), zap.String("port", s.port))
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			reading, err := parseLine(line, s.maxCount)
			if err != nil {
				s.logger.Warn("[adc] failed to parse line", zap.Error(err), zap.String("line", line))
				continue
			}

			s.mu.Lock()
			s.latest = reading
			s.haveData = true
			s.mu.Unlock()
		}
	}
}

// parseLine parses a line from the MCU into a Reading.
// Format: unix_micros,value
// Example: 1234567890123,2048
func parseLine(line string, maxCount uint16) (Reading, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return Reading{}, fmt.Errorf("invalid line format: expected 2 comma-separated values, got %d", len(parts))
	}

	// Parse timestamp (unix microseconds)
	timestampMicros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	timestamp := time.Unix(0, timestampMicros*1000)

	// Parse the raw converter value
	value, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid value: %w", err)
	}
	if uint16(value) > maxCount {
		return Reading{}, fmt.Errorf("value out of range: %d (max %d)", value, maxCount)
	}

	return Reading{
		Timestamp: timestamp,
		Value:     uint16(value),
	}, nil
}
