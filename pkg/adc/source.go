package adc

import "errors"

// ErrNoSample is returned by Read before the first value has arrived from
// the hardware.
var ErrNoSample = errors.New("adc: no sample received yet")

// Source defines the interface for analog inputs (real or mocked). Read
// returns the most recent raw converter value and must never block, since
// the acquisition tick calls it on a strict budget.
type Source interface {
	Connect() error
	Close() error
	Read() (uint16, error)
	IsConnected() bool
}

// Ensure Serial implements Source.
var _ Source = (*Serial)(nil)

// Ensure Mock implements Source.
var _ Source = (*Mock)(nil)
