//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_MS = 1  // ADC read interval in milliseconds
	NUM_SAMPLES        = 20 // Number of reads averaged into one output line

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// ADC pin
	PIN_ADC = machine.A0

	// Serial configuration
	// Format "unix_micros,value\n", e.g. "1234567890123456,4095\n" =
	// ~25 bytes max per line. 50 lines/sec * 25 bytes = 1,250 bytes/sec.
	// UART 8N1: 10 bits/byte = 12,500 baud minimum; 115200 gives ample
	// headroom.
	UART_BAUD_RATE = 115200
)
