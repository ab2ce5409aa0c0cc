//go:generate tinygo flash -target=xiao

//go:build tinygo

package main

import (
	"machine"
	"time"
)

var (
	adcInput machine.ADC
	uart     = machine.UART0

	// ADC averaging - running sum and count
	readingSum   uint32
	readingCount int // Current count of reads (resets after NUM_SAMPLES)

	// Timing
	lastADCRead time.Time
)

func main() {
	// Configure ADC pin with highest resolution
	PIN_ADC.Configure(machine.PinConfig{Mode: machine.PinInput})

	adcInput = machine.ADC{Pin: PIN_ADC}
	adcInput.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	// Configure UART for the host link
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	// Initialize timing
	lastADCRead = time.Now()

	// Main loop
	for {
		now := time.Now()

		// Read the ADC every SAMPLE_INTERVAL_MS
		if now.Sub(lastADCRead) >= time.Duration(SAMPLE_INTERVAL_MS)*time.Millisecond {
			readADC()
			lastADCRead = now
		}

		// After NUM_SAMPLES reads, output one averaged line
		if readingCount >= NUM_SAMPLES {
			outputAveragedValue()
			// Reset and start accumulating again
			readingSum = 0
			readingCount = 0
		}

		// Small delay to prevent tight loop (but still allow precise timing)
		time.Sleep(100 * time.Microsecond)
	}
}

func readADC() {
	value := adcInput.Get()
	readingSum += uint32(value)
	readingCount++
}

func outputAveragedValue() {
	n := readingCount
	if n > NUM_SAMPLES {
		n = NUM_SAMPLES
	}
	if n == 0 {
		n = 1 // Avoid division by zero
	}
	avg := uint16(readingSum / uint32(n))

	// Get timestamp in unix microseconds
	timestampMicros := time.Now().UnixNano() / 1000

	// Output format: "unix_micros,value\n"
	// Example: "1234567890123,2048\n"
	print(timestampMicros)
	print(",")
	print(avg)
	print("\n")
}
