// Command daqd runs the acquisition pipeline headless and serves the
// command console on stdin/stdout (or a serial port with -console-port).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/daqforge/godaq/pkg/adc"
	"github.com/daqforge/godaq/pkg/config"
	"github.com/daqforge/godaq/pkg/console"
	"github.com/daqforge/godaq/pkg/daq"
)

func main() {
	var (
		portFlag        = flag.String("p", "", "Serial port override for the sensor MCU (e.g., COM3 or /dev/ttyACM0)")
		configFlag      = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag        = flag.Bool("mock", false, "Use mocked source instead of serial port")
		batchFlag       = flag.Int("batch", 0, "Samples per averaging batch (overrides config)")
		consolePortFlag = flag.String("console-port", "", "Serve the console on this serial port instead of stdin/stdout")
	)
	flag.Parse()

	// Log to stderr so the console dialogue on stdout stays clean.
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *batchFlag > 0 {
		cfg.Acquisition.BatchSize = *batchFlag
	}

	var source adc.Source
	if *mockFlag {
		source = adc.NewMock(&cfg.Mock, cfg.MaxCount())
		logger.Info("using mocked source")
	} else {
		source = adc.NewSerial(cfg.Serial.Port, cfg.Serial.BaudRate, cfg.MaxCount(), logger)
	}

	if err := source.Connect(); err != nil {
		logger.Fatal("failed to connect source", zap.Error(err), zap.String("port", cfg.Serial.Port))
	}
	defer source.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	pipeline := daq.New(&cfg.Acquisition, source, logger)
	go pipeline.Run(ctx)

	in, out, closeConsole, err := consoleStreams(*consolePortFlag)
	if err != nil {
		logger.Fatal("failed to open console port", zap.Error(err), zap.String("port", *consolePortFlag))
	}
	if closeConsole != nil {
		defer closeConsole()
	}

	fmt.Fprintln(out, "--- godaq acquisition console ---")

	cons := console.New(in, out, pipeline.Average, logger)
	go func() {
		if err := cons.Run(ctx); err != nil {
			logger.Error("console failed", zap.Error(err))
		}
		cancel()
	}()

	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	cancel()

	// Give the pipeline a moment to log its final stats.
	time.Sleep(100 * time.Millisecond)
}

// consoleStreams returns the reader/writer pair for the console: a serial
// port when one is named, stdin/stdout otherwise.
func consoleStreams(portName string) (io.Reader, io.Writer, func() error, error) {
	if portName == "" {
		return os.Stdin, os.Stdout, nil, nil
	}

	port, err := serial.Open(portName, &serial.Mode{BaudRate: adc.DefaultBaudRate})
	if err != nil {
		return nil, nil, nil, err
	}
	return port, port, port.Close, nil
}
