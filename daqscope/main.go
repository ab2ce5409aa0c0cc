// Command daqscope shows the acquisition pipeline live: the raw sample
// trace and the published batch average on an oscillogram widget.
package main

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/daqforge/godaq/pkg/adc"
	"github.com/daqforge/godaq/pkg/config"
	"github.com/daqforge/godaq/pkg/daq"
	"github.com/daqforge/godaq/pkg/scope"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked source instead of serial port")
	)
	flag.Parse()

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

	application := app.NewWithID("com.daqforge.godaq")

	window := application.NewWindow("godaq scope")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:     cfg,
		logger:  logger,
		window:  window,
		useMock: *mockFlag,
	}

	scopeWidget := scope.New(cfg)
	state.scopeWidget = scopeWidget

	toolbar := createToolbar(state)

	content := container.NewBorder(
		toolbar,
		nil,
		nil,
		nil,
		scopeWidget,
	)

	window.SetContent(content)
	window.ShowAndRun()

	// Window closed: stop a still-running pipeline.
	state.disconnect()
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	logger      *zap.Logger
	window      fyne.Window
	scopeWidget *scope.Widget
	avgLabel    *widget.Label
	connectBtn  *widget.Button
	useMock     bool

	source   adc.Source
	pipeline *daq.Pipeline
	cancel   context.CancelFunc
	done     chan struct{}

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the toolbar with the connect button and the live
// average readout.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	avgLabel := widget.NewLabel("Average: --")
	state.avgLabel = avgLabel

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn),
		avgLabel,
		nil,
	)
}

// handleConnect toggles the acquisition pipeline.
func handleConnect(state *appState) {
	if state.pipeline != nil {
		state.disconnect()
		state.avgLabel.SetText("Average: --")
		return
	}

	var source adc.Source
	if state.useMock {
		source = adc.NewMock(&state.cfg.Mock, state.cfg.MaxCount())
	} else {
		source = adc.NewSerial(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, state.cfg.MaxCount(), state.logger)
	}

	if err := source.Connect(); err != nil {
		dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		return
	}
	state.source = source

	pipeline := daq.New(&state.cfg.Acquisition, source, state.logger)
	state.pipeline = pipeline

	// Throttle scope updates so a fast sample rate cannot overwhelm
	// the UI thread.
	const updateInterval = 16 * time.Millisecond // ~60 FPS
	pipeline.OnSample(func(v uint16) {
		state.updateMu.Lock()
		now := time.Now()
		throttled := now.Sub(state.lastUpdateTime) < updateInterval
		if !throttled {
			state.lastUpdateTime = now
		}
		state.updateMu.Unlock()
		if throttled {
			return
		}

		fyne.Do(func() {
			state.scopeWidget.AddSample(now, v)
		})
	})

	pipeline.OnPublish(func(avg float64) {
		fyne.Do(func() {
			state.scopeWidget.SetAverage(avg)
			state.avgLabel.SetText(fmt.Sprintf("Average: %.2f", avg))
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	state.cancel = cancel
	state.done = done
	go func() {
		defer close(done)
		pipeline.Run(ctx)
	}()
}

// disconnect stops the pipeline and closes the source. Safe to call when
// nothing is running.
func (s *appState) disconnect() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
		s.cancel = nil
		s.done = nil
	}
	if s.source != nil {
		s.source.Close()
		s.source = nil
	}
	s.pipeline = nil
}
