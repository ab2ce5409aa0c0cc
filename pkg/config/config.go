package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	ADC         ADCConfig         `yaml:"adc"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration for the sensor MCU.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// AcquisitionConfig contains the sampling and batching parameters.
type AcquisitionConfig struct {
	SampleInterval time.Duration `yaml:"sample_interval"` // Time between samples (100ms = 10Hz)
	BatchSize      int           `yaml:"batch_size"`      // Samples per averaging batch (also the buffer capacity)
}

// ADCConfig describes the converter on the sensor MCU, used for range
// checks and display conversions on the host.
type ADCConfig struct {
	VRef       float64 `yaml:"vref"`       // Reference voltage (V)
	Resolution int     `yaml:"resolution"` // Resolution in bits (12-bit = 0-4095)
}

// MockConfig contains mock source configuration.
type MockConfig struct {
	Bias       float64       `yaml:"bias"`        // Center of the simulated signal (ADC counts)
	Amplitude  float64       `yaml:"amplitude"`   // Peak deviation of the slow wave (ADC counts)
	Period     time.Duration `yaml:"period"`      // Period of the slow wave
	NoiseLevel float64       `yaml:"noise_level"` // Noise level (ADC counts)
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			BaudRate: 115200,
		},
		Acquisition: AcquisitionConfig{
			SampleInterval: 100 * time.Millisecond, // 10 Hz
			BatchSize:      10,
		},
		ADC: ADCConfig{
			VRef:       3.3,
			Resolution: 12,
		},
		Mock: MockConfig{
			Bias:       2048,
			Amplitude:  512,
			Period:     10 * time.Second,
			NoiseLevel: 8,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MaxCount returns the highest raw value the configured ADC can produce.
func (c *Config) MaxCount() uint16 {
	return uint16(1<<c.ADC.Resolution - 1)
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Acquisition.SampleInterval == 0 {
		c.Acquisition.SampleInterval = def.Acquisition.SampleInterval
	}
	if c.Acquisition.BatchSize == 0 {
		c.Acquisition.BatchSize = def.Acquisition.BatchSize
	}

	if c.ADC.VRef == 0 {
		c.ADC.VRef = def.ADC.VRef
	}
	if c.ADC.Resolution == 0 {
		c.ADC.Resolution = def.ADC.Resolution
	}

	if c.Mock.Bias == 0 {
		c.Mock.Bias = def.Mock.Bias
	}
	if c.Mock.Amplitude == 0 {
		c.Mock.Amplitude = def.Mock.Amplitude
	}
	if c.Mock.Period == 0 {
		c.Mock.Period = def.Mock.Period
	}
	if c.Mock.NoiseLevel == 0 {
		c.Mock.NoiseLevel = def.Mock.NoiseLevel
	}
}
