package adc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Reading
		wantErr bool
	}{
		{
			name: "valid line",
			line: "1234567890123,2048",
			want: Reading{
				Timestamp: time.Unix(0, 1234567890123*1000),
				Value:     2048,
			},
			wantErr: false,
		},
		{
			name: "valid line - zero value",
			line: "1234567890123,0",
			want: Reading{
				Timestamp: time.Unix(0, 1234567890123*1000),
				Value:     0,
			},
			wantErr: false,
		},
		{
			name: "valid line - max ADC value",
			line: "1234567890123,4095",
			want: Reading{
				Timestamp: time.Unix(0, 1234567890123*1000),
				Value:     4095,
			},
			wantErr: false,
		},
		{
			name:    "invalid - missing value",
			line:    "1234567890123",
			wantErr: true,
		},
		{
			name:    "invalid - too many fields",
			line:    "1234567890123,2048,extra",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric timestamp",
			line:    "abc,2048",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric value",
			line:    "1234567890123,abc",
			wantErr: true,
		},
		{
			name:    "invalid - value out of range",
			line:    "1234567890123,5000",
			wantErr: true,
		},
		{
			name:    "invalid - negative value",
			line:    "1234567890123,-5",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLine(tt.line, 4095)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want.Timestamp.UnixNano(), got.Timestamp.UnixNano())
				assert.Equal(t, tt.want.Value, got.Value)
			}
		})
	}
}

func TestParseLine_RespectsMaxCount(t *testing.T) {
	// 10-bit converter: 2048 is over range even though it parses fine.
	_, err := parseLine("1234567890123,2048", 1023)
	assert.Error(t, err)

	got, err := parseLine("1234567890123,1023", 1023)
	require.NoError(t, err)
	assert.Equal(t, uint16(1023), got.Value)
}

func TestSerial_ReadBeforeConnect(t *testing.T) {
	s := NewSerial("/dev/null", 0, 4095, nil)
	_, err := s.Read()
	assert.Error(t, err)
	assert.False(t, s.IsConnected())
}

func TestSerial_CloseWithoutConnect(t *testing.T) {
	s := NewSerial("/dev/null", 0, 4095, nil)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
