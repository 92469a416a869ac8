package influxdb

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1",
		Org:     "graylogic",
		Bucket:  "presence",
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClientOptions(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.InfluxDBConfig
		wantBatch uint
		wantFlush uint
	}{
		{"configured", config.InfluxDBConfig{BatchSize: 20, FlushInterval: 2}, 20, 2000},
		{"defaults", config.InfluxDBConfig{}, defaultBatchSize, defaultFlushSeconds * millisecondsPerSecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := clientOptions(tt.cfg)
			if got := opts.BatchSize(); got != tt.wantBatch {
				t.Errorf("BatchSize() = %d, want %d", got, tt.wantBatch)
			}
			if got := opts.FlushInterval(); got != tt.wantFlush {
				t.Errorf("FlushInterval() = %d, want %d", got, tt.wantFlush)
			}
		})
	}
}

func TestSignalPoint(t *testing.T) {
	at := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	p := SignalPoint("dev-1a2b3c4d", "OPEN", "registered", 2, at)

	line := write.PointToLineProtocol(p, time.Nanosecond)
	want := "device_signal,effect=registered,host=dev-1a2b3c4d,signal=OPEN code=2i"
	if !strings.HasPrefix(line, want) {
		t.Errorf("line = %q, want prefix %q", line, want)
	}
	if !p.Time().Equal(at) {
		t.Errorf("Time() = %v", p.Time())
	}
}

func TestWriteSignal_Disconnected(t *testing.T) {
	c := &Client{}
	// Must not panic with no write API.
	c.WriteSignal("h1", "OPEN", "registered", 2, time.Now())
	c.Flush()
	if c.IsConnected() {
		t.Error("IsConnected() = true")
	}
}
