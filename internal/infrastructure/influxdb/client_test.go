package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/ohbridge/internal/infrastructure/config"
)

// fakeInflux answers /ping and records line protocol posted to /api/v2/write.
type fakeInflux struct {
	mu     sync.Mutex
	bodies []string
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ping":
		w.WriteHeader(http.StatusNoContent)
	case "/api/v2/write":
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.bodies = append(f.bodies, string(body))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeInflux) written() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.bodies, "\n")
}

func startFake(t *testing.T) (*fakeInflux, config.InfluxDBConfig) {
	t.Helper()
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, config.InfluxDBConfig{
		Enabled:       true,
		URL:           srv.URL,
		Token:         "test-token",
		Org:           "home",
		Bucket:        "ohbridge",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := Connect(config.InfluxDBConfig{Enabled: true, URL: url, Org: "o", Bucket: "b"})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_DefaultsBatchSettings(t *testing.T) {
	_, cfg := startFake(t)
	cfg.BatchSize = 0
	cfg.FlushInterval = -1

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestWriteCharacteristic(t *testing.T) {
	fake, cfg := startFake(t)
	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	err = client.WriteCharacteristic(CharacteristicPoint{
		Serial:         "abc",
		Accessory:      "Hallway",
		Kind:           "temp",
		Characteristic: "CurrentTemperature",
		Op:             "get",
		Value:          21.5,
		At:             time.Unix(1700000000, 0),
	})
	if err != nil {
		t.Fatalf("WriteCharacteristic() error = %v", err)
	}
	client.Flush()
	if st := client.Stats(); st.Queued != 1 || st.Rejected != 0 {
		t.Errorf("Stats() = %+v, want 1 queued", st)
	}

	deadline := time.Now().Add(5 * time.Second)
	for fake.written() == "" && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	got := fake.written()
	for _, want := range []string{
		"characteristic,",
		"serial=abc",
		"characteristic=CurrentTemperature",
		"kind=temp",
		"value=21.5",
		"1700000000000000000",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("line protocol %q missing %q", got, want)
		}
	}
}

func TestWriteCharacteristic_Rejects(t *testing.T) {
	_, cfg := startFake(t)
	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	err = client.WriteCharacteristic(CharacteristicPoint{Serial: "abc", Characteristic: "Name", Value: "text"})
	if !errors.Is(err, ErrWriteFailed) {
		t.Errorf("string value error = %v, want ErrWriteFailed", err)
	}
	if st := client.Stats(); st.Rejected != 1 || st.Queued != 0 {
		t.Errorf("Stats() = %+v, want 1 rejected", st)
	}

	client.Close()
	err = client.WriteCharacteristic(CharacteristicPoint{Serial: "abc", Characteristic: "On", Value: true})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("after Close error = %v, want ErrNotConnected", err)
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck after Close = %v", err)
	}
	client.Flush()
	if err := client.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestWriteOptions(t *testing.T) {
	opts := writeOptions(config.InfluxDBConfig{})
	if opts.BatchSize() != defaultBatchSize || opts.FlushInterval() != 10000 {
		t.Errorf("defaults = %d points / %d ms", opts.BatchSize(), opts.FlushInterval())
	}
	opts = writeOptions(config.InfluxDBConfig{BatchSize: 5, FlushInterval: 2})
	if opts.BatchSize() != 5 || opts.FlushInterval() != 2000 {
		t.Errorf("configured = %d points / %d ms", opts.BatchSize(), opts.FlushInterval())
	}
}

func TestNumericField(t *testing.T) {
	tests := []struct {
		in      any
		want    float64
		wantErr bool
	}{
		{true, 1, false},
		{false, 0, false},
		{42, 42, false},
		{int64(7), 7, false},
		{3.25, 3.25, false},
		{"x", 0, true},
		{nil, 0, true},
	}
	for _, tt := range tests {
		got, err := numericField(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("numericField(%v) = (%v, %v), want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestClose_Nil(t *testing.T) {
	var c Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero Client = %v", err)
	}
}
