package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/ohbridge/internal/infrastructure/influxdb"
)

// SystemMetrics is the body of GET /metrics.
type SystemMetrics struct {
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	WebSocket     WSMetrics        `json:"websocket"`
	Accessories   AccessoryMetrics `json:"accessories"`
	Events        *EventMetrics    `json:"events,omitempty"`
	History       *influxdb.Stats  `json:"history,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// AccessoryMetrics counts accessories and their characteristics.
type AccessoryMetrics struct {
	Total           int            `json:"total"`
	ByKind          map[string]int `json:"by_kind"`
	Characteristics int            `json:"characteristics"`
	Writable        int            `json:"writable"`
}

// EventMetrics contains dispatcher statistics.
type EventMetrics struct {
	Dropped uint64 `json:"dropped"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	accs := AccessoryMetrics{Total: s.accessories.Len(), ByKind: make(map[string]int)}
	for _, acc := range s.accessories.All() {
		accs.ByKind[string(acc.Info().Kind)]++
		for _, c := range acc.Characteristics() {
			accs.Characteristics++
			if c.Writable() {
				accs.Writable++
			}
		}
	}

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Accessories: accs,
	}
	if s.hub != nil {
		metrics.WebSocket.ConnectedClients = s.hub.ClientCount()
	}
	if s.events != nil {
		metrics.Events = &EventMetrics{Dropped: s.events.Dropped()}
	}
	if s.history != nil {
		st := s.history.Stats()
		metrics.History = &st
	}

	writeJSON(w, http.StatusOK, metrics)
}
