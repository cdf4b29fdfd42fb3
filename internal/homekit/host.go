package homekit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/brutella/hap"
	hapaccessory "github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"

	"github.com/nerrad567/ohbridge/internal/accessory"
	"github.com/nerrad567/ohbridge/internal/infrastructure/config"
)

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Host owns the bridge accessory and every bound accessory.
type Host struct {
	cfg      config.BridgeConfig
	bridge   *hapaccessory.Bridge
	bound    []*Bound
	bySerial map[string]*Bound
	logger   Logger
}

// NewHost binds accs under a bridge accessory. Accessories that cannot be
// bound are logged and skipped; their errors are returned alongside the host.
func NewHost(cfg config.BridgeConfig, firmware string, accs []accessory.Accessory, logger Logger) (*Host, []error) {
	if logger == nil {
		logger = noopLogger{}
	}
	bridge := hapaccessory.NewBridge(hapaccessory.Info{
		Name:         cfg.Name,
		SerialNumber: accessory.SerialNumber(cfg.Name),
		Manufacturer: cfg.Manufacturer,
		Model:        cfg.Model,
		Firmware:     firmware,
	})
	bridge.A.Id = 1

	h := &Host{cfg: cfg, bridge: bridge, bySerial: make(map[string]*Bound), logger: logger}
	var errs []error
	for _, acc := range accs {
		b, err := Bind(acc, logger)
		if err != nil {
			logger.Error("accessory not published to homekit", "name", acc.Info().Name, "error", err)
			errs = append(errs, fmt.Errorf("binding %q: %w", acc.Info().Name, err))
			continue
		}
		h.bound = append(h.bound, b)
		h.bySerial[b.Serial] = b
	}
	return h, errs
}

// Len returns the number of published accessories, excluding the bridge.
func (h *Host) Len() int { return len(h.bound) }

// ListenAndServe runs the HAP server until ctx is cancelled.
func (h *Host) ListenAndServe(ctx context.Context) error {
	store := hap.NewFsStore(h.cfg.StoragePath)

	accs := make([]*hapaccessory.A, 0, len(h.bound))
	for _, b := range h.bound {
		accs = append(accs, b.A)
	}
	server, err := hap.NewServer(store, h.bridge.A, accs...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServerFailed, err)
	}
	server.Pin = h.cfg.Pin
	server.Addr = net.JoinHostPort("", strconv.Itoa(h.cfg.Port))

	h.logger.Info("homekit bridge starting", "name", h.cfg.Name, "port", h.cfg.Port, "accessories", len(accs))
	err = server.ListenAndServe(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrServerFailed, err)
	}
	return nil
}

// Name implements events.Sink.
func (h *Host) Name() string { return "homekit" }

// Handle pushes values changed outside HomeKit to paired controllers.
// Changes made by a controller are already known to it and are skipped.
func (h *Host) Handle(_ context.Context, ev accessory.Event) error {
	if ev.Source == accessory.SourceHomeKit {
		return nil
	}
	b, ok := h.bySerial[ev.Serial]
	if !ok {
		return nil
	}
	c, ok := b.HAPCharacteristic(ev.Characteristic)
	if !ok || ev.Value == nil || !hasPermission(c, characteristic.PermissionEvents) {
		return nil
	}
	if status := refresh(c, ev.Value); status != statusSuccess {
		return fmt.Errorf("notifying %s/%s: hap status %d", ev.Serial, ev.Characteristic, status)
	}
	return nil
}

func hasPermission(c *characteristic.C, perm string) bool {
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
