package accessory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKinds(t *testing.T) {
	want := []Kind{KindFan, KindHumidity, KindLight, KindSwitch, KindTemperature, KindThermostat, KindWindowCovering}
	if diff := cmp.Diff(want, Kinds()); diff != "" {
		t.Errorf("Kinds() mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateErrors(t *testing.T) {
	reg := newFakeRegistry().add("Item", "Switch", "ON")
	tests := []struct {
		name    string
		deps    Deps
		cfg     Config
		wantErr error
	}{
		{"unknown kind", Deps{Registry: reg}, Config{Kind: "toaster", Name: "T", Item: "Item"}, ErrUnknownKind},
		{"missing name", Deps{Registry: reg}, Config{Kind: KindSwitch, Item: "Item"}, ErrConfiguration},
		{"missing item", Deps{Registry: reg}, Config{Kind: KindSwitch, Name: "S"}, ErrConfiguration},
		{"registry type failure", Deps{Registry: &fakeRegistry{typeErr: errRegistryDown}}, Config{Kind: KindSwitch, Name: "S", Item: "Item"}, errRegistryDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := Create(context.Background(), tt.deps, tt.cfg)
			if acc != nil {
				t.Errorf("Create() accessory = %v, want nil", acc)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
			var ce *ConstructionError
			if !errors.As(err, &ce) || ce.Name != tt.cfg.Name || ce.Kind != tt.cfg.Kind {
				t.Errorf("Create() error = %#v, want *ConstructionError for %q", err, tt.cfg.Name)
			}
		})
	}
}

func TestCreateRecoversPanic(t *testing.T) {
	constructors["panicky"] = func(context.Context, Deps, Config) (Accessory, error) {
		panic("boom")
	}
	t.Cleanup(func() { delete(constructors, "panicky") })

	acc, err := Create(context.Background(), Deps{Registry: newFakeRegistry()}, Config{Kind: "panicky", Name: "P"})
	if acc != nil {
		t.Errorf("Create() accessory = %v, want nil", acc)
	}
	if !errors.Is(err, ErrPanic) {
		t.Errorf("Create() error = %v, want ErrPanic", err)
	}
}

func TestCreateAllIsolatesFailures(t *testing.T) {
	reg := newFakeRegistry().
		add("Blind", "Rollershutter", "10").
		add("Lamp", "Dimmer", "0").
		add("Plug", "Switch", "OFF")

	cfgs := []Config{
		{Kind: KindWindowCovering, Name: "Kitchen Blind", Item: "Blind"},
		{Kind: KindWindowCovering, Name: "Bad Blind", Item: "Lamp"},
		{Kind: "toaster", Name: "Toaster", Item: "Plug"},
		{Kind: KindSwitch, Name: "", Item: "Plug"},
		{Kind: KindLight, Name: "Lamp", Item: "Lamp"},
		{Kind: KindSwitch, Name: "Lamp", Item: "Plug"},
		{Kind: KindSwitch, Name: "Plug", Item: "Plug"},
	}
	accs, errs := CreateAll(context.Background(), Deps{Registry: reg}, cfgs)

	var names []string
	for _, a := range accs {
		names = append(names, a.Info().Name)
	}
	if diff := cmp.Diff([]string{"Kitchen Blind", "Lamp", "Plug"}, names); diff != "" {
		t.Errorf("created accessories mismatch (-want +got):\n%s", diff)
	}
	if len(errs) != 4 {
		t.Fatalf("errs = %d (%v), want 4", len(errs), errs)
	}
	wantIs := []error{ErrCapability, ErrUnknownKind, ErrConfiguration, ErrConfiguration}
	for i, want := range wantIs {
		if !errors.Is(errs[i], want) {
			t.Errorf("errs[%d] = %v, want %v", i, errs[i], want)
		}
	}
}

func TestSerialNumberStable(t *testing.T) {
	a, b := SerialNumber("Kitchen Blind"), SerialNumber("Kitchen Blind")
	if a != b {
		t.Errorf("SerialNumber not stable: %q vs %q", a, b)
	}
	if a == SerialNumber("Bedroom Blind") {
		t.Error("different names produced the same serial")
	}

	reg := newFakeRegistry().add("Plug", "Switch", "OFF")
	acc := mustCreate(t, reg, Config{Kind: KindSwitch, Name: "Kitchen Blind", Item: "Plug"})
	if acc.Info().SerialNumber != a {
		t.Errorf("Info().SerialNumber = %q, want %q", acc.Info().SerialNumber, a)
	}
}

func TestCheckItemType(t *testing.T) {
	tests := []struct {
		reported ItemType
		allowed  []ItemType
		ok       bool
	}{
		{"Rollershutter", []ItemType{ItemRollershutter}, true},
		{"Number:Temperature", []ItemType{ItemNumber}, true},
		{"Switch", []ItemType{ItemRollershutter}, false},
		{"", []ItemType{ItemSwitch}, false},
		{"rollershutter", []ItemType{ItemRollershutter}, false},
	}
	for _, tt := range tests {
		err := CheckItemType("Item", tt.reported, tt.allowed...)
		if (err == nil) != tt.ok {
			t.Errorf("CheckItemType(%q, %v) = %v, want ok=%v", tt.reported, tt.allowed, err, tt.ok)
		}
		if err != nil && !errors.Is(err, ErrCapability) {
			t.Errorf("CheckItemType(%q) error does not wrap ErrCapability", tt.reported)
		}
	}
}
