package accessory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestCovering(t *testing.T, reg *fakeRegistry, inverted string) *WindowCovering {
	t.Helper()
	acc := mustCreate(t, reg, Config{Kind: KindWindowCovering, Name: "Blind", Item: "Blind_Item", Inverted: inverted})
	w, ok := acc.(*WindowCovering)
	if !ok {
		t.Fatalf("Create() returned %T, want *WindowCovering", acc)
	}
	return w
}

func TestWindowCoveringSeedsTarget(t *testing.T) {
	tests := []struct {
		name     string
		inverted string
		state    string
		want     int
		wantInv  bool
	}{
		{"plain", "false", "30", 30, false},
		{"inverted", "true", "30", 70, true},
		{"empty flag", "", "45", 45, false},
		{"uppercase flag is not true", "TRUE", "45", 45, false},
		{"yes is not true", "yes", "10", 10, false},
		{"fractional state rounds", "false", "29.6", 30, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newFakeRegistry().add("Blind_Item", "Rollershutter", tt.state)
			w := newTestCovering(t, reg, tt.inverted)
			if got := w.TargetPosition(); got != tt.want {
				t.Errorf("TargetPosition() = %d, want %d", got, tt.want)
			}
			if w.Inverted() != tt.wantInv {
				t.Errorf("Inverted() = %v, want %v", w.Inverted(), tt.wantInv)
			}
			cur, err := w.CurrentPosition(context.Background())
			if err != nil || cur != tt.want {
				t.Errorf("CurrentPosition() = %d, %v; want %d", cur, err, tt.want)
			}
		})
	}
}

func TestWindowCoveringCharacteristics(t *testing.T) {
	reg := newFakeRegistry().add("Blind_Item", "Rollershutter", "0")
	w := newTestCovering(t, reg, "false")

	var got []string
	for _, c := range w.Characteristics() {
		got = append(got, c.Name)
	}
	want := []string{CharCurrentPosition, CharTargetPosition, CharPositionState, CharHoldPosition}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("characteristics mismatch (-want +got):\n%s", diff)
	}

	hold, _ := w.Characteristic(CharHoldPosition)
	if hold.Readable() || !hold.Writable() {
		t.Errorf("HoldPosition readable=%v writable=%v, want write-only", hold.Readable(), hold.Writable())
	}
	state, _ := w.Characteristic(CharPositionState)
	if state.Writable() {
		t.Error("PositionState should be read-only")
	}
}

func TestWindowCoveringConstructionFailures(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		reg       *fakeRegistry
		wantErr   error
		wantCalls int
	}{
		{
			name:      "missing item",
			cfg:       Config{Kind: KindWindowCovering, Name: "Blind"},
			reg:       newFakeRegistry(),
			wantErr:   ErrConfiguration,
			wantCalls: 0,
		},
		{
			name:      "wrong item type",
			cfg:       Config{Kind: KindWindowCovering, Name: "Blind", Item: "Blind_Item"},
			reg:       newFakeRegistry().add("Blind_Item", "Switch", "ON"),
			wantErr:   ErrCapability,
			wantCalls: 1,
		},
		{
			name:      "unparseable initial state",
			cfg:       Config{Kind: KindWindowCovering, Name: "Blind", Item: "Blind_Item"},
			reg:       newFakeRegistry().add("Blind_Item", "Rollershutter", "NULL"),
			wantErr:   ErrInvalidState,
			wantCalls: 2,
		},
		{
			name:      "inverted state out of range",
			cfg:       Config{Kind: KindWindowCovering, Name: "Blind", Item: "Blind_Item", Inverted: "true"},
			reg:       newFakeRegistry().add("Blind_Item", "Rollershutter", "120"),
			wantErr:   ErrOutOfRange,
			wantCalls: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := Create(context.Background(), Deps{Registry: tt.reg}, tt.cfg)
			if acc != nil {
				t.Errorf("Create() returned accessory %v, want nil", acc)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
			}
			var ce *ConstructionError
			if !errors.As(err, &ce) {
				t.Errorf("Create() error %T is not a *ConstructionError", err)
			}
			if got := tt.reg.callCount(); got != tt.wantCalls {
				t.Errorf("registry calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestWindowCoveringInitialReadFailure(t *testing.T) {
	reg := newFakeRegistry().add("Blind_Item", "Rollershutter", "10")
	reg.getErr = errRegistryDown
	_, err := Create(context.Background(), Deps{Registry: reg},
		Config{Kind: KindWindowCovering, Name: "Blind", Item: "Blind_Item"})
	if !errors.Is(err, errRegistryDown) {
		t.Fatalf("Create() error = %v, want registry error", err)
	}
}

func TestWindowCoveringSetTargetPosition(t *testing.T) {
	tests := []struct {
		name      string
		inverted  string
		target    int
		wantWrite string
	}{
		{"plain", "false", 20, "20"},
		{"inverted", "true", 20, "80"},
		{"inverted full", "true", 100, "0"},
		{"inverted closed", "true", 0, "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newFakeRegistry().add("Blind_Item", "Rollershutter", "50")
			w := newTestCovering(t, reg, tt.inverted)

			if err := w.SetTargetPosition(context.Background(), tt.target); err != nil {
				t.Fatalf("SetTargetPosition() error = %v", err)
			}
			want := []write{{item: "Blind_Item", state: tt.wantWrite}}
			if diff := cmp.Diff(want, reg.allWrites(), cmp.AllowUnexported(write{})); diff != "" {
				t.Errorf("writes mismatch (-want +got):\n%s", diff)
			}
			if got := w.TargetPosition(); got != tt.target {
				t.Errorf("TargetPosition() = %d, want %d", got, tt.target)
			}
		})
	}
}

func TestWindowCoveringTargetCachedWhenWriteFails(t *testing.T) {
	reg := newFakeRegistry().add("Blind_Item", "Rollershutter", "50")
	w := newTestCovering(t, reg, "false")
	reg.setErr = errRegistryDown

	c, _ := w.Characteristic(CharTargetPosition)
	if err := c.Set(context.Background(), 80); !errors.Is(err, errRegistryDown) {
		t.Fatalf("Set() error = %v, want registry error", err)
	}
	got, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != 80 {
		t.Errorf("TargetPosition after failed write = %v, want 80", got)
	}
}

func TestWindowCoveringRejectsInvalidTarget(t *testing.T) {
	reg := newFakeRegistry().add("Blind_Item", "Rollershutter", "50")
	w := newTestCovering(t, reg, "true")
	c, _ := w.Characteristic(CharTargetPosition)

	for _, v := range []any{150, -1, "up", 12.5} {
		if err := c.Set(context.Background(), v); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("Set(%v) error = %v, want ErrInvalidValue", v, err)
		}
	}
	if len(reg.allWrites()) != 0 {
		t.Errorf("writes = %v, want none", reg.allWrites())
	}
	if got := w.TargetPosition(); got != 50 {
		t.Errorf("TargetPosition() = %d, want unchanged 50", got)
	}
}

func TestDerivePositionState(t *testing.T) {
	tests := []struct {
		name     string
		target   int
		current  int
		inverted bool
		want     PositionState
	}{
		{"opening", 80, 30, false, PositionIncreasing},
		{"closing", 10, 30, false, PositionDecreasing},
		{"arrived", 30, 30, false, PositionStopped},
		{"inverted opening", 80, 30, true, PositionStopped},
		{"inverted closing", 10, 30, true, PositionStopped},
		{"inverted arrived", 30, 30, true, PositionStopped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := derivePositionState(tt.target, tt.current, tt.inverted); got != tt.want {
				t.Errorf("derivePositionState(%d, %d, %v) = %v, want %v",
					tt.target, tt.current, tt.inverted, got, tt.want)
			}
		})
	}
}

func TestWindowCoveringPositionState(t *testing.T) {
	reg := newFakeRegistry().add("Blind_Item", "Rollershutter", "30")
	w := newTestCovering(t, reg, "false")
	ctx := context.Background()

	if err := w.SetTargetPosition(ctx, 80); err != nil {
		t.Fatal(err)
	}
	if s, _ := w.PositionState(ctx); s != PositionIncreasing {
		t.Errorf("PositionState() = %v, want increasing", s)
	}

	reg.setState("Blind_Item", "80")
	if s, _ := w.PositionState(ctx); s != PositionStopped {
		t.Errorf("PositionState() = %v, want stopped", s)
	}

	c, _ := w.Characteristic(CharPositionState)
	reg.setState("Blind_Item", "95")
	got, err := c.Get(ctx)
	if err != nil || got != int(PositionDecreasing) {
		t.Errorf("PositionState Get() = %v, %v; want %d", got, err, PositionDecreasing)
	}
}

func TestWindowCoveringHoldPosition(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  []write
	}{
		{"stop", 1, []write{{item: "Blind_Item", state: CommandStop}}},
		{"bool true stops", true, []write{{item: "Blind_Item", state: CommandStop}}},
		{"zero sends nothing", 0, nil},
		{"two sends nothing", 2, nil},
		{"false sends nothing", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newFakeRegistry().add("Blind_Item", "Rollershutter", "30")
			w := newTestCovering(t, reg, "true")
			c, _ := w.Characteristic(CharHoldPosition)

			if err := c.Set(context.Background(), tt.value); err != nil {
				t.Fatalf("Set(%v) error = %v", tt.value, err)
			}
			if diff := cmp.Diff(tt.want, reg.allWrites(), cmp.AllowUnexported(write{})); diff != "" {
				t.Errorf("writes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWindowCoveringHoldPositionNotReadable(t *testing.T) {
	reg := newFakeRegistry().add("Blind_Item", "Rollershutter", "30")
	w := newTestCovering(t, reg, "false")
	c, _ := w.Characteristic(CharHoldPosition)
	if _, err := c.Get(context.Background()); !errors.Is(err, ErrNotReadable) {
		t.Errorf("Get() error = %v, want ErrNotReadable", err)
	}
}
