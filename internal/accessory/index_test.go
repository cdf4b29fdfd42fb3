package accessory

import (
	"context"
	"errors"
	"testing"
)

func TestIndex(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("Kitchen", "Switch", "ON")
	reg.add("Hall", "Number", "20")

	kitchen := mustCreate(t, reg, Config{Kind: KindSwitch, Name: "Kitchen", Item: "Kitchen"})
	hall := mustCreate(t, reg, Config{Kind: KindTemperature, Name: "Hall", Item: "Hall"})

	idx := NewIndex([]Accessory{kitchen, hall, kitchen})
	if idx.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", idx.Len())
	}
	all := idx.All()
	if all[0] != kitchen || all[1] != hall {
		t.Errorf("All() order = %v", all)
	}

	got, err := idx.Get(SerialNumber("Hall"))
	if err != nil || got != hall {
		t.Errorf("Get(Hall) = %v, %v", got, err)
	}
	if _, err := idx.Get("missing"); !errors.Is(err, ErrAccessoryNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrAccessoryNotFound", err)
	}

	c, err := idx.Characteristic(SerialNumber("Kitchen"), CharOn)
	if err != nil {
		t.Fatalf("Characteristic() error = %v", err)
	}
	if v, err := c.Get(context.Background()); err != nil || v != true {
		t.Errorf("On = %v, %v", v, err)
	}
	if _, err := idx.Characteristic(SerialNumber("Kitchen"), CharBrightness); !errors.Is(err, ErrCharacteristicNotFound) {
		t.Errorf("Characteristic(Brightness) error = %v", err)
	}
}
