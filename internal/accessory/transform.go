package accessory

import (
	"fmt"
	"strconv"
)

// DefaultInversionMax is the upper bound of percentage-style characteristics.
const DefaultInversionMax = 100

// MappingDefault is the key of the fallback entry in a Mapping table.
const MappingDefault = "_default"

// Transform maps between an item's numeric state and a characteristic value.
//
// Decode(Encode(x)) == x and Encode(Decode(x)) == x for every x in the
// transform's domain.
type Transform interface {
	Decode(raw int) (int, error)
	Encode(value int) (int, error)
}

// Identity leaves values unchanged in both directions.
type Identity struct{}

// Decode returns raw unchanged.
func (Identity) Decode(raw int) (int, error) { return raw, nil }

// Encode returns value unchanged.
func (Identity) Encode(value int) (int, error) { return value, nil }

// Inversion maps x to Max-x. It is its own inverse.
//
// Inputs outside [0, Max] are rejected with ErrOutOfRange, never clamped.
type Inversion struct {
	Max int
}

// NewInversion returns an Inversion over [0, limit].
func NewInversion(limit int) Inversion {
	return Inversion{Max: limit}
}

// Decode returns Max-raw.
func (t Inversion) Decode(raw int) (int, error) {
	return t.apply(raw)
}

// Encode returns Max-value.
func (t Inversion) Encode(value int) (int, error) {
	return t.apply(value)
}

func (t Inversion) apply(x int) (int, error) {
	if x < 0 || x > t.Max {
		return 0, fmt.Errorf("%w: %d not in [0, %d]", ErrOutOfRange, x, t.Max)
	}
	return t.Max - x, nil
}

// transformFor selects the active transform from the inverted flag.
func transformFor(inverted bool) Transform {
	if inverted {
		return NewInversion(DefaultInversionMax)
	}
	return Identity{}
}

// Mapping is a fixed token table with a mandatory fallback.
//
// A lookup miss resolves to the MappingDefault entry; it never fails.
type Mapping struct {
	entries  map[string]string
	fallback string
}

// NewMapping builds a Mapping from entries. The table must contain a
// MappingDefault key.
func NewMapping(entries map[string]string) (*Mapping, error) {
	fallback, ok := entries[MappingDefault]
	if !ok {
		return nil, &MappingError{Reason: "table has no " + MappingDefault + " entry"}
	}
	m := &Mapping{
		entries:  make(map[string]string, len(entries)-1),
		fallback: fallback,
	}
	for k, v := range entries {
		if k == MappingDefault {
			continue
		}
		m.entries[k] = v
	}
	return m, nil
}

// Lookup returns the token for key, or the default token.
func (m *Mapping) Lookup(key string) string {
	if v, ok := m.entries[key]; ok {
		return v
	}
	return m.fallback
}

// LookupInt is Lookup with an integer key.
func (m *Mapping) LookupInt(key int) string {
	return m.Lookup(strconv.Itoa(key))
}

// holdPositionMapping turns a hold request into a rollershutter command.
func holdPositionMapping() *Mapping {
	m, err := NewMapping(map[string]string{
		"1":            CommandStop,
		MappingDefault: "",
	})
	if err != nil {
		// Static table always carries a default.
		panic(err)
	}
	return m
}
