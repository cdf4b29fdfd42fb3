package accessory

import "fmt"

// Index looks accessories up by serial number. It is built once at
// bootstrap and is read-only afterwards, so it is safe for concurrent use.
type Index struct {
	order    []Accessory
	bySerial map[string]Accessory
}

// NewIndex indexes accs in order. Later duplicates are ignored; CreateAll
// never returns two accessories with the same serial.
func NewIndex(accs []Accessory) *Index {
	idx := &Index{bySerial: make(map[string]Accessory, len(accs))}
	for _, acc := range accs {
		serial := acc.Info().SerialNumber
		if _, dup := idx.bySerial[serial]; dup {
			continue
		}
		idx.bySerial[serial] = acc
		idx.order = append(idx.order, acc)
	}
	return idx
}

// All returns the accessories in bootstrap order.
func (i *Index) All() []Accessory {
	out := make([]Accessory, len(i.order))
	copy(out, i.order)
	return out
}

// Len returns the number of indexed accessories.
func (i *Index) Len() int { return len(i.order) }

// Get returns the accessory with serial.
func (i *Index) Get(serial string) (Accessory, error) {
	acc, ok := i.bySerial[serial]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAccessoryNotFound, serial)
	}
	return acc, nil
}

// Characteristic resolves serial and name in one step.
func (i *Index) Characteristic(serial, name string) (*Characteristic, error) {
	acc, err := i.Get(serial)
	if err != nil {
		return nil, err
	}
	return acc.Characteristic(name)
}
