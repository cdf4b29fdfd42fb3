package accessory

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for the accessory package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, accessory.ErrCapability) {
//	    // item type does not fit the accessory kind
//	}
var (
	// ErrConfiguration is returned when a required config field is missing or malformed.
	ErrConfiguration = errors.New("accessory: invalid configuration")

	// ErrCapability is returned when an item's type does not support the accessory kind.
	ErrCapability = errors.New("accessory: unsupported item type")

	// ErrMapping is returned when a mapping table has no default entry.
	ErrMapping = errors.New("accessory: invalid mapping")

	// ErrUnknownKind is returned by the factory for an unregistered kind.
	ErrUnknownKind = errors.New("accessory: unknown kind")

	// ErrOutOfRange is returned when a value falls outside a transform's domain.
	ErrOutOfRange = errors.New("accessory: value out of range")

	// ErrInvalidState is returned when the registry reports a state that
	// cannot be parsed into the characteristic's domain.
	ErrInvalidState = errors.New("accessory: invalid item state")

	// ErrInvalidValue is returned when a value of the wrong type is written.
	ErrInvalidValue = errors.New("accessory: invalid characteristic value")

	// ErrCharacteristicNotFound is returned for an unknown characteristic name.
	ErrCharacteristicNotFound = errors.New("accessory: characteristic not found")

	// ErrNotReadable is returned when reading a write-only characteristic.
	ErrNotReadable = errors.New("accessory: characteristic is not readable")

	// ErrNotWritable is returned when writing a read-only characteristic.
	ErrNotWritable = errors.New("accessory: characteristic is not writable")

	// ErrAccessoryNotFound is returned by Index lookups for an unknown serial.
	ErrAccessoryNotFound = errors.New("accessory: accessory not found")

	// ErrPanic is returned when a constructor panicked.
	ErrPanic = errors.New("accessory: constructor panicked")
)

// ConfigError reports a missing or malformed configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("accessory: config field %q: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// CapabilityError reports an item whose type is not in the allowed set.
type CapabilityError struct {
	Item     string
	Reported ItemType
	Allowed  []ItemType
}

func (e *CapabilityError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, t := range e.Allowed {
		allowed[i] = string(t)
	}
	return fmt.Sprintf("accessory: item %q has type %q, expected one of [%s]",
		e.Item, e.Reported, strings.Join(allowed, ", "))
}

func (e *CapabilityError) Unwrap() error { return ErrCapability }

// MappingError reports a mapping table that cannot be built.
type MappingError struct {
	Reason string
}

func (e *MappingError) Error() string {
	return "accessory: mapping: " + e.Reason
}

func (e *MappingError) Unwrap() error { return ErrMapping }

// ConstructionError wraps any failure that aborted building one accessory.
// It is the only error type returned by Create.
type ConstructionError struct {
	Name string
	Kind Kind
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("accessory: building %q (%s): %v", e.Name, e.Kind, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }
