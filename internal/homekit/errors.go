package homekit

import "errors"

var (
	// ErrUnsupportedKind is returned for an accessory kind with no HAP service.
	ErrUnsupportedKind = errors.New("homekit: unsupported accessory kind")

	// ErrUnmappedCharacteristic is returned when a characteristic has no HAP counterpart.
	ErrUnmappedCharacteristic = errors.New("homekit: unmapped characteristic")

	ErrServerFailed = errors.New("homekit: server failed")
)

// HAP status codes returned to controllers.
const (
	statusSuccess              = 0
	statusCommunicationFailure = -70402
	statusInvalidValue         = -70410
	statusReadOnly             = -70404
	statusWriteOnly            = -70405
)
