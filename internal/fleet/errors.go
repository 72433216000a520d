package fleet

import "errors"

// Domain errors for the fleet package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, fleet.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a printer name is not registered.
	// Fleet-wide queries never return it; only single-device operations do.
	ErrDeviceNotFound = errors.New("fleet: device not found")
)
