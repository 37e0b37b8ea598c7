package utils

import "fmt"

// RecoverWithError stores a recovered panic in err. It must be deferred directly.
// A panic value that is an error stays reachable with errors.Is and errors.As.
func RecoverWithError(err *error) {
	rv := recover()
	if rv == nil {
		return
	}
	if rvErr, ok := rv.(error); ok {
		*err = fmt.Errorf("recovered from panic: %w", rvErr)
		return
	}
	*err = fmt.Errorf("recovered from panic: %v", rv)
}
