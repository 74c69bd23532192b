package core

import fibererrors "github.com/go-drift/fiber/pkg/errors"

// DebugMode controls whether development warnings are reported: unknown
// element types, duplicate keys and updates on unmounted components.
var DebugMode = true

// SetDebugMode enables or disables development warnings.
func SetDebugMode(debug bool) {
	DebugMode = debug
}

func (r *Reconciler) warn(op, format string, args ...any) {
	if !DebugMode {
		return
	}
	fibererrors.Warn(op, format, args...)
}
