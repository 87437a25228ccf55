package core

// DebugMode enables the framework's expensive self-checks: global key
// reservation tracking during inflation and verbose stand-in messages.
// Toggle it once at startup, before any tree is mounted.
var DebugMode = false

// SetDebugMode sets DebugMode and returns the previous value, which makes it
// convenient to restore in tests.
func SetDebugMode(enabled bool) bool {
	previous := DebugMode
	DebugMode = enabled
	return previous
}
