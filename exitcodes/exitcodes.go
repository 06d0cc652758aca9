// Package exitcodes defines the standard exit codes used by bindcheck.
package exitcodes

// Exit code constants used by bindcheck
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when all checks pass
// * CheckFailure (1): Used when one or more checks fail
// * RuntimeErr (2): Used for runtime errors such as a missing toolchain or panics
const (
	Success      = 0 // All checks pass
	CheckFailure = 1 // Check failures
	RuntimeErr   = 2 // Runtime errors
)
