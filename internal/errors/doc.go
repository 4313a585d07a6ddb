// Package errors provides the coded errors used across the module.
//
// Every error has a stable code (e.g., "F002") that maps to a short
// message and, for mistakes a user can fix, a hint. Codes are grouped:
//
//   - F001-F009: tree invariants and hook misuse (raised as panics)
//   - F010-F019: configuration
//   - F020-F029: command line
//   - F030-F039: op streaming
//   - F040-F049: snapshot export
//   - F050-F059: commit journal
//
// # Usage
//
//	err := errors.New("F011").WithDetail("scheduler.budget must be positive")
//	errors.Fprint(os.Stderr, err)
//	// ERROR F011: Invalid configuration
//	//
//	//   scheduler.budget must be positive
package errors
