// Package ldtest provides a test context that is similar to Go's *testing.T, but runs outside
// of the Go test runner so that a standalone program can execute a tree of contract tests,
// filter them by name, capture debug output, and report pass/fail/error results.
//
// A *T implements require.TestingT, so the assert and require packages from testify can be
// used against it directly.
package ldtest
