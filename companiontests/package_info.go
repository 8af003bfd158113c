// Package companiontests contains the contract tests for the companion backend, and the
// domain-specific test API that they use to talk to it.
//
// Each test category is a function of the form DoXxxTests(t *ldtest.T) which runs its own
// subtests. Tests share nothing but the harness and configuration; every test creates its own
// Session so that conversations and memories of different tests cannot interfere.
package companiontests
