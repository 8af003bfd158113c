// Package framework contains the low-level implementation of test harness infrastructure
// that can be reused for different kinds of black-box tests against an HTTP backend. The
// base package contains shared types such as Logger and Capabilities; other components are
// in the subpackages harness and ldtest.
//
// The general model is:
//
// 1. The test harness communicates with a backend under test, which exposes a status
// resource (GET /api/health) describing what it supports, and any number of API resources
// that the tests exercise.
//
// 2. The harness has no knowledge of what those resources mean. It only knows how to send
// a request, time it, and hand the raw response back.
//
// 3. There is a general notion of a test context which is similar to Go's *testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// pass/fail/error results.
//
// The domain-specific code that knows what is being tested is responsible for providing
// the request payloads, the heuristics for judging the responses, and a domain-specific
// test API on top of the test context.
package framework
