package ldtest

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/storybuddy/companion-contract-tests/framework"
)

// TestConfiguration contains everything that is shared by all tests in a run.
type TestConfiguration struct {
	// Filter, if non-nil, is called before each test starts; tests it rejects are skipped
	// without running.
	Filter Filter

	// TestLogger receives notifications about test progress. If nil, nothing is reported.
	TestLogger TestLogger

	// Context is an arbitrary value made available to all tests via T.Context(). The
	// domain-specific test code uses this to find its own shared state, such as the harness.
	Context interface{}

	// Capabilities is the set of optional features that the backend under test supports.
	Capabilities framework.Capabilities
}

type environment struct {
	config  TestConfiguration
	results Results
}

// T represents a test or subtest. It implements the same basic functionality as Go's
// testing.T, and can be passed to the assert and require packages.
//
// Unlike testing.T, a T distinguishes between a failed assertion (FAIL) and a test that could
// not be completed at all, for instance because the backend was unreachable (ERROR). The
// latter is reported with Abort, or happens automatically if the test panics.
type T struct {
	env         *environment
	id          TestID
	debugLogger framework.CapturingLogger
	started     time.Time
	failed      bool
	errored     bool
	skipped     bool
	skipReason  string
	subtests    int
	errors      []error
	cleanups    []func()
}

type abortSignal struct{ t *T }

// Run starts a test run and executes the top-level action, which normally calls t.Run for
// each group of tests. It returns the accumulated results.
func Run(config TestConfiguration, action func(*T)) Results {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	env := &environment{config: config}
	t := &T{env: env, started: time.Now()}
	t.run(action)
	return env.results
}

func (t *T) run(action func(*T)) {
	defer func() {
		r := recover()
		t.runCleanups()
		if r != nil {
			t.recordPanic(r)
		}
		t.recordResult()
	}()

	action(t)
}

func (t *T) recordPanic(r interface{}) {
	if t.skipped {
		return
	}
	var addError error
	switch p := r.(type) {
	case *T:
		t.failed = true
		if len(t.errors) == 0 {
			addError = errors.New("test failed with no failure message")
		}
	case abortSignal:
		t.errored = true
	default:
		t.errored = true
		addError = fmt.Errorf("unexpected panic in test: %+v\n%s", p, string(debug.Stack()))
	}
	if addError != nil {
		t.errors = append(t.errors, addError)
		t.env.config.TestLogger.TestError(t.id, addError)
	}
}

func (t *T) recordResult() {
	result := t.result()
	if t.subtests > 0 && result.Status == StatusPassed {
		// a group whose own body succeeded is represented by its subtests
		return
	}
	if len(t.id.Path) == 0 && result.Status == StatusPassed {
		return
	}
	t.env.results.Tests = append(t.env.results.Tests, result)
	if result.Status == StatusFailed || result.Status == StatusError {
		t.env.results.Failures = append(t.env.results.Failures, result)
	}
}

func (t *T) result() TestResult {
	status := StatusPassed
	switch {
	case t.skipped:
		status = StatusSkipped
	case t.errored:
		status = StatusError
	case t.failed:
		status = StatusFailed
	}
	return TestResult{
		TestID:     t.id,
		Status:     status,
		Errors:     t.errors,
		SkipReason: t.skipReason,
		Duration:   time.Since(t.started),
	}
}

func (t *T) runCleanups() {
	for len(t.cleanups) > 0 {
		last := len(t.cleanups) - 1
		f := t.cleanups[last]
		t.cleanups = t.cleanups[:last]
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.debugLogger.Printf("panic in deferred function: %+v", r)
				}
			}()
			f()
		}()
	}
}

// ID returns the unique identifier of this test.
func (t *T) ID() TestID {
	return t.id
}

// Run runs a subtest. This is equivalent to the Run method of testing.T.
func (t *T) Run(name string, action func(*T)) {
	id := t.id.Plus(name)
	logger := t.env.config.TestLogger

	t.subtests++
	logger.TestStarted(id)
	if t.env.config.Filter != nil && !t.env.config.Filter(id) {
		logger.TestSkipped(id, "excluded by filter parameters")
		return
	}
	t1 := &T{
		id:      id,
		env:     t.env,
		started: time.Now(),
	}
	t1.run(action)
	if t1.skipped {
		logger.TestSkipped(id, t1.skipReason)
	} else {
		logger.TestFinished(id, t1.result(), t1.debugLogger.Output())
	}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	err := fmt.Errorf(format, args...)
	t.errors = append(t.errors, err)
	t.env.config.TestLogger.TestError(t.id, err)
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods
// in the require package call FailNow.
func (t *T) FailNow() {
	panic(t)
}

// Abort records an error that prevented the test from being carried out, such as a transport
// failure or an undecodable response, and immediately exits the test. The test is reported
// with ERROR status rather than FAIL.
func (t *T) Abort(err error) {
	if err == nil {
		err = errors.New("test aborted with no error")
	}
	t.errors = append(t.errors, err)
	t.env.config.TestLogger.TestError(t.id, err)
	panic(abortSignal{t})
}

// Skip marks the test as skipped and immediately exits.
func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// RequireCapability skips this test if the backend did not declare that it supports the
// specified capability.
func (t *T) RequireCapability(capability string) {
	if !t.env.config.Capabilities.Has(capability) {
		t.SkipWithReason(fmt.Sprintf("backend does not have capability %q", capability))
	}
}

func (t *T) Capabilities() framework.Capabilities {
	return t.env.config.Capabilities
}

// Context returns the shared value that was provided in TestConfiguration.
func (t *T) Context() interface{} {
	return t.env.config.Context
}

// Defer schedules a function to be run after the test ends, whether it passed or not.
// Deferred functions run in reverse order.
func (t *T) Defer(f func()) {
	t.cleanups = append(t.cleanups, f)
}

// Debug logs some debug output for the test. The output will be passed to the test logger
// at the end of the test.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

func (t *T) DebugLogger() framework.Logger {
	return &t.debugLogger
}
