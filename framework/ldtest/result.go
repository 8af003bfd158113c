package ldtest

import (
	"strings"
	"time"
)

// Status is the outcome of a single test.
type Status string

const (
	StatusPassed  Status = "PASS"
	StatusFailed  Status = "FAIL"
	StatusError   Status = "ERROR"
	StatusSkipped Status = "SKIPPED"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID     TestID
	Status     Status
	Errors     []error
	SkipReason string
	Duration   time.Duration
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Counts tallies results by status.
type Counts struct {
	Passed  int
	Failed  int
	Errors  int
	Skipped int
}

func (c Counts) Total() int {
	return c.Passed + c.Failed + c.Errors + c.Skipped
}

func (c *Counts) add(status Status) {
	switch status {
	case StatusPassed:
		c.Passed++
	case StatusFailed:
		c.Failed++
	case StatusError:
		c.Errors++
	case StatusSkipped:
		c.Skipped++
	}
}

func (r Results) Counts() Counts {
	var c Counts
	for _, t := range r.Tests {
		c.add(t.Status)
	}
	return c
}

// CategoryCounts is the tally for one top-level group of tests.
type CategoryCounts struct {
	Category string
	Counts
}

// ByCategory tallies results by the first element of each test's path, in the order that the
// categories were first seen.
func (r Results) ByCategory() []CategoryCounts {
	var ret []CategoryCounts
	index := make(map[string]int)
	for _, t := range r.Tests {
		cat := t.TestID.Category()
		i, ok := index[cat]
		if !ok {
			i = len(ret)
			index[cat] = i
			ret = append(ret, CategoryCounts{Category: cat})
		}
		ret[i].add(t.Status)
	}
	return ret
}

type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

// Category is the top-level group that the test belongs to.
func (t TestID) Category() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[0]
}

func (t TestID) Plus(name string) TestID {
	return TestID{Path: append(append([]string(nil), t.Path...), name)}
}
