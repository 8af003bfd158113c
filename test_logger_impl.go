package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/storybuddy/companion-contract-tests/framework"
	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
	"github.com/storybuddy/companion-contract-tests/report"
)

type ConsoleTestLogger struct {
	Output               io.Writer
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

func (c *ConsoleTestLogger) TestStarted(id ldtest.TestID) {
	fmt.Fprintf(c.Output, "[%s]\n", id)
}

func (c *ConsoleTestLogger) TestError(id ldtest.TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(c.Output, "  %s\n", line)
	}
}

func (c *ConsoleTestLogger) TestFinished(id ldtest.TestID, result ldtest.TestResult, debugOutput framework.CapturedOutput) {
	failed := result.Status == ldtest.StatusFailed || result.Status == ldtest.StatusError
	if failed {
		report.StatusColor(result.Status).Fprintf(c.Output, "  %s: %s\n", result.Status, id)
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		debugOutput.Dump(c.Output, "    DEBUG ")
	}
}

func (c *ConsoleTestLogger) TestSkipped(id ldtest.TestID, reason string) {
	skip := report.StatusColor(ldtest.StatusSkipped)
	if reason == "" {
		skip.Fprintf(c.Output, "  SKIPPED: %s\n", id)
	} else {
		skip.Fprintf(c.Output, "  SKIPPED: %s (%s)\n", id, reason)
	}
}
