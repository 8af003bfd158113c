package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
)

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
	skipColor = color.New(color.FgYellow)
)

// StatusColor returns the console color used for a test status.
func StatusColor(status ldtest.Status) *color.Color {
	switch status {
	case ldtest.StatusPassed:
		return passColor
	case ldtest.StatusSkipped:
		return skipColor
	default:
		return failColor
	}
}

// PrintResults writes a summary of the run: totals, a per-category table, and every failure
// with its error messages.
func PrintResults(w io.Writer, results ldtest.Results) {
	counts := results.Counts()
	fmt.Fprintf(w, "Test results: %d passed, %d failed, %d errors, %d skipped (%d total)\n",
		counts.Passed, counts.Failed, counts.Errors, counts.Skipped, counts.Total())

	if categories := results.ByCategory(); len(categories) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "category\tpassed\tfailed\terrors\tskipped\t")
		for _, c := range categories {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t\n", c.Category, c.Passed, c.Failed, c.Errors, c.Skipped)
		}
		_ = tw.Flush()
	}

	if len(results.Failures) == 0 {
		fmt.Fprintln(w)
		passColor.Fprintln(w, "All tests passed")
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Failures:")
	for _, f := range results.Failures {
		StatusColor(f.Status).Fprintf(w, "  %s [%s]\n", f.Status, f.TestID)
		for _, err := range f.Errors {
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
	}
}

// PrintFilterDescription explains which tests will not run, either because of the --run and
// --skip parameters or because the backend lacks capabilities.
func PrintFilterDescription(w io.Writer, filters ldtest.RegexFilters, missingCapabilities []string) {
	if lines := filters.Describe(); len(lines) > 0 {
		fmt.Fprintln(w, "Some tests will be skipped based on the filter criteria for this test run:")
		for _, line := range lines {
			fmt.Fprintf(w, "  %s\n", line)
		}
		fmt.Fprintln(w)
	}
	if len(missingCapabilities) > 0 {
		fmt.Fprintln(w, "Some tests may be skipped because the backend does not support the following capabilities:")
		fmt.Fprintf(w, "  %s\n", strings.Join(missingCapabilities, ", "))
		fmt.Fprintln(w)
	}
}
