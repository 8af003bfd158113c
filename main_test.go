package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
)

func init() {
	color.NoColor = true
}

func healthyBackend() http.Handler {
	return httphelpers.HandlerForPath("/api/health",
		httphelpers.HandlerWithJSONResponse(map[string]string{"status": "healthy"}, nil),
		httphelpers.HandlerWithStatus(http.StatusInternalServerError))
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunSelectedTestsAndWriteReports(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "report.json")
	metricsPath := filepath.Join(dir, "companion.prom")

	httphelpers.WithServer(healthyBackend(), func(server *httptest.Server) {
		out, err := execute("--url", server.URL, "--run", "^health",
			"--json-report", jsonPath, "--metrics-file", metricsPath, "--log-format", "json")
		require.NoError(t, err, out)

		assert.Contains(t, out, "Connecting to backend at "+server.URL)
		assert.Contains(t, out, `skip any not matching "^health"`)
		assert.Contains(t, out, "Some tests may be skipped because the backend does not support the following capabilities:")
		assert.Contains(t, out, "Test results: 3 passed, 0 failed, 0 errors, 0 skipped (3 total)")
	})

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 3.0, doc["totals"].(map[string]interface{})["passed"])

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `companion_contract_tests_total{category="health",status="PASS"} 3`)
	assert.Contains(t, string(metrics), `route="/api/health"`)
}

func TestFailedRunPrintsRerunCommand(t *testing.T) {
	httphelpers.WithServer(healthyBackend(), func(server *httptest.Server) {
		pattern := ldtest.ExactPattern(ldtest.TestID{Path: []string{"conversation", "greeting gets a reply"}})
		out, err := execute("--url", server.URL, "--run", pattern, "--debug")
		require.ErrorIs(t, err, errTestsFailed)

		assert.Contains(t, out, "FAIL: conversation/greeting gets a reply")
		assert.Contains(t, out, "To run only the failed tests again:")
		assert.Contains(t, out, "--run '"+pattern+"'")
		assert.Contains(t, out, "--url "+server.URL)
		assert.Contains(t, out, "    DEBUG ")
	})
}

func TestInvalidConfiguration(t *testing.T) {
	_, err := execute("--url", "not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	_, err = execute("--url", "http://localhost:1", "--run", "(")
	assert.Error(t, err)
}

func TestBackendNotResponding(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(http.StatusServiceUnavailable), func(server *httptest.Server) {
		_, err := execute("--url", server.URL, "--status-timeout", "200ms")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "backend error")
	})
}

func TestCommandBuilderQuotes(t *testing.T) {
	var b commandBuilder
	b.add("./companion-contract-tests", "--run", "^voice(/tts)?$", "--url", "http://localhost:8000")
	assert.Equal(t, `./companion-contract-tests --run '^voice(/tts)?$' --url http://localhost:8000`, b.String())
}

func TestRerunCommandKeepsSettingsOfThisRun(t *testing.T) {
	var params commandParams
	cmd := &cobra.Command{}
	params.bind(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{
		"--url", "http://localhost:8000",
		"--skip", "^voice",
		"--skip", "agents",
		"--json-report", "out/report.json",
		"--metrics-file", "out/companion.prom",
		"--capability", "tts",
		"--debug-all",
		"--run", "^stories",
	}))
	failure := ldtest.TestResult{TestID: ldtest.TestID{Path: []string{"stories", "library lists stories"}}}

	command := params.rerunCommand("./companion-contract-tests", cmd, []ldtest.TestResult{failure})

	assert.Equal(t, "./companion-contract-tests --url http://localhost:8000"+
		" --json-report out/report.json --metrics-file out/companion.prom"+
		" --capability tts --skip '^voice' --skip agents --debug-all"+
		" --run '"+ldtest.ExactPattern(failure.TestID)+"'", command)
	assert.NotContains(t, command, "^stories'")
}
