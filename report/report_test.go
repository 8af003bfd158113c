package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storybuddy/companion-contract-tests/framework/harness"
	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
)

func init() {
	color.NoColor = true
}

func id(path ...string) ldtest.TestID {
	return ldtest.TestID{Path: path}
}

func sampleResults() ldtest.Results {
	failed := ldtest.TestResult{
		TestID:   id("conversation", "remembers context across turns"),
		Status:   ldtest.StatusFailed,
		Errors:   []error{errors.New("reply did not mention elephant\nsecond line")},
		Duration: time.Second * 3,
	}
	errored := ldtest.TestResult{
		TestID:   id("voice", "text to speech", "returns decodable audio"),
		Status:   ldtest.StatusError,
		Errors:   []error{errors.New("POST /api/voice/tts failed: connection refused")},
		Duration: time.Millisecond * 20,
	}
	return ldtest.Results{
		Tests: []ldtest.TestResult{
			{TestID: id("health", "responds with 200"), Status: ldtest.StatusPassed, Duration: time.Millisecond * 50},
			failed,
			{TestID: id("conversation", "greeting gets a reply"), Status: ldtest.StatusPassed, Duration: time.Second},
			errored,
			{TestID: id("stories"), Status: ldtest.StatusSkipped, SkipReason: `backend does not have capability "stories"`},
		},
		Failures: []ldtest.TestResult{failed, errored},
	}
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, sampleResults())
	out := buf.String()

	assert.Contains(t, out, "Test results: 2 passed, 1 failed, 1 errors, 1 skipped (5 total)")
	assert.Regexp(t, `conversation\s+1\s+1\s+0\s+0`, out)
	assert.Regexp(t, `voice\s+0\s+0\s+1\s+0`, out)
	assert.Regexp(t, `stories\s+0\s+0\s+0\s+1`, out)
	assert.Contains(t, out, "  FAIL [conversation/remembers context across turns]\n"+
		"      reply did not mention elephant\n      second line\n")
	assert.Contains(t, out, "  ERROR [voice/text to speech/returns decodable audio]\n")
	assert.NotContains(t, out, "All tests passed")
}

func TestPrintResultsAllPassed(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, ldtest.Results{Tests: []ldtest.TestResult{{TestID: id("health", "x"), Status: ldtest.StatusPassed}}})
	assert.Contains(t, buf.String(), "All tests passed")
}

func TestPrintFilterDescription(t *testing.T) {
	var filters ldtest.RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("^stories"))

	var buf bytes.Buffer
	PrintFilterDescription(&buf, filters, []string{"stt", "agents"})
	assert.Contains(t, buf.String(), `  skip any matching "^stories"`)
	assert.Contains(t, buf.String(), "  stt, agents\n")

	buf.Reset()
	PrintFilterDescription(&buf, ldtest.RegexFilters{}, nil)
	assert.Empty(t, buf.String())
}

func TestJSONReport(t *testing.T) {
	generated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	report := NewJSONReport(sampleResults(), "http://localhost:8000", generated)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, report))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2026-03-01T12:00:00Z", decoded["generated_at"])
	assert.Equal(t, "http://localhost:8000", decoded["backend_url"])
	assert.Equal(t, map[string]interface{}{
		"passed": 2.0, "failed": 1.0, "errors": 1.0, "skipped": 1.0, "total": 5.0,
	}, decoded["totals"])

	categories := decoded["categories"].([]interface{})
	require.Len(t, categories, 4)
	assert.Equal(t, map[string]interface{}{
		"name": "conversation", "passed": 1.0, "failed": 1.0, "errors": 0.0, "skipped": 0.0, "total": 2.0,
	}, categories[1])

	tests := decoded["tests"].([]interface{})
	require.Len(t, tests, 5)
	assert.Equal(t, map[string]interface{}{
		"id":               "conversation/remembers context across turns",
		"category":         "conversation",
		"status":           "FAIL",
		"duration_seconds": 3.0,
		"errors":           []interface{}{"reply did not mention elephant\nsecond line"},
	}, tests[1])
	assert.Equal(t, `backend does not have capability "stories"`, tests[4].(map[string]interface{})["skip_reason"])
}

func TestJSONReportWithNoResultsHasEmptyArrays(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewJSONReport(ldtest.Results{}, "http://x", time.Now())))
	assert.Contains(t, buf.String(), `"categories": []`)
	assert.Contains(t, buf.String(), `"tests": []`)
}

func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteJSONFile(path, NewJSONReport(sampleResults(), "http://x", time.Now())))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	assert.Error(t, WriteJSONFile(filepath.Join(t.TempDir(), "missing", "report.json"), JSONReport{}))
}

func TestMetricsRecordResults(t *testing.T) {
	m := NewMetrics()
	m.RecordResults(sampleResults())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.testsTotal.WithLabelValues("conversation", "PASS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.testsTotal.WithLabelValues("conversation", "FAIL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.testsTotal.WithLabelValues("voice", "ERROR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.testsTotal.WithLabelValues("stories", "SKIPPED")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.testDuration))
}

func TestMetricsObserveResponseUsesRouteTemplate(t *testing.T) {
	m := NewMetrics()
	for _, user := range []string{"a", "b"} {
		m.ObserveResponse(harness.Response{
			Request: harness.Request{
				Method:     "GET",
				Path:       "/api/memory/{user_id}",
				PathParams: map[string]string{"user_id": user},
			},
			StatusCode: 200,
			Latency:    time.Millisecond * 300,
		})
	}
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))

	expected := `
# HELP companion_backend_request_duration_seconds Latency of requests to the backend under test
# TYPE companion_backend_request_duration_seconds histogram
companion_backend_request_duration_seconds_bucket{code="200",method="GET",route="/api/memory/{user_id}",le="0.05"} 0
companion_backend_request_duration_seconds_bucket{code="200",method="GET",route="/api/memory/{user_id}",le="0.1"} 0
companion_backend_request_duration_seconds_bucket{code="200",method="GET",route="/api/memory/{user_id}",le="0.25"} 0
companion_backend_request_duration_seconds_bucket{code="200",method="GET",route="/api/memory/{user_id}",le="0.5"} 2
companion_backend_request_duration_seconds_bucket{code="200",method="GET",route="/api/memory/{user_id}",le="1"} 2
companion_backend_request_duration_seconds_bucket{code="200",method="GET",route="/api/memory/{user_id}",le="2"} 2
companion_backend_request_duration_seconds_bucket{code="200",method="GET",route="/api/memory/{user_id}",le="5"} 2
companion_backend_request_duration_seconds_bucket{code="200",method="GET",route="/api/memory/{user_id}",le="10"} 2
companion_backend_request_duration_seconds_bucket{code="200",method="GET",route="/api/memory/{user_id}",le="30"} 2
companion_backend_request_duration_seconds_bucket{code="200",method="GET",route="/api/memory/{user_id}",le="60"} 2
companion_backend_request_duration_seconds_bucket{code="200",method="GET",route="/api/memory/{user_id}",le="+Inf"} 2
companion_backend_request_duration_seconds_sum{code="200",method="GET",route="/api/memory/{user_id}"} 0.6
companion_backend_request_duration_seconds_count{code="200",method="GET",route="/api/memory/{user_id}"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"companion_backend_request_duration_seconds"))
}

func TestMetricsWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.RecordResults(sampleResults())
	path := filepath.Join(t.TempDir(), "companion.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `companion_contract_tests_total{category="health",status="PASS"} 1`)
}
