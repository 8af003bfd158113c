package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/storybuddy/companion-contract-tests/framework"
)

const (
	// StatusPath is the backend resource that is polled at startup.
	StatusPath = "/api/health"

	statusPollInterval = time.Millisecond * 100
)

var healthyServiceStatuses = map[string]bool{
	"ok":        true,
	"healthy":   true,
	"up":        true,
	"running":   true,
	"ready":     true,
	"available": true,
	"connected": true,
}

// IsHealthyStatus returns true if a status string reported by the backend means that the
// component is working. The comparison is case-insensitive.
func IsHealthyStatus(status string) bool {
	return healthyServiceStatuses[strings.ToLower(strings.TrimSpace(status))]
}

// BackendInfo is status information returned by the backend from the initial status query.
type BackendInfo struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Services     map[string]string `json:"services,omitempty"`
	Capabilities []string          `json:"capabilities,omitempty"`
}

// HarnessOptions configures NewTestHarness.
type HarnessOptions struct {
	Client ClientOptions

	// ExtraCapabilities are treated as supported even if the backend does not advertise them.
	ExtraCapabilities []string
}

// TestHarness is the connection between the tests and the backend under test.
type TestHarness struct {
	backendBaseURL string
	backendInfo    BackendInfo
	capabilities   framework.Capabilities
	client         *BackendClient
	logger         framework.Logger
}

// NewTestHarness creates a TestHarness instance, and verifies that the backend is responding
// by querying its status resource until it answers or the timeout elapses.
func NewTestHarness(
	backendBaseURL string,
	opts HarnessOptions,
	statusQueryTimeout time.Duration,
	debugLogger framework.Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	if startupOutput == nil {
		startupOutput = io.Discard
	}
	backendBaseURL = strings.TrimSuffix(backendBaseURL, "/")

	h := &TestHarness{
		backendBaseURL: backendBaseURL,
		client:         NewBackendClient(backendBaseURL, opts.Client, debugLogger),
		logger:         debugLogger,
	}

	info, err := h.queryBackendInfo(statusQueryTimeout, startupOutput)
	if err != nil {
		return nil, err
	}
	h.backendInfo = info
	h.capabilities = capabilitiesFromInfo(info).With(opts.ExtraCapabilities...)

	return h, nil
}

func (h *TestHarness) queryBackendInfo(timeout time.Duration, output io.Writer) (BackendInfo, error) {
	fmt.Fprintf(output, "Connecting to backend at %s", h.backendBaseURL)

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		resp, err := h.client.Do(context.Background(), Request{Method: http.MethodGet, Path: StatusPath}, h.logger)
		if err == nil {
			fmt.Fprintln(output)
			if resp.StatusCode != http.StatusOK {
				return BackendInfo{}, fmt.Errorf("backend status query returned status code %d", resp.StatusCode)
			}
			if len(resp.Body) == 0 {
				fmt.Fprintf(output, "Status query successful, but backend provided no metadata\n")
				return BackendInfo{}, nil
			}
			fmt.Fprintf(output, "Status query returned metadata: %s\n", resp.BodySnippet(maxLoggedBodyLength))
			var info BackendInfo
			if err := json.Unmarshal(resp.Body, &info); err != nil {
				return BackendInfo{}, fmt.Errorf("malformed status response from backend: %s", resp.BodySnippet(maxLoggedBodyLength))
			}
			return info, nil
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return BackendInfo{}, fmt.Errorf("timed out, result of last query was: %w", err)
		}
		time.Sleep(statusPollInterval)
	}
}

func capabilitiesFromInfo(info BackendInfo) framework.Capabilities {
	names := append([]string(nil), info.Capabilities...)
	var services []string
	for name, status := range info.Services {
		if IsHealthyStatus(status) {
			services = append(services, name)
		}
	}
	sort.Strings(services)
	return framework.Capabilities(nil).With(append(names, services...)...)
}

func (h *TestHarness) BackendBaseURL() string {
	return h.backendBaseURL
}

func (h *TestHarness) BackendInfo() BackendInfo {
	return h.backendInfo
}

func (h *TestHarness) Capabilities() framework.Capabilities {
	return h.capabilities
}

func (h *TestHarness) BackendHasCapability(desired string) bool {
	return h.capabilities.Has(desired)
}

func (h *TestHarness) Client() *BackendClient {
	return h.client
}
