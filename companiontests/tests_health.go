package companiontests

import (
	"net/http"

	"github.com/stretchr/testify/assert"

	"github.com/storybuddy/companion-contract-tests/framework/harness"
	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
)

func DoHealthTests(t *ldtest.T) {
	t.Run("responds with 200", func(t *ldtest.T) {
		resp := NewSession(t).Health(t)
		requireStatus(t, resp, http.StatusOK)
	})

	t.Run("reports healthy status", func(t *ldtest.T) {
		resp := NewSession(t).Health(t)
		requireStatus(t, resp, http.StatusOK)
		info := requireJSON[harness.BackendInfo](t, resp)
		assert.True(t, harness.IsHealthyStatus(info.Status), "backend reported status %q", info.Status)
		for name, status := range info.Services {
			if !harness.IsHealthyStatus(status) {
				t.Debug("service %q reports status %q", name, status)
			}
		}
	})

	t.Run("responds within latency threshold", func(t *ldtest.T) {
		resp := NewSession(t).Health(t)
		requireStatus(t, resp, http.StatusOK)
		assertLatency(t, resp, thresholds(t).HealthLatency)
	})
}
