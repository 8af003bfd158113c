package companiontests

import (
	"net/http"
	"sort"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storybuddy/companion-contract-tests/framework/harness"
	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
	"github.com/storybuddy/companion-contract-tests/servicedef"
)

func DoAgentTests(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityAgents)

	t.Run("status responds with 200", func(t *ldtest.T) {
		requireStatus(t, NewSession(t).AgentsStatus(t), http.StatusOK)
	})

	t.Run("all agents healthy", func(t *ldtest.T) {
		resp := NewSession(t).AgentsStatus(t)
		requireStatus(t, resp, http.StatusOK)
		status := requireJSON[servicedef.AgentsStatusResponse](t, resp)
		require.NotEmpty(t, status.Agents, "backend listed no agents")

		names := make([]string, 0, len(status.Agents))
		for name := range status.Agents {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			agent := status.Agents[name]
			assert.True(t, harness.IsHealthyStatus(agent.Status), "agent %q reports status %q", name, agent.Status)
		}
	})
}
