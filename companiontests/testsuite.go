package companiontests

import (
	"github.com/storybuddy/companion-contract-tests/config"
	"github.com/storybuddy/companion-contract-tests/framework/harness"
	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
	"github.com/storybuddy/companion-contract-tests/servicedef"
)

// AllCapabilities lists every optional capability that some test depends on.
var AllCapabilities = []string{
	servicedef.CapabilityTTS,
	servicedef.CapabilitySTT,
	servicedef.CapabilityStories,
	servicedef.CapabilityMemory,
	servicedef.CapabilityAgents,
}

func RunTestSuite(
	h *harness.TestHarness,
	cfg config.Config,
	filter ldtest.Filter,
	testLogger ldtest.TestLogger,
) ldtest.Results {
	testConfig := ldtest.TestConfiguration{
		Filter:       filter,
		TestLogger:   testLogger,
		Context:      CompanionTestContext{harness: h, config: cfg},
		Capabilities: h.Capabilities(),
	}
	return ldtest.Run(testConfig, func(t *ldtest.T) {
		t.Run("health", DoHealthTests)
		t.Run("profile", DoProfileTests)
		t.Run("conversation", DoConversationTests)
		t.Run("voice", DoVoiceTests)
		t.Run("stories", DoStoryTests)
		t.Run("memory", DoMemoryTests)
		t.Run("agents", DoAgentTests)
		t.Run("concurrency", DoConcurrencyTests)
		t.Run("safety", DoSafetyTests)
	})
}
