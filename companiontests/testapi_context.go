package companiontests

import (
	"github.com/storybuddy/companion-contract-tests/config"
	"github.com/storybuddy/companion-contract-tests/framework/harness"
	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
)

type CompanionTestContext struct {
	harness *harness.TestHarness
	config  config.Config
}

func requireContext(t *ldtest.T) CompanionTestContext {
	if c, ok := t.Context().(CompanionTestContext); ok {
		return c
	}
	panic("CompanionTestContext was not included in the global test configuration!" +
		" This is a basic mistake in the initialization logic.")
}

func thresholds(t *ldtest.T) config.Thresholds {
	return requireContext(t).config.Thresholds
}

func keywords(t *ldtest.T) config.Keywords {
	return requireContext(t).config.Keywords
}
