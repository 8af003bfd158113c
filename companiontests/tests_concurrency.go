package companiontests

import (
	"fmt"

	"github.com/stretchr/testify/assert"

	"github.com/storybuddy/companion-contract-tests/framework/harness"
	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
)

func DoConcurrencyTests(t *ldtest.T) {
	t.Run("rapid successive messages", func(t *ldtest.T) {
		n := thresholds(t).BurstSize
		messages := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			messages = append(messages, fmt.Sprintf("Quick question number %d: what color is the sky?", i))
		}

		NewSession(t).BurstText(t, func(r harness.BurstResult) {
			t.Debug("message %d finished in position %d with status %d after %s",
				r.Issued, r.Completed, r.Response.StatusCode, r.Response.Latency)
			assert.False(t, r.Response.IsServerError(), "message %d got server error %d: %s",
				r.Issued, r.Response.StatusCode, r.Response.BodySnippet(maxBodyInFailure))
		}, messages...)
	})
}
