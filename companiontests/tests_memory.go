package companiontests

import (
	"github.com/stretchr/testify/assert"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
	"github.com/storybuddy/companion-contract-tests/servicedef"
)

func DoMemoryTests(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityMemory)

	t.Run("remembers a fact told in conversation", func(t *ldtest.T) {
		s := NewSession(t)
		s.Say(t, "I have a dog named Biscuit and my favorite color is purple.")

		resp := s.Memory(t)
		requireSuccess(t, resp)
		memory := requireJSON[servicedef.MemoryResponse](t, resp)
		assert.NotEmpty(t, memory.Memories, "no memories were recorded for the user")
	})

	t.Run("search returns an array", func(t *ldtest.T) {
		s := NewSession(t)
		s.Say(t, "My best friend is called Zoe.")

		resp := s.SearchMemory(t, "friend")
		requireSuccess(t, resp)
		body := ldvalue.Parse(resp.Body)
		switch body.Type() {
		case ldvalue.ArrayType:
		case ldvalue.ObjectType:
			results := body.GetByKey("memories")
			if results.IsNull() {
				results = body.GetByKey("results")
			}
			assert.Equal(t, ldvalue.ArrayType, results.Type(),
				"search response had no memories or results array: %s", resp.BodySnippet(maxBodyInFailure))
		default:
			t.Abort(malformedResponse(resp))
		}
	})
}
