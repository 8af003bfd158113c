package companiontests

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
	"github.com/storybuddy/companion-contract-tests/servicedef"
)

func DoStoryTests(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityStories)

	t.Run("story request meets minimum length", func(t *ldtest.T) {
		s := NewSession(t)
		reply, resp := s.Say(t,
			"Can you tell me a long bedtime story about a brave little turtle named Tully?")
		assertMinWords(t, reply.ResponseText, thresholds(t).StoryMinWords, "story")
		assertMentionsAny(t, reply.ResponseText, []string{"turtle", "Tully"}, "story")
		assertLatency(t, resp, thresholds(t).StoryLatency)
		if reply.ContentType != "" {
			assert.Equal(t, servicedef.ContentTypeStory, reply.ContentType, "story was not labeled as a story")
		}

		// a generated story that the backend saved should be narratable like a library story
		storyID := reply.StoryID()
		if storyID == "" || !t.Capabilities().Has(servicedef.CapabilityTTS) {
			return
		}
		t.Debug("narrating generated story %s", storyID)
		narrationResp := s.NarrateStory(t, storyID)
		requireSuccess(t, narrationResp)
		narration := requireJSON[servicedef.TTSResponse](t, narrationResp)
		requireAudio(t, narration.Audio(), thresholds(t).MinAudioBytes)
	})

	t.Run("library lists stories", func(t *ldtest.T) {
		resp := NewSession(t).ListStories(t)
		requireSuccess(t, resp)
		list := requireJSON[servicedef.StoryListResponse](t, resp)
		require.NotEmpty(t, list.Stories, "story library is empty")
		for _, story := range list.Stories {
			require.NotEmpty(t, story.ID, "story %q has no ID", story.Title)
		}
	})

	t.Run("narrating a listed story returns audio", func(t *ldtest.T) {
		t.RequireCapability(servicedef.CapabilityTTS)
		s := NewSession(t)
		listResp := s.ListStories(t)
		requireSuccess(t, listResp)
		list := requireJSON[servicedef.StoryListResponse](t, listResp)
		if len(list.Stories) == 0 || list.Stories[0].ID == "" {
			t.SkipWithReason("story library has no story to narrate")
		}

		resp := s.NarrateStory(t, list.Stories[0].ID)
		requireSuccess(t, resp)
		narration := requireJSON[servicedef.TTSResponse](t, resp)
		requireAudio(t, narration.Audio(), thresholds(t).MinAudioBytes)
	})
}
