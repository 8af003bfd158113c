package companiontests

import (
	"github.com/stretchr/testify/assert"

	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
	"github.com/storybuddy/companion-contract-tests/servicedef"
)

func DoConversationTests(t *ldtest.T) {
	t.Run("greeting gets a reply", func(t *ldtest.T) {
		reply, _ := NewSession(t).Say(t, "Hello! My name is Mia.")
		assertNotBlank(t, reply.ResponseText, "reply to greeting")
		if reply.ContentType != "" {
			assert.Equal(t, servicedef.ContentTypeConversation, reply.ContentType, "greeting was not answered conversationally")
		}
	})

	t.Run("greeting reply is friendly", func(t *ldtest.T) {
		reply, _ := NewSession(t).Say(t, "Hello! My name is Mia.")
		assertMentionsAny(t, reply.ResponseText, append([]string{"Mia"}, keywords(t).Greeting...),
			"reply to greeting")
	})

	t.Run("reply within latency threshold", func(t *ldtest.T) {
		_, resp := NewSession(t).Say(t, "What sound does a cow make?")
		assertLatency(t, resp, thresholds(t).TextLatency)
	})

	t.Run("remembers context across turns", func(t *ldtest.T) {
		s := NewSession(t)
		s.Say(t, "My favorite animal is the elephant.")
		reply, _ := s.Say(t, "Do you remember what my favorite animal is?")
		assertMentionsAny(t, reply.ResponseText, []string{"elephant", "elephants"}, "reply to recall question")
	})

	t.Run("empty message handled gracefully", func(t *ldtest.T) {
		resp := NewSession(t).SendText(t, "")
		assertHandledGracefully(t, resp)
	})

	t.Run("session continuity over three turns", func(t *ldtest.T) {
		s := NewSession(t)
		for _, message := range []string{
			"Hi, I'm Leo.",
			"I like trains.",
			"What do I like?",
		} {
			reply, _ := s.Say(t, message)
			assertNotBlank(t, reply.ResponseText, "reply to "+message)
			if reply.SessionID != "" {
				assert.Equal(t, s.SessionID, reply.SessionID, "backend switched sessions")
			}
		}
	})
}
