package companiontests

import (
	"encoding/base64"
	"time"

	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
	"github.com/storybuddy/companion-contract-tests/servicedef"
)

func DoVoiceTests(t *ldtest.T) {
	t.Run("text to speech", doTextToSpeechTests)
	t.Run("speech input", doSpeechInputTests)
}

func doTextToSpeechTests(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityTTS)

	t.Run("returns decodable audio", func(t *ldtest.T) {
		resp := NewSession(t).RequestSpeech(t, "Once upon a time, there was a little owl.")
		requireSuccess(t, resp)
		tts := requireJSON[servicedef.TTSResponse](t, resp)
		requireAudio(t, tts.Audio(), thresholds(t).MinAudioBytes)
	})

	t.Run("responds within latency threshold", func(t *ldtest.T) {
		resp := NewSession(t).RequestSpeech(t, "Good night!")
		requireSuccess(t, resp)
		assertLatency(t, resp, thresholds(t).VoiceLatency)
	})
}

func doSpeechInputTests(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilitySTT)

	t.Run("accepts WAV audio", func(t *ldtest.T) {
		audio := generateToneWAV(time.Second, 440)
		resp := NewSession(t).ProcessAudio(t, base64.StdEncoding.EncodeToString(audio))
		requireSuccess(t, resp)
		reply := requireJSON[servicedef.ConversationResponse](t, resp)
		t.Debug("reply to audio: %q", reply.ResponseText)
		assertLatency(t, resp, thresholds(t).VoiceLatency)
	})

	t.Run("invalid base64 handled gracefully", func(t *ldtest.T) {
		resp := NewSession(t).ProcessAudio(t, "this is *not* base64!")
		assertHandledGracefully(t, resp)
	})
}
