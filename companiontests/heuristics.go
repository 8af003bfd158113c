package companiontests

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storybuddy/companion-contract-tests/framework/harness"
	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
)

const maxBodyInFailure = 300

func requireSuccess(t *ldtest.T, resp harness.Response) {
	require.True(t, resp.IsSuccess(), "%s returned status %d: %s",
		resp.Request, resp.StatusCode, resp.BodySnippet(maxBodyInFailure))
}

func requireStatus(t *ldtest.T, resp harness.Response, allowed ...int) {
	for _, code := range allowed {
		if resp.StatusCode == code {
			return
		}
	}
	require.Fail(t, "unexpected status code",
		"%s returned status %d, expected one of %v: %s",
		resp.Request, resp.StatusCode, allowed, resp.BodySnippet(maxBodyInFailure))
}

// assertHandledGracefully checks that the backend did not fail internally on bad or unusual
// input. Rejecting the input with a 4xx status and accepting it are both fine.
func assertHandledGracefully(t *ldtest.T, resp harness.Response) {
	assert.False(t, resp.IsServerError(), "%s returned server error %d: %s",
		resp.Request, resp.StatusCode, resp.BodySnippet(maxBodyInFailure))
}

func malformedResponse(resp harness.Response) error {
	return fmt.Errorf("unexpected response shape from %s: %s", resp.Request, resp.BodySnippet(maxBodyInFailure))
}

func assertLatency(t *ldtest.T, resp harness.Response, limit time.Duration) {
	t.Debug("%s took %s (threshold %s)", resp.Request, resp.Latency, limit)
	assert.LessOrEqual(t, resp.Latency, limit, "%s was too slow", resp.Request)
}

func assertNotBlank(t *ldtest.T, text string, what string) {
	assert.NotEmpty(t, strings.TrimSpace(text), "%s was empty", what)
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

// Endings that still count as a mention of a keyword, so that "killing" matches "kill" and
// "adults" matches "adult". They are only applied to keywords of at least
// minInflectedKeyword letters; shorter ones such as "hi" must match exactly.
var inflections = []string{"s", "es", "'s", "s'", "d", "ed", "ing", "er", "ers", "y", "ly", "ty", "ous"}

const minInflectedKeyword = 4

// containsKeyword reports whether text mentions keyword, ignoring case. A single-word keyword
// must match a whole word or an inflection of it, so that "skill" does not count as "kill" but
// "stabbing" counts as "stab". A keyword with spaces or punctuation is matched as a substring.
func containsKeyword(text, keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return false
	}
	if kw := words(keyword); len(kw) != 1 || kw[0] != keyword {
		return strings.Contains(strings.ToLower(text), keyword)
	}
	for _, w := range words(text) {
		if isInflectionOf(w, keyword) {
			return true
		}
	}
	return false
}

func isInflectionOf(word, keyword string) bool {
	if word == keyword || strings.TrimSuffix(word, "'s") == keyword {
		return true
	}
	if utf8.RuneCountInString(keyword) < minInflectedKeyword {
		return false
	}
	last, size := utf8.DecodeLastRuneInString(keyword)
	stems := []string{keyword, keyword + string(last)} // stab -> stabbing
	switch {
	case strings.HasSuffix(keyword, "fe"):
		stems = append(stems, keyword[:len(keyword)-2]+"v") // knife -> knives
	case last == 'f':
		stems = append(stems, keyword[:len(keyword)-size]+"v")
	}
	for _, stem := range stems {
		if rest, ok := strings.CutPrefix(word, stem); ok && slices.Contains(inflections, rest) {
			return true
		}
	}
	return false
}

// matchingKeywords returns the keywords that text mentions, in the order they were given.
func matchingKeywords(text string, keywords []string) []string {
	var ret []string
	for _, k := range keywords {
		if containsKeyword(text, k) {
			ret = append(ret, k)
		}
	}
	return ret
}

func assertMentionsAny(t *ldtest.T, text string, keywords []string, what string) {
	assert.NotEmpty(t, matchingKeywords(text, keywords),
		"%s did not mention any of %v; text was: %q", what, keywords, truncateText(text))
}

func assertMentionsNone(t *ldtest.T, text string, keywords []string, what string) {
	found := matchingKeywords(text, keywords)
	assert.Empty(t, found, "%s mentioned %v; text was: %q", what, found, truncateText(text))
}

func assertMinWords(t *ldtest.T, text string, minWords int, what string) {
	n := wordCount(text)
	t.Debug("%s has %d words (minimum %d)", what, n, minWords)
	assert.GreaterOrEqual(t, n, minWords, "%s was too short", what)
}

func truncateText(s string) string {
	if len(s) <= maxBodyInFailure {
		return s
	}
	cut := maxBodyInFailure
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Audio container formats recognized by detectAudioFormat.
const (
	AudioFormatWAV  = "wav"
	AudioFormatMP3  = "mp3"
	AudioFormatOGG  = "ogg"
	AudioFormatFLAC = "flac"
	AudioFormatWebM = "webm"
)

// detectAudioFormat identifies an audio container by its leading magic bytes. It returns ""
// if the data is not in any known format.
func detectAudioFormat(data []byte) string {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return AudioFormatWAV
	case bytes.HasPrefix(data, []byte("ID3")):
		return AudioFormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// bare MPEG frame sync
		return AudioFormatMP3
	case bytes.HasPrefix(data, []byte("OggS")):
		return AudioFormatOGG
	case bytes.HasPrefix(data, []byte("fLaC")):
		return AudioFormatFLAC
	case bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return AudioFormatWebM
	}
	return ""
}

// decodeAudio decodes base64 audio as sent by the backend. A "data:" URI prefix is tolerated,
// and so is unpadded or URL-safe encoding.
func decodeAudio(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if comma := strings.IndexByte(encoded, ','); comma >= 0 {
			encoded = encoded[comma+1:]
		}
	}
	var err error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		var data []byte
		if data, err = enc.DecodeString(encoded); err == nil {
			return data, nil
		}
	}
	return nil, err
}

// requireAudio checks that the backend returned real audio of a plausible size, and returns
// the decoded bytes.
func requireAudio(t *ldtest.T, encoded string, minBytes int) []byte {
	require.NotEmpty(t, encoded, "response contained no audio")
	data, err := decodeAudio(encoded)
	require.NoError(t, err, "audio was not valid base64")
	format := detectAudioFormat(data)
	t.Debug("received %d bytes of audio, format %q", len(data), format)
	assert.NotEmpty(t, format, "audio was not in a recognized container format (leading bytes %x)",
		data[:min(len(data), 12)])
	assert.GreaterOrEqual(t, len(data), minBytes, "audio was implausibly short")
	return data
}
