// Package servicedef describes the request and response payloads of the companion backend's
// HTTP API, as far as the contract tests rely on them. Fields the tests never look at are
// omitted; the backend is free to send more.
package servicedef

import "gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

// API paths. Paths containing {name} placeholders are expanded from request path params.
const (
	PathHealth            = "/api/health"
	PathProfile           = "/api/users/profile"
	PathProfileByID       = "/api/users/profile/{user_id}"
	PathConversationText  = "/api/conversations/text"
	PathVoiceTTS          = "/api/voice/tts"
	PathVoiceProcessAudio = "/api/voice/process_audio"
	PathStories           = "/api/content/stories"
	PathStoryNarrate      = "/api/content/stories/{story_id}/narrate"
	PathMemoryForUser     = "/api/memory/{user_id}"
	PathMemorySearch      = "/api/memory/search"
	PathAgentsStatus      = "/api/agents/status"
)

const (
	ContentTypeStory        = "story"
	ContentTypeConversation = "conversation"
)

// Capability names that a backend may advertise in its status response, either in the
// "capabilities" list or as the name of a healthy entry in "services".
const (
	CapabilityTTS     = "tts"
	CapabilitySTT     = "stt"
	CapabilityStories = "stories"
	CapabilityMemory  = "memory"
	CapabilityAgents  = "agents"
)

type ProfileParams struct {
	UserID    string              `json:"user_id,omitempty"`
	Name      string              `json:"name,omitempty"`
	Age       ldvalue.OptionalInt `json:"age,omitempty"`
	Language  string              `json:"language,omitempty"`
	Interests []string            `json:"interests,omitempty"`
	Voice     string              `json:"preferred_voice,omitempty"`
}

type ProfileResponse struct {
	Status  string        `json:"status"`
	UserID  string        `json:"user_id"`
	Profile ProfileParams `json:"profile"`
	Name    string        `json:"name"`
}

// DisplayName returns the name from whichever envelope the backend used: some versions nest
// the profile, others return its fields at the top level.
func (p ProfileResponse) DisplayName() string {
	if p.Profile.Name != "" {
		return p.Profile.Name
	}
	return p.Name
}

type ConversationTextParams struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
}

type ConversationResponse struct {
	Status        string        `json:"status"`
	SessionID     string        `json:"session_id,omitempty"`
	ResponseText  string        `json:"response_text"`
	ResponseAudio string        `json:"response_audio,omitempty"`
	ContentType   string        `json:"content_type,omitempty"`
	Metadata      ldvalue.Value `json:"metadata"`
}

// StoryID returns the identifier of the generated story, if the backend reported one in the
// response metadata.
func (c ConversationResponse) StoryID() string {
	for _, key := range []string{"story_id", "content_id", "id"} {
		if v := c.Metadata.GetByKey(key); v.IsString() {
			return v.StringValue()
		}
	}
	return ""
}

type TTSParams struct {
	Text   string `json:"text"`
	Voice  string `json:"voice,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

type TTSResponse struct {
	Status          string  `json:"status"`
	AudioBase64     string  `json:"audio_base64,omitempty"`
	ResponseAudio   string  `json:"response_audio,omitempty"`
	ContentType     string  `json:"content_type,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// Audio returns the base64 audio from whichever field the backend populated.
func (r TTSResponse) Audio() string {
	if r.AudioBase64 != "" {
		return r.AudioBase64
	}
	return r.ResponseAudio
}

// Form field names for PathVoiceProcessAudio, which takes multipart/form-data.
const (
	FormSessionID   = "session_id"
	FormUserID      = "user_id"
	FormAudioBase64 = "audio_base64"
)

type StorySummary struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	AgeGroup string              `json:"age_group,omitempty"`
	Duration ldvalue.OptionalInt `json:"duration,omitempty"`
}

// StoryListResponse accepts either {"stories": [...]} or a bare JSON array.
type StoryListResponse struct {
	Stories []StorySummary `json:"stories"`
}

func (s *StoryListResponse) UnmarshalJSON(data []byte) error {
	return unmarshalListOrEnvelope(data, &s.Stories, func(v *struct {
		Stories []StorySummary `json:"stories"`
	}) {
		s.Stories = v.Stories
	})
}

type NarrateParams struct {
	UserID string `json:"user_id"`
	Voice  string `json:"voice,omitempty"`
}

type MemoryEntry struct {
	Content   string `json:"content"`
	Type      string `json:"type,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// MemoryResponse accepts either {"memories": [...]} or a bare JSON array.
type MemoryResponse struct {
	UserID   string        `json:"user_id,omitempty"`
	Memories []MemoryEntry `json:"memories"`
}

func (m *MemoryResponse) UnmarshalJSON(data []byte) error {
	return unmarshalListOrEnvelope(data, &m.Memories, func(v *struct {
		UserID   string        `json:"user_id,omitempty"`
		Memories []MemoryEntry `json:"memories"`
	}) {
		m.UserID, m.Memories = v.UserID, v.Memories
	})
}

type MemorySearchParams struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
}

type AgentStatus struct {
	Status string `json:"status"`
}

type AgentsStatusResponse struct {
	Status string                 `json:"status"`
	Agents map[string]AgentStatus `json:"agents"`
}

// ErrorResponse is the envelope some endpoints use for rejected input.
type ErrorResponse struct {
	Status string        `json:"status"`
	Error  string        `json:"error"`
	Detail ldvalue.Value `json:"detail"`
}
