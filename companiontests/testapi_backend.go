package companiontests

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/storybuddy/companion-contract-tests/framework"
	"github.com/storybuddy/companion-contract-tests/framework/harness"
	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
	"github.com/storybuddy/companion-contract-tests/servicedef"
)

// Session is one simulated child talking to the backend. The session and user IDs are opaque
// to the backend; they are generated fresh for every test and passed through unchanged so
// that the backend can correlate conversational turns.
type Session struct {
	SessionID string
	UserID    string
	client    *harness.BackendClient
	logger    framework.Logger
}

func NewSession(t *ldtest.T) *Session {
	s := &Session{
		SessionID: "contract-session-" + uuid.NewString(),
		UserID:    "contract-user-" + uuid.NewString(),
		client:    requireContext(t).harness.Client(),
		logger:    t.DebugLogger(),
	}
	t.Debug("session_id=%s user_id=%s", s.SessionID, s.UserID)
	return s
}

// Do sends one request. If no HTTP response is received at all, the test is aborted with
// ERROR status; any HTTP status is returned for the caller to judge.
func (s *Session) Do(t *ldtest.T, req harness.Request) harness.Response {
	resp, err := s.client.Do(context.Background(), req, s.logger)
	if err != nil {
		t.Abort(err)
	}
	return resp
}

func (s *Session) Health(t *ldtest.T) harness.Response {
	return s.Do(t, harness.Request{Method: http.MethodGet, Path: servicedef.PathHealth})
}

func (s *Session) CreateProfile(t *ldtest.T, params servicedef.ProfileParams) harness.Response {
	if params.UserID == "" {
		params.UserID = s.UserID
	}
	return s.Do(t, harness.Request{Method: http.MethodPost, Path: servicedef.PathProfile, JSON: params})
}

func (s *Session) GetProfile(t *ldtest.T) harness.Response {
	return s.Do(t, harness.Request{
		Method:     http.MethodGet,
		Path:       servicedef.PathProfileByID,
		PathParams: map[string]string{"user_id": s.UserID},
	})
}

func (s *Session) textRequest(message string) harness.Request {
	return harness.Request{
		Method: http.MethodPost,
		Path:   servicedef.PathConversationText,
		JSON: servicedef.ConversationTextParams{
			SessionID: s.SessionID,
			UserID:    s.UserID,
			Message:   message,
		},
	}
}

// SendText sends one conversational turn and returns the raw response.
func (s *Session) SendText(t *ldtest.T, message string) harness.Response {
	return s.Do(t, s.textRequest(message))
}

// Say sends one conversational turn, requires a successful status, and decodes the reply.
func (s *Session) Say(t *ldtest.T, message string) (servicedef.ConversationResponse, harness.Response) {
	resp := s.SendText(t, message)
	requireSuccess(t, resp)
	return requireJSON[servicedef.ConversationResponse](t, resp), resp
}

func (s *Session) RequestSpeech(t *ldtest.T, text string) harness.Response {
	return s.Do(t, harness.Request{
		Method: http.MethodPost,
		Path:   servicedef.PathVoiceTTS,
		JSON:   servicedef.TTSParams{Text: text, UserID: s.UserID},
	})
}

// ProcessAudio uploads base64-encoded audio as a multipart form, the way the mobile app does.
func (s *Session) ProcessAudio(t *ldtest.T, audioBase64 string) harness.Response {
	return s.Do(t, harness.Request{
		Method: http.MethodPost,
		Path:   servicedef.PathVoiceProcessAudio,
		Form: map[string]string{
			servicedef.FormSessionID:   s.SessionID,
			servicedef.FormUserID:      s.UserID,
			servicedef.FormAudioBase64: audioBase64,
		},
	})
}

func (s *Session) ListStories(t *ldtest.T) harness.Response {
	return s.Do(t, harness.Request{Method: http.MethodGet, Path: servicedef.PathStories})
}

func (s *Session) NarrateStory(t *ldtest.T, storyID string) harness.Response {
	return s.Do(t, harness.Request{
		Method:     http.MethodPost,
		Path:       servicedef.PathStoryNarrate,
		PathParams: map[string]string{"story_id": storyID},
		JSON:       servicedef.NarrateParams{UserID: s.UserID},
	})
}

func (s *Session) Memory(t *ldtest.T) harness.Response {
	return s.Do(t, harness.Request{
		Method:     http.MethodGet,
		Path:       servicedef.PathMemoryForUser,
		PathParams: map[string]string{"user_id": s.UserID},
	})
}

func (s *Session) SearchMemory(t *ldtest.T, query string) harness.Response {
	return s.Do(t, harness.Request{
		Method: http.MethodPost,
		Path:   servicedef.PathMemorySearch,
		JSON:   servicedef.MemorySearchParams{UserID: s.UserID, Query: query, Limit: 10},
	})
}

func (s *Session) AgentsStatus(t *ldtest.T) harness.Response {
	return s.Do(t, harness.Request{Method: http.MethodGet, Path: servicedef.PathAgentsStatus})
}

// BurstText sends all of the messages on this session at once, and calls judge for each
// reply in the order the messages were sent, as soon as that reply is available. If any of
// them got no HTTP response, the test is aborted.
func (s *Session) BurstText(t *ldtest.T, judge func(harness.BurstResult), messages ...string) {
	requests := make([]harness.Request, 0, len(messages))
	for _, m := range messages {
		requests = append(requests, s.textRequest(m))
	}
	for r := range s.client.StreamBurst(context.Background(), requests, s.logger) {
		if r.Err != nil {
			t.Abort(r.Err)
		}
		judge(r)
	}
}

// requireJSON decodes the response body, aborting the test if it is not valid JSON of the
// expected shape. A body that cannot be decoded means the test could not be carried out, so
// it is an ERROR rather than a FAIL.
func requireJSON[V any](t *ldtest.T, resp harness.Response) V {
	var ret V
	if err := resp.DecodeJSON(&ret); err != nil {
		t.Abort(err)
	}
	return ret
}
