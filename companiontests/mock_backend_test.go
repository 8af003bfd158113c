package companiontests

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/storybuddy/companion-contract-tests/servicedef"
)

// mockBackend is a small in-memory imitation of the companion backend that behaves well
// enough for every contract test to pass, unless told to misbehave.
type mockBackend struct {
	noCapabilities   bool
	failConversation bool
	garbageTTS       bool

	// storyContentType, if set, replaces the content type of generated stories.
	storyContentType string

	// searchEnvelope, if set, wraps memory search results in an object under this key.
	searchEnvelope string

	lock     sync.Mutex
	profiles map[string]servicedef.ProfileParams
	history  map[string][]string
	memories map[string][]servicedef.MemoryEntry
}

const generatedStoryID = "generated-tully"

func newMockBackend() *mockBackend {
	return &mockBackend{
		profiles: make(map[string]servicedef.ProfileParams),
		history:  make(map[string][]string),
		memories: make(map[string][]servicedef.MemoryEntry),
	}
}

func (m *mockBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+servicedef.PathHealth, m.health)
	mux.HandleFunc("POST "+servicedef.PathProfile, m.createProfile)
	mux.HandleFunc("GET "+servicedef.PathProfileByID, m.getProfile)
	mux.HandleFunc("POST "+servicedef.PathConversationText, m.conversation)
	mux.HandleFunc("POST "+servicedef.PathVoiceTTS, m.tts)
	mux.HandleFunc("POST "+servicedef.PathVoiceProcessAudio, m.processAudio)
	mux.HandleFunc("GET "+servicedef.PathStories, m.listStories)
	mux.HandleFunc("POST "+servicedef.PathStoryNarrate, m.narrate)
	mux.HandleFunc("GET "+servicedef.PathMemoryForUser, m.memory)
	mux.HandleFunc("POST "+servicedef.PathMemorySearch, m.searchMemory)
	mux.HandleFunc("GET "+servicedef.PathAgentsStatus, m.agents)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func toneBase64() string {
	return base64.StdEncoding.EncodeToString(generateToneWAV(time.Millisecond*250, 440))
}

func (m *mockBackend) health(w http.ResponseWriter, r *http.Request) {
	if m.noCapabilities {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "0.9.0",
		"services": map[string]string{
			"tts": "ok", "stt": "ok", "stories": "ok", "memory": "connected", "agents": "running",
		},
	})
}

func (m *mockBackend) createProfile(w http.ResponseWriter, r *http.Request) {
	var params servicedef.ProfileParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil || params.Name == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "name is required"})
		return
	}
	m.lock.Lock()
	m.profiles[params.UserID] = params
	m.lock.Unlock()
	writeJSON(w, http.StatusCreated, servicedef.ProfileResponse{Status: "success", UserID: params.UserID, Profile: params})
}

func (m *mockBackend) getProfile(w http.ResponseWriter, r *http.Request) {
	m.lock.Lock()
	profile, ok := m.profiles[r.PathValue("user_id")]
	m.lock.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "no such user"})
		return
	}
	writeJSON(w, http.StatusOK, servicedef.ProfileResponse{Status: "success", UserID: profile.UserID, Profile: profile})
}

func (m *mockBackend) conversation(w http.ResponseWriter, r *http.Request) {
	if m.failConversation {
		http.Error(w, "model overloaded", http.StatusInternalServerError)
		return
	}
	var params servicedef.ConversationTextParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil || strings.TrimSpace(params.Message) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "message is required"})
		return
	}

	m.lock.Lock()
	earlier := m.history[params.SessionID]
	m.history[params.SessionID] = append(earlier, params.Message)
	m.memories[params.UserID] = append(m.memories[params.UserID], servicedef.MemoryEntry{
		Content: params.Message, Type: "fact",
	})
	m.lock.Unlock()

	reply := servicedef.ConversationResponse{
		Status:      "success",
		SessionID:   params.SessionID,
		ContentType: servicedef.ContentTypeConversation,
	}
	message := strings.ToLower(params.Message)
	switch {
	case strings.Contains(message, "hello"):
		reply.ResponseText = "Hello Mia! It's so nice to meet you."
	case strings.Contains(message, "remember"):
		reply.ResponseText = "Hmm, I'm not sure."
		for _, e := range earlier {
			if strings.Contains(strings.ToLower(e), "elephant") {
				reply.ResponseText = "Of course! Your favorite animal is the elephant."
			}
		}
	case strings.Contains(message, "story"):
		reply.ContentType = servicedef.ContentTypeStory
		if m.storyContentType != "" {
			reply.ContentType = m.storyContentType
		}
		reply.Metadata = ldvalue.ObjectBuild().Set("story_id", ldvalue.String(generatedStoryID)).Build()
		reply.ResponseText = "Once upon a time, a brave little turtle named Tully lived by the sea. " +
			strings.Repeat("Every day Tully swam past the coral reef and waved hello to all his friends. ", 30)
	case strings.Contains(message, "hurt"):
		reply.ResponseText = "Hurting someone is never okay, even when you feel angry. " +
			"Please talk to a grown-up you trust, like your mom or dad."
	default:
		reply.ResponseText = "That's a great question! Let's think about it together."
	}
	writeJSON(w, http.StatusOK, reply)
}

func (m *mockBackend) tts(w http.ResponseWriter, r *http.Request) {
	if m.garbageTTS {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>Bad Gateway</html>"))
		return
	}
	writeJSON(w, http.StatusOK, servicedef.TTSResponse{Status: "success", AudioBase64: toneBase64(), ContentType: "audio/wav"})
}

func (m *mockBackend) processAudio(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "expected multipart form"})
		return
	}
	if _, err := base64.StdEncoding.DecodeString(r.FormValue(servicedef.FormAudioBase64)); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid audio"})
		return
	}
	writeJSON(w, http.StatusOK, servicedef.ConversationResponse{
		Status:       "success",
		SessionID:    r.FormValue(servicedef.FormSessionID),
		ResponseText: "I heard a little beep!",
	})
}

func (m *mockBackend) listStories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stories": []servicedef.StorySummary{{ID: "story-1", Title: "The Sleepy Owl", AgeGroup: "4-6"}},
	})
}

func (m *mockBackend) narrate(w http.ResponseWriter, r *http.Request) {
	if id := r.PathValue("story_id"); id != "story-1" && id != generatedStoryID {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "no such story"})
		return
	}
	writeJSON(w, http.StatusOK, servicedef.TTSResponse{Status: "success", ResponseAudio: toneBase64()})
}

func (m *mockBackend) memory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	m.lock.Lock()
	entries := append([]servicedef.MemoryEntry{}, m.memories[userID]...)
	m.lock.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"user_id": userID, "memories": entries})
}

func (m *mockBackend) searchMemory(w http.ResponseWriter, r *http.Request) {
	var params servicedef.MemorySearchParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "bad request"})
		return
	}
	found := []servicedef.MemoryEntry{}
	m.lock.Lock()
	for _, e := range m.memories[params.UserID] {
		if strings.Contains(strings.ToLower(e.Content), strings.ToLower(params.Query)) {
			found = append(found, e)
		}
	}
	m.lock.Unlock()
	if m.searchEnvelope != "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{m.searchEnvelope: found, "count": len(found)})
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (m *mockBackend) agents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, servicedef.AgentsStatusResponse{
		Status: "ok",
		Agents: map[string]servicedef.AgentStatus{
			"conversation": {Status: "healthy"},
			"storyteller":  {Status: "running"},
		},
	})
}
