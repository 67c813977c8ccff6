package asr

import (
	"bytes"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session is the in-memory state of one audio-capture connection. Audio
// bytes accumulate until finalize; nothing in-flight survives a disconnect.
type Session struct {
	ID            string
	MeetingID     uuid.UUID
	ParticipantID string
	Role          string // host | participant | guest
	DisplayName   string
	SampleRate    int
	Channels      int
	Active        bool

	conn    *websocket.Conn
	writeMu sync.Mutex // broadcasts write from other connections' goroutines
	audioMu sync.Mutex
	audio   bytes.Buffer
}

// WriteJSON sends a control message on this session's connection.
func (s *Session) WriteJSON(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// AppendAudio buffers one binary PCM chunk.
func (s *Session) AppendAudio(chunk []byte) {
	s.audioMu.Lock()
	s.audio.Write(chunk)
	s.audioMu.Unlock()
}

// TakeAudio drains and returns the buffered audio.
func (s *Session) TakeAudio() []byte {
	s.audioMu.Lock()
	defer s.audioMu.Unlock()
	out := make([]byte, s.audio.Len())
	copy(out, s.audio.Bytes())
	s.audio.Reset()
	return out
}

// Registry tracks live sessions for one process. Horizontal scaling of the
// audio gateway needs sticky routing; sessions are never shared across
// instances.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
}

// Remove drops a session by id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Get returns a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// ByMeeting returns every session in a meeting except the one with skipID.
func (r *Registry) ByMeeting(meetingID uuid.UUID, skipID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for _, s := range r.sessions {
		if s.MeetingID == meetingID && s.ID != skipID {
			out = append(out, s)
		}
	}
	return out
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
