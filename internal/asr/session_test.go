package asr

import (
	"testing"

	"github.com/google/uuid"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	meeting := uuid.New()
	other := uuid.New()

	a := &Session{ID: "a", MeetingID: meeting, Role: "host"}
	b := &Session{ID: "b", MeetingID: meeting, Role: "guest"}
	c := &Session{ID: "c", MeetingID: other, Role: "participant"}
	r.Add(a)
	r.Add(b)
	r.Add(c)

	if r.Count() != 3 {
		t.Fatalf("count = %d, want 3", r.Count())
	}
	if got, ok := r.Get("b"); !ok || got != b {
		t.Fatalf("Get(b) = %v, %v", got, ok)
	}

	peers := r.ByMeeting(meeting, "b")
	if len(peers) != 1 || peers[0] != a {
		t.Fatalf("ByMeeting excluding b returned %d peers", len(peers))
	}

	r.Remove("a")
	if _, ok := r.Get("a"); ok {
		t.Fatal("session a still present after Remove")
	}
	if len(r.ByMeeting(meeting, "")) != 1 {
		t.Fatal("expected one session left in meeting")
	}
}

func TestSessionAudioBuffer(t *testing.T) {
	s := &Session{ID: "s", Active: true}
	s.AppendAudio([]byte{1, 2})
	s.AppendAudio([]byte{3, 4})

	got := s.TakeAudio()
	if string(got) != string([]byte{1, 2, 3, 4}) {
		t.Fatalf("TakeAudio = %v", got)
	}
	if len(s.TakeAudio()) != 0 {
		t.Fatal("buffer not drained after TakeAudio")
	}
}
