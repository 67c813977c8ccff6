package asr

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func pcm16(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestRMSAmplitude(t *testing.T) {
	if got := rmsAmplitude(nil); got != 0 {
		t.Errorf("rms of empty = %v, want 0", got)
	}
	if got := rmsAmplitude(pcm16(0, 0, 0, 0)); got != 0 {
		t.Errorf("rms of silence = %v, want 0", got)
	}

	// Constant amplitude: RMS equals the amplitude.
	if got := rmsAmplitude(pcm16(1000, -1000, 1000, -1000)); math.Abs(got-1000) > 1e-9 {
		t.Errorf("rms of square wave = %v, want 1000", got)
	}

	quiet := rmsAmplitude(pcm16(10, -12, 8, -9))
	loud := rmsAmplitude(pcm16(8000, -7500, 9000, -8200))
	if quiet >= voiceRMSThreshold {
		t.Errorf("quiet rms %v crosses the voice threshold", quiet)
	}
	if loud < voiceRMSThreshold {
		t.Errorf("loud rms %v does not cross the voice threshold", loud)
	}
}

func TestWriteWAV(t *testing.T) {
	pcm := pcm16(100, -200, 300, -400)
	path := filepath.Join(t.TempDir(), "capture.wav")

	if err := writeWAV(path, pcm, 16000, 1); err != nil {
		t.Fatalf("writeWAV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if len(data) != 44+len(pcm) {
		t.Fatalf("file size = %d, want %d", len(data), 44+len(pcm))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Errorf("missing RIFF/WAVE markers")
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	if ch := binary.LittleEndian.Uint16(data[22:24]); ch != 1 {
		t.Errorf("channels = %d, want 1", ch)
	}
	if size := binary.LittleEndian.Uint32(data[40:44]); int(size) != len(pcm) {
		t.Errorf("data chunk size = %d, want %d", size, len(pcm))
	}
	if string(data[44:]) != string(pcm) {
		t.Errorf("payload mismatch")
	}
}
