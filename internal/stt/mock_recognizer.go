package stt

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// mockRecognizer replays a script of umpire calls, one per utterance.
// Without a script it describes the audio it was given.
type mockRecognizer struct {
	mu     sync.Mutex
	script []string
	next   int
}

func NewMockRecognizer(script ...string) Recognizer {
	return &mockRecognizer{script: script}
}

func (m *mockRecognizer) Transcribe(_ context.Context, pcm []byte, _ int, _ int, final bool) (TranscriptResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.script) == 0 {
		mode := "partial"
		if final {
			mode = "final"
		}
		return TranscriptResult{Text: fmt.Sprintf("[%s transcript length=%d]", mode, len(pcm))}, nil
	}

	line := m.script[m.next%len(m.script)]
	if !final {
		// Interim results carry the first word of the call.
		first, _, _ := strings.Cut(line, " ")
		return TranscriptResult{Text: first, Confidence: 0.5}, nil
	}
	m.next++
	return TranscriptResult{Text: line, Confidence: 1}, nil
}
