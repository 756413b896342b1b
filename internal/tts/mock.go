package tts

import (
	"context"
	"strings"
	"time"
)

// wordsPerChunk is how many words of an announcement one mock chunk covers.
const wordsPerChunk = 3

// mockSynth speaks silence: one chunk of chunkDuration per few words, so
// downstream players see a realistic stream without a voice engine.
type mockSynth struct {
	sampleRate    int
	channels      int
	chunkDuration time.Duration
}

func NewMockSynth(sampleRate, channels int, chunkDuration time.Duration) Synthesizer {
	return &mockSynth{sampleRate: sampleRate, channels: channels, chunkDuration: chunkDuration}
}

func (m *mockSynth) Synthesize(ctx context.Context, req SynthRequest) (<-chan SynthChunk, <-chan error) {
	words := len(strings.Fields(req.Text))
	count := (words + wordsPerChunk - 1) / wordsPerChunk
	if count == 0 {
		count = 1
	}
	size := int(int64(m.sampleRate)*int64(m.channels)*2*m.chunkDuration.Milliseconds()/1000) &^ 1

	chunks := make(chan SynthChunk, count)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)
		for i := 0; i < count; i++ {
			if err := ctx.Err(); err != nil {
				errs <- err
				return
			}
			chunks <- SynthChunk{
				Sequence:   i,
				SampleRate: m.sampleRate,
				Channels:   m.channels,
				PCM:        make([]byte, size),
				Final:      i == count-1,
			}
		}
	}()
	return chunks, errs
}
