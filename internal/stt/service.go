// Package stt turns court microphone audio into transcripts. Frames are
// buffered per court until the microphone marks the end of an utterance;
// interim transcripts are produced on a timer while the umpire is speaking.
package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/loqalabs/courtcall/internal/bus"
	"github.com/loqalabs/courtcall/internal/config"
	"github.com/loqalabs/courtcall/internal/protocol"
	"github.com/nats-io/nats.go"
)

type Service struct {
	cfg        config.STTConfig
	bus        *bus.Client
	recognizer Recognizer
	logger     *slog.Logger
	now        func() time.Time
	courts     map[string]*utterance
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	sub        *nats.Subscription
	wg         sync.WaitGroup
	ready      bool
}

// utterance is the audio a court has sent since its last final transcript.
type utterance struct {
	Buffer       []byte
	LastPartial  time.Time
	Inflight     bool
	PendingFinal bool
}

func NewService(parent context.Context, cfg config.STTConfig, busClient *bus.Client, recognizer Recognizer) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		cfg:        cfg,
		bus:        busClient,
		recognizer: recognizer,
		logger:     busClient.Logger().With(slog.String("component", "stt")),
		now:        time.Now,
		courts:     make(map[string]*utterance),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Service) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	subject := protocol.SubjectAudioFramePrefix + ".>"
	sub, err := s.bus.Conn().Subscribe(subject, s.handleFrame)
	if err != nil {
		return fmt.Errorf("subscribe audio frames: %w", err)
	}
	s.sub = sub
	s.ready = true
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool {
	return !s.cfg.Enabled || s.ready
}

func (s *Service) handleFrame(msg *nats.Msg) {
	var frame protocol.AudioFrame
	if err := json.Unmarshal(msg.Data, &frame); err != nil {
		s.logger.Warn("failed to decode audio frame", slogError(err))
		return
	}
	court := frame.Court
	if court == "" {
		court = strings.TrimPrefix(msg.Subject, protocol.SubjectAudioFramePrefix+".")
	}

	s.mu.Lock()
	state := s.courts[court]
	if state == nil {
		state = &utterance{}
		s.courts[court] = state
	}
	state.Buffer = append(state.Buffer, frame.PCM...)
	s.mu.Unlock()

	if s.cfg.PublishInterim && !frame.Final && s.shouldSchedulePartial(court) {
		s.scheduleTranscription(court, false)
	}
	if frame.Final {
		s.scheduleTranscription(court, true)
	}
}

func (s *Service) shouldSchedulePartial(court string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.courts[court]
	if state == nil || state.Inflight {
		return false
	}
	now := s.now()
	if state.LastPartial.IsZero() {
		state.LastPartial = now
		return true
	}
	interval := time.Duration(s.cfg.PartialEveryMS) * time.Millisecond
	if interval <= 0 {
		return false
	}
	if now.Sub(state.LastPartial) >= interval {
		state.LastPartial = now
		return true
	}
	return false
}

func (s *Service) scheduleTranscription(court string, final bool) {
	s.mu.Lock()
	state := s.courts[court]
	if state == nil {
		s.mu.Unlock()
		return
	}
	if state.Inflight {
		if final {
			state.PendingFinal = true
		}
		s.mu.Unlock()
		return
	}
	pcm := append([]byte(nil), state.Buffer...)
	state.Inflight = true
	if final {
		// Later frames start the next utterance.
		delete(s.courts, court)
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, 45*time.Second)
		defer cancel()

		result, err := s.recognizer.Transcribe(ctx, pcm, s.cfg.SampleRate, s.cfg.Channels, final)
		if err != nil {
			s.logger.Warn("stt transcription failed",
				slog.String("court", court),
				slogError(err))
		} else {
			s.publishTranscript(court, result, final)
		}
		if final {
			return
		}

		s.mu.Lock()
		var pendingFinal bool
		if state := s.courts[court]; state != nil {
			state.Inflight = false
			state.LastPartial = s.now()
			pendingFinal = state.PendingFinal
			state.PendingFinal = false
		}
		s.mu.Unlock()

		if pendingFinal {
			s.scheduleTranscription(court, true)
		}
	}()
}

func (s *Service) publishTranscript(court string, result TranscriptResult, final bool) {
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return
	}
	subject := protocol.SubjectTranscriptPartial
	if final {
		subject = protocol.SubjectTranscriptFinal
	}
	msg := protocol.Transcript{
		Court:      court,
		Text:       text,
		Partial:    !final,
		Timestamp:  s.now().UTC(),
		Confidence: result.Confidence,
	}
	if err := s.bus.PublishJSON(subject, msg); err != nil {
		s.logger.Warn("failed to publish transcript", slogError(err))
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
