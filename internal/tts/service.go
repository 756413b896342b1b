// Package tts speaks score announcements on the court speakers. Requests
// for a court are played one at a time in arrival order.
package tts

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/loqalabs/courtcall/internal/bus"
	"github.com/loqalabs/courtcall/internal/config"
	"github.com/loqalabs/courtcall/internal/protocol"
	"github.com/nats-io/nats.go"
)

const queueSize = 16

type Service struct {
	cfg    config.TTSConfig
	bus    *bus.Client
	synth  Synthesizer
	sub    *nats.Subscription
	queue  chan protocol.TTSRequest
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
	now    func() time.Time
}

func NewService(parent context.Context, cfg config.TTSConfig, busClient *bus.Client, synth Synthesizer, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		cfg:    cfg,
		bus:    busClient,
		synth:  synth,
		queue:  make(chan protocol.TTSRequest, queueSize),
		ctx:    ctx,
		cancel: cancel,
		logger: log.With(slog.String("component", "tts-service")),
		now:    time.Now,
	}
}

func (s *Service) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectTTSRequest, s.handleRequest)
	if err != nil {
		return err
	}
	s.sub = sub

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case req := <-s.queue:
				s.speak(req)
			case <-s.ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return !s.cfg.Enabled || s.sub != nil }

func (s *Service) handleRequest(msg *nats.Msg) {
	var req protocol.TTSRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode tts request", slogError(err))
		return
	}
	if req.Text == "" {
		return
	}
	select {
	case s.queue <- req:
	default:
		s.logger.Warn("tts queue full, dropping announcement",
			slog.String("court", req.Court),
			slog.String("text", req.Text))
	}
}

func (s *Service) speak(req protocol.TTSRequest) {
	ctx, cancel := context.WithTimeout(s.ctx, 45*time.Second)
	defer cancel()

	chunks, errs := s.synth.Synthesize(ctx, SynthRequest{Court: req.Court, Text: req.Text, Voice: req.Voice})
	sequence := 0
	for chunks != nil || errs != nil {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			chunk.Sequence = sequence
			sequence++
			s.publishChunk(req, chunk)
		case err, ok := <-errs:
			if ok && err != nil {
				s.logger.Warn("tts synthesis error",
					slog.String("court", req.Court),
					slogError(err))
			}
			errs = nil
		case <-ctx.Done():
			s.logger.Warn("tts synthesis cancelled", slogError(ctx.Err()))
			return
		}
	}
}

func (s *Service) publishChunk(req protocol.TTSRequest, chunk SynthChunk) {
	packet := protocol.AudioChunk{
		Court:      req.Court,
		SampleRate: chunk.SampleRate,
		Channels:   chunk.Channels,
		Sequence:   chunk.Sequence,
		Volume:     req.Volume,
		PCM:        applyVolume(chunk.PCM, req.Volume),
		Final:      chunk.Final,
	}
	if err := s.bus.PublishJSON(protocol.SubjectTTSAudio, packet); err != nil {
		s.logger.Warn("failed to publish tts chunk", slogError(err))
	}
	if chunk.Final {
		status := protocol.TTSStatus{Court: req.Court, Completed: true, Timestamp: s.now().UTC()}
		if err := s.bus.PublishJSON(protocol.SubjectTTSDone, status); err != nil {
			s.logger.Warn("failed to publish tts status", slogError(err))
		}
	}
}

// applyVolume scales 16-bit little-endian PCM by volume in [0, 1]. A volume
// of 1 or more returns pcm unchanged.
func applyVolume(pcm []byte, volume float64) []byte {
	if volume >= 1 || len(pcm) < 2 {
		return pcm
	}
	if volume < 0 {
		volume = 0
	}
	out := make([]byte, len(pcm))
	copy(out, pcm)
	for i := 0; i+1 < len(out); i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(out[i:])))
		scaled := int16(math.Round(sample * volume))
		binary.LittleEndian.PutUint16(out[i:], uint16(scaled))
	}
	return out
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
