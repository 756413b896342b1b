// Package scorekeeper connects the voice pipeline to the match controller.
// It feeds transcripts from the bus through the recognizer, keeps the
// active match and its archive in the match store, and announces every
// change on the bus.
package scorekeeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loqalabs/courtcall/internal/bus"
	"github.com/loqalabs/courtcall/internal/config"
	"github.com/loqalabs/courtcall/internal/match"
	"github.com/loqalabs/courtcall/internal/matchstore"
	"github.com/loqalabs/courtcall/internal/protocol"
	"github.com/loqalabs/courtcall/internal/recognizer"
	"github.com/loqalabs/courtcall/internal/score"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Service struct {
	cfg    config.ScoringConfig
	bus    *bus.Client
	store  *matchstore.Store
	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter

	metrics instruments

	subFinal   *nats.Subscription
	subPartial *nats.Subscription
	subCommand *nats.Subscription

	ctx    context.Context
	cancel context.CancelFunc

	now   func() time.Time
	newID func() string

	mu         sync.Mutex
	engine     *score.Engine
	recognizer *recognizer.Recognizer
	controller *match.Controller
	matchID    string
	buffer     transcriptBuffer
}

func NewService(parent context.Context, cfg config.ScoringConfig, busClient *bus.Client, store *matchstore.Store, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	s := &Service{
		cfg:    cfg,
		bus:    busClient,
		store:  store,
		logger: logger.With(slog.String("component", "scorekeeper")),
		tracer: otel.Tracer("github.com/loqalabs/courtcall/scorekeeper"),
		meter:  otel.Meter("github.com/loqalabs/courtcall/scorekeeper"),
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	s.engine = score.NewEngine(func() time.Time { return s.now() })
	s.recognizer = recognizer.New(s.engine)
	s.controller = s.newController(nil)
	return s
}

func (s *Service) newController(history []match.Match) *match.Controller {
	return match.NewController(
		match.WithClock(func() time.Time { return s.now() }),
		match.WithIDs(func() string { return s.matchID }),
		match.WithHistory(history),
	)
}

// Start restores the court's match from the store and subscribes to the
// transcript and command subjects.
func (s *Service) Start() error {
	if err := s.restore(s.ctx); err != nil {
		return fmt.Errorf("restore match: %w", err)
	}
	if err := s.initMetrics(); err != nil {
		s.logger.Warn("failed to initialize metrics", slogError(err))
	}

	conn := s.bus.Conn()
	sub, err := conn.Subscribe(protocol.SubjectTranscriptFinal, s.handleTranscript)
	if err != nil {
		return err
	}
	s.subFinal = sub

	if s.cfg.RecognizePartials {
		sub, err := conn.Subscribe(protocol.SubjectTranscriptPartial, s.handleTranscript)
		if err != nil {
			s.Close()
			return err
		}
		s.subPartial = sub
	}

	sub, err = conn.Subscribe(protocol.SubjectMatchCommand, s.handleCommand)
	if err != nil {
		s.Close()
		return err
	}
	s.subCommand = sub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	for _, sub := range []*nats.Subscription{s.subFinal, s.subPartial, s.subCommand} {
		if sub != nil {
			_ = sub.Drain()
		}
	}
}

func (s *Service) Healthy() bool {
	return s.subFinal != nil && s.subCommand != nil
}

func (s *Service) restore(ctx context.Context) error {
	history, err := s.store.ListMatches(ctx, s.cfg.Court, 0)
	if err != nil {
		return err
	}
	active, ok, err := s.store.LoadActive(ctx, s.cfg.Court)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller = s.newController(history)
	if !ok {
		return nil
	}
	if err := s.controller.Resume(active.State); err != nil {
		return err
	}
	s.matchID = active.MatchID
	s.logger.Info("resumed match",
		slog.String("match_id", active.MatchID),
		slog.String("sport", string(active.State.Sport)))
	return nil
}

// Snapshot returns the active match and its display string.
func (s *Service) Snapshot() (score.ScoreState, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.controller.Active()
	if !ok {
		return score.ScoreState{}, "", false
	}
	display, err := score.Format(state)
	if err != nil {
		s.logger.Warn("format score failed", slogError(err))
	}
	return state, display, true
}

// History returns archived matches, newest first.
func (s *Service) History() []match.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.History()
}

func (s *Service) hasActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.controller.Active()
	return ok
}

func (s *Service) handleTranscript(msg *nats.Msg) {
	var transcript protocol.Transcript
	if err := json.Unmarshal(msg.Data, &transcript); err != nil {
		s.logger.Warn("scorekeeper failed to decode transcript", slogError(err))
		return
	}
	if transcript.Court != "" && transcript.Court != s.cfg.Court {
		return
	}
	if _, err := s.HandleTranscript(s.ctx, transcript); err != nil {
		if errors.Is(err, match.ErrNoActiveMatch) {
			s.logger.Debug("transcript without active match", slog.String("text", transcript.Text))
			return
		}
		s.logger.Warn("scorekeeper failed to apply transcript", slogError(err))
	}
}

// HandleTranscript adds the transcript to the running buffer and applies
// the first matching rule. Finals accumulate until a rule fires; a partial
// only replaces the previous partial of the same utterance.
func (s *Service) HandleTranscript(ctx context.Context, t protocol.Transcript) (bool, error) {
	text := strings.TrimSpace(t.Text)
	if t.Partial && (text == "" || !s.cfg.RecognizePartials) {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if text == "" {
		s.buffer.add("", false)
		return false, nil
	}
	if s.cfg.AutoEndMatches {
		s.countTranscript("ignored", "")
		return false, nil
	}
	state, ok := s.controller.Active()
	if !ok {
		s.countTranscript("ignored", "")
		return false, match.ErrNoActiveMatch
	}

	input, ok := s.buffer.add(text, t.Partial)
	if !ok {
		s.countTranscript("ignored", "")
		return false, nil
	}
	evt, ok, err := s.recognizer.Recognize(input, state)
	if err != nil {
		return false, err
	}
	if !ok {
		s.countTranscript("ignored", "")
		return false, nil
	}

	ctx, span := s.tracer.Start(ctx, "scorekeeper.apply", trace.WithAttributes(
		attribute.String("court", s.cfg.Court),
		attribute.String("rule", evt.Rule),
		attribute.Bool("partial", t.Partial),
	))
	defer span.End()

	s.buffer.fired(t.Partial)
	s.countTranscript("recognized", evt.Rule)
	if err := s.apply(ctx, evt.Rule, input, evt.Transition); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return true, err
	}
	return true, nil
}

// apply installs a transition as the active state, persists it and
// announces it. Callers hold s.mu.
func (s *Service) apply(ctx context.Context, rule, transcript string, tr score.Transition) error {
	next, ok, err := s.controller.Update(match.Replace(tr.State))
	if !ok {
		return match.ErrNoActiveMatch
	}
	if err != nil {
		return fmt.Errorf("update active match: %w", err)
	}
	if tr.GameWon() {
		s.countGame(string(next.Sport), string(tr.Winner))
		s.logger.Info("game won",
			slog.String("winner", next.Name(tr.Winner)),
			slog.Int("game", next.CurrentGame-1))
	}

	var errs []error
	if err := s.store.SaveActive(ctx, s.cfg.Court, s.matchID, next); err != nil {
		errs = append(errs, fmt.Errorf("save active match: %w", err))
	}
	point := matchstore.Point{
		MatchID:    s.matchID,
		Court:      s.cfg.Court,
		Rule:       rule,
		Transcript: transcript,
		Game:       next.CurrentGame,
		State:      next,
		CreatedAt:  s.now(),
	}
	if err := s.store.AppendPoint(ctx, point); err != nil {
		errs = append(errs, fmt.Errorf("append point: %w", err))
	}

	display, err := score.Format(next)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	update := protocol.ScoreUpdate{
		Court:      s.cfg.Court,
		State:      next,
		Display:    display,
		Rule:       rule,
		Transcript: transcript,
		GameWinner: tr.Winner,
		Timestamp:  s.now().UTC(),
	}
	if err := s.bus.PublishJSON(protocol.SubjectScoreUpdate, update); err != nil {
		errs = append(errs, err)
	}
	if err := s.announce(display); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Service) announce(text string) error {
	if !s.cfg.Announce || text == "" {
		return nil
	}
	return s.bus.PublishJSON(protocol.SubjectTTSRequest, protocol.TTSRequest{
		Court:  s.cfg.Court,
		Text:   text,
		Voice:  s.cfg.AnnouncementVoice,
		Volume: s.cfg.AnnouncementVolume,
	})
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
