package scorekeeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/loqalabs/courtcall/internal/match"
	"github.com/loqalabs/courtcall/internal/protocol"
	"github.com/loqalabs/courtcall/internal/score"
	"github.com/nats-io/nats.go"
)

const announceEnded = "Match ended and saved to history"

func (s *Service) handleCommand(msg *nats.Msg) {
	var cmd protocol.MatchCommand
	var reply protocol.MatchReply
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		reply = protocol.MatchReply{Error: fmt.Sprintf("decode command: %v", err)}
	} else {
		reply = s.Execute(s.ctx, cmd)
	}
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Warn("scorekeeper failed to encode reply", slogError(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("scorekeeper failed to respond", slogError(err))
	}
}

// Execute runs a match command and reports the resulting state.
func (s *Service) Execute(ctx context.Context, cmd protocol.MatchCommand) protocol.MatchReply {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		reply protocol.MatchReply
		err   error
	)
	switch cmd.Action {
	case protocol.ActionStart:
		err = s.startMatch(ctx, cmd)
	case protocol.ActionEnd:
		reply.Archived, err = s.endMatch(ctx)
	case protocol.ActionClear:
		err = s.clearHistory(ctx)
	case protocol.ActionPoint:
		err = s.creditPoint(ctx, cmd.Side)
	case protocol.ActionState:
	default:
		err = fmt.Errorf("unknown action %q", cmd.Action)
	}
	if err != nil {
		s.logger.Warn("match command failed",
			slog.String("action", cmd.Action),
			slogError(err))
		reply.Error = err.Error()
	}
	reply.OK = err == nil

	if state, ok := s.controller.Active(); ok {
		reply.State = &state
		if display, err := score.Format(state); err == nil {
			reply.Display = display
		}
	}
	return reply
}

func (s *Service) startMatch(ctx context.Context, cmd protocol.MatchCommand) error {
	sport, err := score.ParseSport(cmd.Sport)
	if err != nil {
		return err
	}
	// Validate before archiving the current match.
	if _, err := score.NewState(sport, cmd.TeamA, cmd.TeamB); err != nil {
		return err
	}
	var errs []error
	if _, err := s.endMatch(ctx); err != nil {
		errs = append(errs, err)
	}

	s.matchID = s.newID()
	state, err := s.controller.Start(sport, cmd.TeamA, cmd.TeamB)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	s.buffer.reset()
	s.logger.Info("match started",
		slog.String("match_id", s.matchID),
		slog.String("sport", string(sport)),
		slog.String("team_a", cmd.TeamA),
		slog.String("team_b", cmd.TeamB))

	if err := s.store.SaveActive(ctx, s.cfg.Court, s.matchID, state); err != nil {
		errs = append(errs, fmt.Errorf("save active match: %w", err))
	}
	display, _ := score.Format(state)
	update := protocol.ScoreUpdate{
		Court:     s.cfg.Court,
		State:     state,
		Display:   display,
		Timestamp: s.now().UTC(),
	}
	if err := s.bus.PublishJSON(protocol.SubjectScoreUpdate, update); err != nil {
		errs = append(errs, err)
	}
	if err := s.announce(fmt.Sprintf("New %s match started. %s versus %s", sport, cmd.TeamA, cmd.TeamB)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// endMatch archives the active match. Without one it does nothing.
func (s *Service) endMatch(ctx context.Context) (*match.Match, error) {
	m, ok := s.controller.End()
	if !ok {
		return nil, nil
	}
	s.matchID = ""
	s.buffer.reset()
	s.countArchived()
	s.logger.Info("match archived",
		slog.String("match_id", m.ID),
		slog.String("winner", string(m.Winner)))

	var errs []error
	if err := s.store.ArchiveMatch(ctx, s.cfg.Court, m); err != nil {
		errs = append(errs, fmt.Errorf("archive match: %w", err))
	}
	if err := s.bus.PublishJSON(protocol.SubjectMatchArchived, protocol.MatchArchived{Court: s.cfg.Court, Match: m}); err != nil {
		errs = append(errs, err)
	}
	if err := s.announce(announceEnded); err != nil {
		errs = append(errs, err)
	}
	return &m, errors.Join(errs...)
}

func (s *Service) clearHistory(ctx context.Context) error {
	s.controller.ClearHistory()
	if err := s.store.ClearMatches(ctx, s.cfg.Court); err != nil {
		return fmt.Errorf("clear matches: %w", err)
	}
	return nil
}

// creditPoint plays a rally for side through the rule engine, as the
// scoreboard's manual buttons do.
func (s *Service) creditPoint(ctx context.Context, side score.Side) error {
	state, ok := s.controller.Active()
	if !ok {
		return match.ErrNoActiveMatch
	}
	tr, err := s.engine.Point(state, side)
	if err != nil {
		return err
	}
	return s.apply(ctx, protocol.ActionPoint, "", tr)
}
