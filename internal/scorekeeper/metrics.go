package scorekeeper

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type instruments struct {
	transcripts metric.Int64Counter
	games       metric.Int64Counter
	archived    metric.Int64Counter
	active      metric.Int64ObservableGauge
}

func (s *Service) initMetrics() error {
	if s.meter == nil {
		return nil
	}
	transcripts, err := s.meter.Int64Counter("courtcall.transcripts", metric.WithDescription("Transcripts seen by the scorekeeper"))
	if err != nil {
		return err
	}
	games, err := s.meter.Int64Counter("courtcall.games", metric.WithDescription("Games completed"))
	if err != nil {
		return err
	}
	archived, err := s.meter.Int64Counter("courtcall.matches.archived", metric.WithDescription("Matches ended and archived"))
	if err != nil {
		return err
	}
	active, err := s.meter.Int64ObservableGauge("courtcall.match.active", metric.WithDescription("1 while a match is in progress"))
	if err != nil {
		return err
	}
	s.metrics = instruments{transcripts: transcripts, games: games, archived: archived, active: active}
	_, err = s.meter.RegisterCallback(func(ctx context.Context, obs metric.Observer) error {
		var v int64
		if s.hasActive() {
			v = 1
		}
		obs.ObserveInt64(active, v, metric.WithAttributes(attribute.String("court", s.cfg.Court)))
		return nil
	}, active)
	return err
}

func (s *Service) countTranscript(outcome, rule string) {
	if s.metrics.transcripts == nil {
		return
	}
	s.metrics.transcripts.Add(s.ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("rule", rule),
	))
}

func (s *Service) countGame(sport, winner string) {
	if s.metrics.games == nil {
		return
	}
	s.metrics.games.Add(s.ctx, 1, metric.WithAttributes(
		attribute.String("sport", sport),
		attribute.String("winner", winner),
	))
}

func (s *Service) countArchived() {
	if s.metrics.archived == nil {
		return
	}
	s.metrics.archived.Add(s.ctx, 1)
}
