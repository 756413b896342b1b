package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loqalabs/courtcall/internal/bus"
	"github.com/loqalabs/courtcall/internal/config"
	"github.com/loqalabs/courtcall/internal/matchstore"
	"github.com/loqalabs/courtcall/internal/natsserver"
	"github.com/loqalabs/courtcall/internal/scorekeeper"
	"github.com/loqalabs/courtcall/internal/stt"
	"github.com/loqalabs/courtcall/internal/tts"
)

const pruneInterval = 24 * time.Hour

type Runtime struct {
	cfg            config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	telemetryClose func(context.Context) error
	ready          atomic.Bool
	wg             sync.WaitGroup

	nats        *natsserver.EmbeddedServer
	bus         *bus.Client
	store       *matchstore.Store
	scorekeeper *scorekeeper.Service
	stt         *stt.Service
	tts         *tts.Service
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(ctx, r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.telemetryClose = shutdownTelemetry

	if err := r.startServices(ctx); err != nil {
		r.stopServices(context.Background())
		return err
	}

	mux := newMux(r.scorekeeper, r.isReady, metricsHandler)
	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("http server failed", slogError(err))
		}
	}()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.pruneLoop(ctx)
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", addr),
		slog.String("court", r.cfg.Scoring.Court))

	<-ctx.Done()
	r.ready.Store(false)
	r.logger.Info("runtime stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slogError(err))
	}
	r.wg.Wait()
	r.stopServices(shutdownCtx)

	return nil
}

func (r *Runtime) startServices(ctx context.Context) error {
	var err error
	r.nats, err = natsserver.Start(r.cfg.Bus, r.logger.With(slog.String("component", "nats")))
	if err != nil {
		return err
	}
	busCfg := r.cfg.Bus
	if url := r.nats.ClientURL(); url != "" {
		busCfg.Servers = []string{url}
	}
	r.bus, err = bus.Connect(ctx, busCfg, r.cfg.RuntimeName, r.logger.With(slog.String("component", "bus")))
	if err != nil {
		return err
	}

	r.store, err = matchstore.Open(ctx, r.cfg.MatchStore, r.logger.With(slog.String("component", "matchstore")))
	if err != nil {
		return fmt.Errorf("open match store: %w", err)
	}

	r.scorekeeper = scorekeeper.NewService(ctx, r.cfg.Scoring, r.bus, r.store, r.logger)
	if err := r.scorekeeper.Start(); err != nil {
		return fmt.Errorf("start scorekeeper: %w", err)
	}

	recognizer, err := newRecognizer(r.cfg.STT)
	if err != nil {
		return err
	}
	r.stt = stt.NewService(ctx, r.cfg.STT, r.bus, recognizer)
	if err := r.stt.Start(); err != nil {
		return fmt.Errorf("start stt: %w", err)
	}

	synth, err := newSynth(r.cfg.TTS)
	if err != nil {
		return err
	}
	r.tts = tts.NewService(ctx, r.cfg.TTS, r.bus, synth, r.logger)
	if err := r.tts.Start(); err != nil {
		return fmt.Errorf("start tts: %w", err)
	}
	return nil
}

func (r *Runtime) stopServices(ctx context.Context) {
	if r.stt != nil {
		r.stt.Close()
	}
	if r.tts != nil {
		r.tts.Close()
	}
	if r.scorekeeper != nil {
		r.scorekeeper.Close()
	}
	if r.bus != nil {
		r.bus.Close()
	}
	r.nats.Shutdown()
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.logger.Error("match store close error", slogError(err))
		}
	}
	if r.telemetryClose != nil {
		if err := r.telemetryClose(ctx); err != nil {
			r.logger.Error("telemetry shutdown error", slogError(err))
		}
	}
}

func (r *Runtime) isReady() bool {
	if !r.ready.Load() || !r.bus.Healthy() {
		return false
	}
	return r.scorekeeper.Healthy() && r.stt.Healthy() && r.tts.Healthy()
}

func (r *Runtime) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.store.Prune(ctx); err != nil {
				r.logger.Warn("match store prune failed", slogError(err))
			}
		}
	}
}

func newRecognizer(cfg config.STTConfig) (stt.Recognizer, error) {
	if cfg.Mode == "exec" {
		rec, err := stt.NewExecRecognizer(cfg)
		if err != nil {
			return nil, fmt.Errorf("init stt: %w", err)
		}
		return rec, nil
	}
	return stt.NewMockRecognizer(), nil
}

func newSynth(cfg config.TTSConfig) (tts.Synthesizer, error) {
	if cfg.Mode == "exec" {
		synth, err := tts.NewExecSynth(cfg.Command, cfg.SampleRate, cfg.Channels)
		if err != nil {
			return nil, fmt.Errorf("init tts: %w", err)
		}
		return synth, nil
	}
	chunk := time.Duration(cfg.ChunkDurationMS) * time.Millisecond
	return tts.NewMockSynth(cfg.SampleRate, cfg.Channels, chunk), nil
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
