// Package runtime wires the dictation pipeline together: hotkey edges
// in, typed transcripts out, with health endpoints and telemetry around
// it. Start blocks until the context is canceled and tears everything
// down in reverse order.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/handfreelabs/handfree/internal/assets"
	"github.com/handfreelabs/handfree/internal/audio"
	"github.com/handfreelabs/handfree/internal/cleanup"
	"github.com/handfreelabs/handfree/internal/config"
	"github.com/handfreelabs/handfree/internal/history"
	"github.com/handfreelabs/handfree/internal/hotkey"
	"github.com/handfreelabs/handfree/internal/integration"
	"github.com/handfreelabs/handfree/internal/notify"
	"github.com/handfreelabs/handfree/internal/output"
	"github.com/handfreelabs/handfree/internal/session"
	"github.com/handfreelabs/handfree/internal/transcribe"
)

type Runtime struct {
	cfg           config.Config
	logger        *slog.Logger
	httpServer    *http.Server
	metricsServer *http.Server
	tracerClose   func(context.Context) error
	ready         atomic.Bool
	wg            sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

// Start brings up every subsystem, then blocks until ctx is canceled.
// A *hotkey.PermissionError from the keyboard hook is returned
// unwrapped so the caller can surface its hint.
func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var metricsHandler http.Handler
	if r.cfg.Telemetry.Enabled {
		shutdownTelemetry, handler, err := setupTelemetry(r.cfg, r.logger)
		if err != nil {
			return fmt.Errorf("failed to setup telemetry: %w", err)
		}
		r.tracerClose = shutdownTelemetry
		metricsHandler = handler
	}

	notifier := notify.New(r.cfg.Notify, r.logger)

	models := assets.NewManager(r.cfg.Transcribe.Local.ModelsDir, r.logger)
	service, err := transcribe.NewService(r.cfg.Transcribe, models, r.logger)
	if err != nil {
		return fmt.Errorf("transcription backend: %w", err)
	}
	service.OnFallback = notifier.LocalFallback

	generator := cleanup.NewGenerator(r.cfg.Cleanup.LLM, r.cfg.Transcribe.APIKey)
	pipeline := cleanup.NewPipeline(r.cfg.Cleanup, generator, r.logger)

	capture, err := audio.NewCapture(r.cfg.Audio)
	if err != nil {
		return fmt.Errorf("audio capture: %w", err)
	}
	defer capture.Close()

	tools := output.DetectTools()
	injector := output.NewInjector(r.cfg.Output, tools, r.logger)

	store, err := history.Open(ctx, r.cfg.History, r.logger)
	if err != nil {
		// Dictation still works without its transcript log.
		r.logger.Warn("history store unavailable", slog.String("error", err.Error()))
		disabled := r.cfg.History
		disabled.Enabled = false
		store, _ = history.Open(ctx, disabled, r.logger)
	}
	defer store.Close()

	var sinks []session.Sink
	if r.cfg.Telemetry.Enabled {
		meter := otel.Meter("github.com/handfreelabs/handfree/internal/runtime")
		metrics, err := newSessionMetrics(meter)
		if err != nil {
			r.logger.Warn("session metrics unavailable", slog.String("error", err.Error()))
		} else {
			sinks = append(sinks, metrics)
		}
	}
	if store.Enabled() {
		sinks = append(sinks, store)
	}
	if r.cfg.Integration.Enabled {
		busCfg := r.cfg.Integration
		busServer, err := integration.StartEmbedded(busCfg, r.logger)
		if err != nil {
			return fmt.Errorf("embedded bus: %w", err)
		}
		if busServer != nil {
			defer busServer.Shutdown()
			busCfg.Servers = []string{busServer.ClientURL()}
		}
		busClient, err := integration.Connect(busCfg, r.logger)
		if err != nil {
			return fmt.Errorf("bus connect: %w", err)
		}
		defer busClient.Close()
		sinks = append(sinks, integration.NewSink(busClient, r.logger))
	}
	sinks = append(sinks, notifier)

	orch := session.New(r.cfg, session.Deps{
		Capture:  capture,
		Service:  service,
		Cleaner:  pipeline,
		Injector: injector,
		Sinks:    sinks,
	}, r.logger)

	listener, err := hotkey.NewListener(r.cfg.Hotkey, r.logger)
	if err != nil {
		return fmt.Errorf("hotkey: %w", err)
	}
	if err := listener.Start(); err != nil {
		return err
	}
	defer listener.Stop()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.dispatchEdges(ctx, listener.Edges(), orch)
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	if metricsHandler != nil && r.cfg.Telemetry.PrometheusBind == "" {
		mux.Handle("/metrics", metricsHandler)
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	if metricsHandler != nil && r.cfg.Telemetry.PrometheusBind != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metricsHandler)
		r.metricsServer = &http.Server{
			Addr:              r.cfg.Telemetry.PrometheusBind,
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := r.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				r.logger.Error("metrics server failed", slog.String("error", err.Error()))
			}
		}()
	}

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", addr),
		slog.String("transcriber", r.cfg.Transcribe.Backend),
		slog.String("record_chord", r.cfg.Hotkey.RecordChord))

	<-ctx.Done()
	r.logger.Info("runtime stopping")
	r.ready.Store(false)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := orch.Drain(shutdownCtx); err != nil {
		r.logger.Warn("abandoning in-flight session", slog.String("error", err.Error()))
	}
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	if r.metricsServer != nil {
		if err := r.metricsServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Error("metrics shutdown error", slog.String("error", err.Error()))
		}
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

// dispatchEdges maps hotkey edges onto the orchestrator. The record
// chord drives press and release; the panel chord fires on press only.
func (r *Runtime) dispatchEdges(ctx context.Context, edges <-chan hotkey.Edge, orch *session.Orchestrator) {
	for {
		select {
		case <-ctx.Done():
			return
		case edge := <-edges:
			switch edge.Chord {
			case hotkey.ChordRecord:
				if edge.Pressed {
					orch.HandlePress(ctx)
				} else {
					orch.HandleRelease(ctx)
				}
			case hotkey.ChordPanel:
				if edge.Pressed {
					orch.HandlePanelToggle()
				}
			}
		}
	}
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
