package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/handfreelabs/handfree/internal/config"
)

// ModelStore resolves local recognizer model assets.
type ModelStore interface {
	Path(model string) string
	IsDownloaded(model string) bool
	Download(ctx context.Context, model string) (string, error)
}

// Service owns backend selection and the vocabulary prompt. The local backend
// is resolved on first use so model verification and download can run under
// the caller's context; when the model is missing and remote credentials are
// configured the service switches to the remote backend for the rest of the
// process.
type Service struct {
	cfg    config.TranscribeConfig
	store  ModelStore
	logger *slog.Logger
	prompt string

	// OnFallback, when set, is called once if the missing local model
	// forces the permanent switch to remote transcription.
	OnFallback func(model string)

	mu      sync.Mutex
	backend Transcriber
}

func NewService(cfg config.TranscribeConfig, store ModelStore, logger *slog.Logger) (*Service, error) {
	svc := &Service{
		cfg:    cfg,
		store:  store,
		logger: logger.With(slog.String("component", "transcribe")),
	}
	if cfg.VocabularyFile != "" {
		prompt, err := LoadVocabulary(cfg.VocabularyFile)
		if err != nil {
			return nil, err
		}
		svc.prompt = prompt
	}
	switch cfg.Backend {
	case "groq":
		backend, err := NewGroqTranscriber(cfg)
		if err != nil {
			return nil, err
		}
		svc.backend = backend
	case "mock":
		svc.backend = NewMockTranscriber()
	case "local":
		if store == nil {
			return nil, fmt.Errorf("local transcribe backend requires a model store")
		}
	default:
		return nil, fmt.Errorf("unsupported transcribe backend: %s", cfg.Backend)
	}
	return svc, nil
}

func (s *Service) Transcribe(ctx context.Context, req Request) (Result, error) {
	if len(req.WAV) == 0 {
		return Result{}, nil
	}
	backend, err := s.transcriber(ctx)
	if err != nil {
		return Result{}, err
	}
	if req.Prompt == "" {
		req.Prompt = s.prompt
	}
	res, err := backend.Transcribe(ctx, req)
	if err != nil {
		return Result{}, err
	}
	res.Text = strings.TrimSpace(res.Text)
	return res, nil
}

func (s *Service) transcriber(ctx context.Context) (Transcriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend != nil {
		return s.backend, nil
	}

	model := s.cfg.Local.Model
	if s.store.IsDownloaded(model) {
		backend, err := NewLocalTranscriber(s.cfg, s.store.Path(model))
		if err != nil {
			return nil, err
		}
		s.backend = backend
		return s.backend, nil
	}

	if s.cfg.APIKey != "" {
		s.logger.Warn("local model not downloaded, switching to remote transcription",
			slog.String("model", model),
			slog.String("path", s.store.Path(model)))
		backend, err := NewGroqTranscriber(s.cfg)
		if err != nil {
			return nil, err
		}
		if s.OnFallback != nil {
			s.OnFallback(model)
		}
		s.backend = backend
		return s.backend, nil
	}

	if !s.cfg.Local.AutoDownload {
		return nil, fmt.Errorf("local model %q is not downloaded and auto_download is disabled", model)
	}

	s.logger.Info("downloading local model", slog.String("model", model))
	path, err := s.store.Download(ctx, model)
	if err != nil {
		return nil, err
	}
	backend, err := NewLocalTranscriber(s.cfg, path)
	if err != nil {
		return nil, err
	}
	s.backend = backend
	return s.backend, nil
}
