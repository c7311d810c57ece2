package transcribe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/handfreelabs/handfree/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStore struct {
	dir         string
	downloaded  map[string]bool
	downloads   []string
	downloadErr error
}

func (f *fakeStore) Path(model string) string {
	return filepath.Join(f.dir, "ggml-"+model+".bin")
}

func (f *fakeStore) IsDownloaded(model string) bool {
	return f.downloaded[model]
}

func (f *fakeStore) Download(_ context.Context, model string) (string, error) {
	if f.downloadErr != nil {
		return "", f.downloadErr
	}
	f.downloads = append(f.downloads, model)
	return f.Path(model), nil
}

type recordingTranscriber struct {
	calls int
	last  Request
	res   Result
	err   error
}

func (r *recordingTranscriber) Transcribe(_ context.Context, req Request) (Result, error) {
	r.calls++
	r.last = req
	return r.res, r.err
}

func localServiceConfig() config.TranscribeConfig {
	return config.TranscribeConfig{
		Backend:    "local",
		APIBase:    "https://api.groq.com/openai/v1",
		Model:      "whisper-large-v3-turbo",
		MaxRetries: 3,
		TimeoutS:   5,
		Local: config.LocalRecognizeConfig{
			Command:      "whisper-cli",
			Model:        "base.en",
			AutoDownload: true,
		},
	}
}

func TestServiceEmptyAudioSkipsBackend(t *testing.T) {
	rec := &recordingTranscriber{res: Result{Text: "should not appear", Backend: "mock"}}
	svc := &Service{cfg: config.TranscribeConfig{Backend: "mock"}, backend: rec, logger: testLogger()}

	res, err := svc.Transcribe(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if res.Text != "" || res.Backend != "" {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if rec.calls != 0 {
		t.Fatalf("backend called %d times for empty audio", rec.calls)
	}
}

func TestServiceTrimsText(t *testing.T) {
	rec := &recordingTranscriber{res: Result{Text: "  hello world \n", Backend: "mock"}}
	svc := &Service{cfg: config.TranscribeConfig{Backend: "mock"}, backend: rec, logger: testLogger()}

	res, err := svc.Transcribe(context.Background(), Request{WAV: []byte("RIFF")})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if res.Text != "hello world" {
		t.Fatalf("expected trimmed text, got %q", res.Text)
	}
}

func TestServiceAppliesVocabularyPrompt(t *testing.T) {
	dir := t.TempDir()
	vocab := filepath.Join(dir, "vocabulary.txt")
	body := "# project terms\nhandfree\n\nwayland\n"
	if err := os.WriteFile(vocab, []byte(body), 0o644); err != nil {
		t.Fatalf("write vocabulary: %v", err)
	}

	cfg := config.TranscribeConfig{Backend: "mock", VocabularyFile: vocab}
	svc, err := NewService(cfg, nil, testLogger())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	rec := &recordingTranscriber{res: Result{Text: "ok", Backend: "mock"}}
	svc.backend = rec

	if _, err := svc.Transcribe(context.Background(), Request{WAV: []byte("RIFF")}); err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if rec.last.Prompt != "handfree, wayland" {
		t.Fatalf("unexpected prompt %q", rec.last.Prompt)
	}

	if _, err := svc.Transcribe(context.Background(), Request{WAV: []byte("RIFF"), Prompt: "override"}); err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if rec.last.Prompt != "override" {
		t.Fatalf("explicit prompt not honored, got %q", rec.last.Prompt)
	}
}

func TestServiceUsesLocalModelWhenPresent(t *testing.T) {
	store := &fakeStore{dir: t.TempDir(), downloaded: map[string]bool{"base.en": true}}
	svc, err := NewService(localServiceConfig(), store, testLogger())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	backend, err := svc.transcriber(context.Background())
	if err != nil {
		t.Fatalf("transcriber failed: %v", err)
	}
	local, ok := backend.(*localTranscriber)
	if !ok {
		t.Fatalf("expected local transcriber, got %T", backend)
	}
	if local.modelPath != store.Path("base.en") {
		t.Fatalf("unexpected model path %q", local.modelPath)
	}
	if len(store.downloads) != 0 {
		t.Fatalf("unexpected downloads %v", store.downloads)
	}
}

func TestServiceFallsBackToRemoteWhenModelMissing(t *testing.T) {
	store := &fakeStore{dir: t.TempDir(), downloaded: map[string]bool{}}
	cfg := localServiceConfig()
	cfg.APIKey = "gsk-test"

	svc, err := NewService(cfg, store, testLogger())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	backend, err := svc.transcriber(context.Background())
	if err != nil {
		t.Fatalf("transcriber failed: %v", err)
	}
	if _, ok := backend.(*groqTranscriber); !ok {
		t.Fatalf("expected remote fallback, got %T", backend)
	}
	if len(store.downloads) != 0 {
		t.Fatalf("fallback must not download, got %v", store.downloads)
	}

	again, err := svc.transcriber(context.Background())
	if err != nil {
		t.Fatalf("transcriber failed: %v", err)
	}
	if again != backend {
		t.Fatalf("fallback backend not cached")
	}
}

func TestServiceDownloadsModelWithoutRemote(t *testing.T) {
	store := &fakeStore{dir: t.TempDir(), downloaded: map[string]bool{}}
	svc, err := NewService(localServiceConfig(), store, testLogger())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	backend, err := svc.transcriber(context.Background())
	if err != nil {
		t.Fatalf("transcriber failed: %v", err)
	}
	if _, ok := backend.(*localTranscriber); !ok {
		t.Fatalf("expected local transcriber, got %T", backend)
	}
	if len(store.downloads) != 1 || store.downloads[0] != "base.en" {
		t.Fatalf("unexpected downloads %v", store.downloads)
	}
}

func TestServiceSurfacesDownloadFailure(t *testing.T) {
	store := &fakeStore{dir: t.TempDir(), downloaded: map[string]bool{}, downloadErr: errors.New("connection reset")}
	svc, err := NewService(localServiceConfig(), store, testLogger())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	_, err = svc.Transcribe(context.Background(), Request{WAV: []byte("RIFF")})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestServiceRejectsMissingModelWhenDownloadDisabled(t *testing.T) {
	store := &fakeStore{dir: t.TempDir(), downloaded: map[string]bool{}}
	cfg := localServiceConfig()
	cfg.Local.AutoDownload = false

	svc, err := NewService(cfg, store, testLogger())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	_, err = svc.Transcribe(context.Background(), Request{WAV: []byte("RIFF")})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "auto_download") {
		t.Fatalf("unexpected error %v", err)
	}
	if len(store.downloads) != 0 {
		t.Fatalf("unexpected downloads %v", store.downloads)
	}
}

func TestServiceRejectsUnknownBackend(t *testing.T) {
	cfg := config.TranscribeConfig{Backend: "bogus"}
	if _, err := NewService(cfg, nil, testLogger()); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadVocabulary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "terms.txt")
	body := "# comment line\nkubernetes\n\n  etcd  \n#another\nquic\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write terms: %v", err)
	}

	prompt, err := LoadVocabulary(path)
	if err != nil {
		t.Fatalf("LoadVocabulary failed: %v", err)
	}
	if prompt != "kubernetes, etcd, quic" {
		t.Fatalf("unexpected prompt %q", prompt)
	}

	if _, err := LoadVocabulary(filepath.Join(dir, "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
