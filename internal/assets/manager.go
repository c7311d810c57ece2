package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const defaultBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// ModelStatus is one row of the registry annotated with local state.
type ModelStatus struct {
	Name       string
	Size       int64
	Downloaded bool
	Path       string
}

// Manager stores model files under a single directory and downloads missing
// ones on demand. Downloads land in a .tmp sibling and are renamed into place
// so a partial fetch never looks like a usable model.
type Manager struct {
	dir     string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	mu      sync.Mutex
}

func NewManager(dir string, logger *slog.Logger) *Manager {
	return &Manager{
		dir:     dir,
		baseURL: defaultBaseURL,
		client:  http.DefaultClient,
		logger:  logger.With(slog.String("component", "assets")),
	}
}

// Dir returns the managed model directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns where the named model lives, downloaded or not.
func (m *Manager) Path(model string) string {
	return filepath.Join(m.dir, fmt.Sprintf("ggml-%s.bin", model))
}

// IsDownloaded reports whether a non-empty model file is present.
func (m *Manager) IsDownloaded(model string) bool {
	stat, err := os.Stat(m.Path(model))
	if err != nil {
		return false
	}
	return stat.Size() > 0
}

// Status annotates the registry with local availability.
func (m *Manager) Status() []ModelStatus {
	out := make([]ModelStatus, 0, len(registry))
	for _, model := range registry {
		out = append(out, ModelStatus{
			Name:       model.Name,
			Size:       model.Size,
			Downloaded: m.IsDownloaded(model.Name),
			Path:       m.Path(model.Name),
		})
	}
	return out
}

// Download fetches the named model if it is not already present and returns
// its path. Only one download runs at a time.
func (m *Manager) Download(ctx context.Context, model string) (string, error) {
	info, ok := Lookup(model)
	if !ok {
		return "", &Error{Op: "download", Model: model,
			Err: fmt.Errorf("unknown model, available: %s", strings.Join(Names(), ", "))}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dest := m.Path(model)
	if m.IsDownloaded(model) {
		return dest, nil
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", &Error{Op: "download", Model: model, Err: fmt.Errorf("create models dir: %w", err)}
	}

	m.logger.Info("downloading model",
		slog.String("model", model),
		slog.Int64("size_mb", info.Size/mib))

	tmp := dest + ".tmp"
	defer os.Remove(tmp)

	if err := m.fetch(ctx, m.baseURL+"/"+info.Filename(), tmp); err != nil {
		return "", &Error{Op: "download", Model: model, Err: err}
	}
	if err := os.Rename(tmp, dest); err != nil {
		return "", &Error{Op: "download", Model: model, Err: err}
	}

	m.logger.Info("model downloaded", slog.String("model", model), slog.String("path", dest))
	return dest, nil
}

func (m *Manager) fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	file, err := os.Create(dest)
	if err != nil {
		return err
	}

	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			file.Close()
			return ctx.Err()
		default:
		}
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				file.Close()
				return werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			file.Close()
			return err
		}
	}
	return file.Close()
}

// Delete removes a downloaded model file.
func (m *Manager) Delete(model string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.Path(model)); err != nil {
		return &Error{Op: "delete", Model: model, Err: err}
	}
	return nil
}
