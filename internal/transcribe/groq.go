package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/handfreelabs/handfree/internal/config"
)

// groqTranscriber posts utterances to an OpenAI-compatible transcription
// endpoint. Rate-limit responses back off exponentially before the next
// attempt; every other failure retries immediately until the budget runs out.
type groqTranscriber struct {
	client     *http.Client
	apiBase    string
	apiKey     string
	model      string
	language   string
	maxRetries int
	sleep      func(time.Duration)
}

type groqResponse struct {
	Text string `json:"text"`
}

func NewGroqTranscriber(cfg config.TranscribeConfig) (Transcriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq api key is required")
	}
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	return &groqTranscriber{
		client:     newHTTPClient(cfg.TimeoutS),
		apiBase:    strings.TrimRight(cfg.APIBase, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		language:   cfg.Language,
		maxRetries: retries,
		sleep:      time.Sleep,
	}, nil
}

func newHTTPClient(timeoutS int) *http.Client {
	tr := &http.Transport{
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	_ = http2.ConfigureTransport(tr)
	return &http.Client{
		Transport: tr,
		Timeout:   time.Duration(timeoutS) * time.Second,
	}
}

func (g *groqTranscriber) Transcribe(ctx context.Context, req Request) (Result, error) {
	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		text, err := g.upload(ctx, req)
		if err == nil {
			return Result{Text: text, Backend: "groq"}, nil
		}
		lastErr = err
		if attempt == g.maxRetries-1 {
			break
		}
		if isRateLimited(err) {
			g.sleep(time.Duration(1<<attempt) * time.Second)
		}
	}
	return Result{}, &TranscriptionError{Backend: "groq", Attempts: g.maxRetries, Err: lastErr}
}

func (g *groqTranscriber) upload(ctx context.Context, req Request) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(req.WAV); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	_ = writer.WriteField("model", g.model)
	_ = writer.WriteField("response_format", "json")
	language := req.Language
	if language == "" {
		language = g.language
	}
	if language != "" {
		_ = writer.WriteField("language", language)
	}
	if req.Prompt != "" {
		_ = writer.WriteField("prompt", req.Prompt)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiBase+"/audio/transcriptions", body)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("User-Agent", "handfree/1.0")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("post transcription: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	var decoded groqResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	return decoded.Text, nil
}

// isRateLimited classifies failures that deserve a backoff instead of an
// immediate retry. The endpoint reports quota pressure either as HTTP 429 or
// as a rate_limit error payload.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(strings.ToLower(msg), "rate_limit") || strings.Contains(msg, "429")
}
