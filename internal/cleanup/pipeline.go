package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/handfreelabs/handfree/internal/config"
)

const rewritePrompt = `Clean and correct this speech transcription.

Tasks:
1. Remove filler words (um, uh, like, you know, basically)
2. Remove false starts and repetitions
3. Fix grammar errors
4. Correct tense inconsistencies
5. Preserve the speaker's intended meaning and tone

Input: %s

Output only the corrected text, nothing else:`

// Pipeline applies the configured cleanup mode to transcription text.
// Clean never fails: every mode above Off degrades to a lower mode on
// error, so callers always get a usable string back.
type Pipeline struct {
	mode    Mode
	cleaner *Cleaner
	gen     Generator
	base    Request
	timeout time.Duration
	logger  *slog.Logger
}

func NewPipeline(cfg config.CleanupConfig, gen Generator, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		mode:    ParseMode(cfg.Mode),
		cleaner: NewCleaner(cfg.PreserveIntentional),
		gen:     gen,
		base:    RequestFromConfig(cfg.LLM),
		timeout: time.Duration(cfg.LLM.TimeoutS) * time.Second,
		logger:  logger.With(slog.String("component", "cleanup")),
	}
}

func (p *Pipeline) Mode() Mode { return p.mode }

func (p *Pipeline) Clean(ctx context.Context, text string) string {
	switch p.mode {
	case ModeOff:
		return text
	case ModeLight:
		return p.cleaner.CleanLight(text)
	case ModeStandard:
		return p.cleaner.CleanStandard(text)
	case ModeAggressive:
		return p.cleanAggressive(ctx, text)
	default:
		return text
	}
}

func (p *Pipeline) cleanAggressive(ctx context.Context, text string) string {
	if text == "" {
		return text
	}
	if p.gen == nil {
		p.logger.Warn("no generative backend configured, falling back to standard cleanup")
		return p.cleaner.CleanStandard(text)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	inputLen := utf8.RuneCountInString(text)
	req := p.base
	req.Prompt = fmt.Sprintf(rewritePrompt, text)
	req.MaxTokens = inputLen * 2
	if p.base.MaxTokens > 0 && req.MaxTokens > p.base.MaxTokens {
		req.MaxTokens = p.base.MaxTokens
	}

	var out strings.Builder
	err := p.gen.Generate(ctx, req, func(chunk Chunk) error {
		out.WriteString(chunk.Content)
		return nil
	})
	if err != nil {
		p.logger.Warn("generative cleanup failed, using rule-based result", slogError(err))
		return p.cleaner.CleanStandard(text)
	}
	cleaned := strings.TrimSpace(out.String())
	if utf8.RuneCountInString(cleaned)*10 < inputLen*3 {
		p.logger.Warn("generative cleanup removed too much text, using rule-based result")
		return p.cleaner.CleanStandard(text)
	}
	return cleaned
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
