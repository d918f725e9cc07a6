package guardrail

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/latestcomment/go-ai-debate/internal/models"
)

const (
	rewriteMaxTokens   = 180
	rewriteTemperature = 0.2
)

var rewriteSystemPrompt = strings.Join([]string{
	"You are a content safety editor.",
	"Task: Rewrite the provided reply to be PG-13 and friendly without changing the core intent.",
	"No insults, harassment, or graphic content. Keep it concise and upbeat.",
}, "\n")

// Generator is the text generator used for the salvage rewrite.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (string, error)
}

type Config struct {
	// RewriteEnabled turns on the remote salvage rewrite. Off by default.
	RewriteEnabled bool
	// MaxTokensPerTurn caps the rewrite budget together with rewriteMaxTokens.
	MaxTokensPerTurn int
	// RewriteTimeout bounds the remote call. Zero means no extra deadline.
	RewriteTimeout time.Duration
	// ExtraPatterns are added to DefaultPatterns.
	ExtraPatterns []string
}

type Pipeline struct {
	gen      Generator
	cfg      Config
	patterns []*regexp.Regexp
	logger   *slog.Logger
}

// New builds a pipeline. gen may be nil when RewriteEnabled is false.
func New(gen Generator, cfg Config, logger *slog.Logger) (*Pipeline, error) {
	patterns, err := CompilePatterns(cfg.ExtraPatterns)
	if err != nil {
		return nil, err
	}
	if cfg.RewriteEnabled && gen == nil {
		return nil, fmt.Errorf("guardrail: rewrite enabled without a generator")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{gen: gen, cfg: cfg, patterns: patterns, logger: logger}, nil
}

// Screen runs FastScreen with the configured patterns.
func (p *Pipeline) Screen(text string) Result {
	return FastScreen(text, p.patterns)
}

// Rewrite tries to salvage text that failed Screen. It never fails: an
// error, a blank answer or a rewrite that is still flagged yields
// Placeholder.
func (p *Pipeline) Rewrite(ctx context.Context, original, reason string) string {
	if !p.cfg.RewriteEnabled {
		return Placeholder
	}

	if p.cfg.RewriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RewriteTimeout)
		defer cancel()
	}

	temp := rewriteTemperature
	req := models.GenerationRequest{
		System:      rewriteSystemPrompt,
		User:        fmt.Sprintf("Reason flagged: %s\n\nOriginal reply:\n\"\"\"%s\"\"\"\n\nRewrite now:", reason, original),
		MaxTokens:   rewriteBudget(p.cfg.MaxTokensPerTurn),
		Temperature: &temp,
	}

	rewritten, err := p.gen.Generate(ctx, req)
	if err != nil {
		p.logger.Warn("safety rewrite failed", "reason", reason, "error", err)
		return Placeholder
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		p.logger.Warn("safety rewrite returned empty text", "reason", reason)
		return Placeholder
	}
	if again := p.Screen(rewritten); !again.OK {
		p.logger.Warn("safety rewrite still flagged", "reason", again.Reason)
		return Placeholder
	}
	return rewritten
}

// Enforce returns text that is safe to persist. It is never empty.
func (p *Pipeline) Enforce(ctx context.Context, text string) string {
	screen := p.Screen(text)
	if screen.OK {
		return screen.Text
	}
	p.logger.Info("guardrail flagged turn", "reason", screen.Reason, "rewrite", p.cfg.RewriteEnabled)
	return p.Rewrite(ctx, screen.Text, screen.Reason)
}

func rewriteBudget(perTurn int) int {
	if perTurn > 0 && perTurn < rewriteMaxTokens {
		return perTurn
	}
	return rewriteMaxTokens
}
