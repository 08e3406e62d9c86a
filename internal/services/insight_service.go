package services

import (
	"bytes"
	"context"
	"html/template"
	"time"

	applog "tradejournal/internal/log"

	"github.com/yuin/goldmark"
	"golang.org/x/sync/errgroup"
)

// NarrativeGenerator is the external AI collaborator. Implementations
// return markdown; failures are recovered here and never propagate to
// the dashboard.
type NarrativeGenerator interface {
	Narrative(ctx context.Context, prompt string, reasons []string) (string, error)
}

const (
	tipsPrompt = "You are a trading coach. Based on these reasons traders succeeded, " +
		"generate a concise list of best-practice Trading Tips. Format your response in Markdown."
	lessonsPrompt = "You are a trading mentor. Based on these reasons traders lost money, " +
		"generate a concise Lessons Learned list of common mistakes and how to avoid them. " +
		"Format your response in Markdown."

	noProfitReasons = "No profit reasons submitted yet."
	noLossReasons   = "No loss reasons submitted yet."
	unavailable     = "Insights unavailable right now."
	notConfigured   = "Insights are not configured."
)

// Insights holds the two rendered narrative panels.
type Insights struct {
	TradingTips    template.HTML
	LessonsLearned template.HTML
}

// InsightService turns the free-text reasons on daily entries into
// narrative panels. It is strictly fail-open: any generator error
// degrades to a placeholder string.
type InsightService struct {
	gen     NarrativeGenerator
	logger  *applog.Logger
	timeout time.Duration
}

// NewInsightService wraps a generator; gen may be nil when the
// collaborator is not configured.
func NewInsightService(gen NarrativeGenerator, logger *applog.Logger, timeout time.Duration) *InsightService {
	return &InsightService{
		gen:     gen,
		logger:  logger.WithComponent(applog.ComponentInsights),
		timeout: timeout,
	}
}

// Generate produces both panels, running the two generator calls
// concurrently. The returned error is always nil today; the signature
// leaves room for future hard failures.
func (s *InsightService) Generate(ctx context.Context, profitReasons, lossReasons []string) (Insights, error) {
	var out Insights
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.TradingTips = s.panel(gctx, tipsPrompt, profitReasons, noProfitReasons)
		return nil
	})
	g.Go(func() error {
		out.LessonsLearned = s.panel(gctx, lessonsPrompt, lossReasons, noLossReasons)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Insights{}, err
	}
	return out, nil
}

func (s *InsightService) panel(ctx context.Context, prompt string, reasons []string, emptyMsg string) template.HTML {
	if len(reasons) == 0 {
		return template.HTML(template.HTMLEscapeString(emptyMsg))
	}
	if s.gen == nil {
		return template.HTML(template.HTMLEscapeString(notConfigured))
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	md, err := s.gen.Narrative(cctx, prompt, reasons)
	if err != nil {
		s.logger.WarnContext(ctx, "Narrative generation failed", applog.FieldError, err.Error())
		return template.HTML(template.HTMLEscapeString(unavailable))
	}
	return renderMarkdown(md)
}

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
