package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pauljones0/graph-feed-export/internal/models"
)

type Processor interface {
	Run(ctx context.Context) (models.Summary, error)
}

type ExportProcessor struct {
	groupID     string
	fetcher     PostFetcher
	transformer PostTransformer
	exporter    RowExporter
	notifier    RunNotifier
	logger      *slog.Logger
	now         func() time.Time
}

func New(groupID string, f PostFetcher, t PostTransformer, e RowExporter, n RunNotifier, logger *slog.Logger) *ExportProcessor {
	return &ExportProcessor{
		groupID:     groupID,
		fetcher:     f,
		transformer: t,
		exporter:    e,
		notifier:    n,
		logger:      logger,
		now:         time.Now,
	}
}

// Run executes one fetch → transform → export pass. A partial fetch is still
// exported; a transform or write failure aborts the run with nothing written.
func (p *ExportProcessor) Run(ctx context.Context) (models.Summary, error) {
	start := p.now()
	summary := models.Summary{GroupID: p.groupID}

	p.logger.Info("Starting to fetch group posts", "group_id", p.groupID)
	result, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to fetch posts: %w", err)
	}
	summary.Fetched = len(result.Posts)
	summary.Complete = result.Complete
	p.logger.Info("Total posts fetched", "count", summary.Fetched, "pages", result.Pages, "requests", result.Requests, "failures", result.Failures)
	if !result.Complete {
		p.logger.Warn("Feed was not fully fetched; exporting partial results")
	}

	p.logger.Info("Processing posts")
	rows, err := p.transformer.Transform(result.Posts)
	if err != nil {
		return summary, fmt.Errorf("failed to transform posts: %w", err)
	}

	p.logger.Info("Saving posts to CSV")
	path, err := p.exporter.Export(p.groupID, rows)
	if err != nil {
		return summary, fmt.Errorf("failed to export posts: %w", err)
	}
	summary.File = path
	summary.Exported = len(rows)
	summary.Duration = p.now().Sub(start)

	p.logger.Info("Data saved", "file", path, "posts", summary.Exported, "duration", summary.Duration)

	if p.notifier != nil {
		if err := p.notifier.Send(ctx, summary); err != nil {
			p.logger.Warn("Failed to send run summary", "error", err)
		}
	}
	return summary, nil
}
