package processor

import (
	"context"

	"github.com/pauljones0/graph-feed-export/internal/models"
)

// PostFetcher abstracts the paginated feed source.
type PostFetcher interface {
	Fetch(ctx context.Context) (models.FetchResult, error)
}

// PostTransformer abstracts the RawPost → PostRow mapping.
type PostTransformer interface {
	Transform(posts []models.RawPost) ([]models.PostRow, error)
}

// RowExporter abstracts the tabular output.
type RowExporter interface {
	Export(groupID string, rows []models.PostRow) (string, error)
}

// RunNotifier abstracts the end-of-run notification.
type RunNotifier interface {
	Send(ctx context.Context, summary models.Summary) error
}
