package transform

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pauljones0/graph-feed-export/internal/models"
	"github.com/pauljones0/graph-feed-export/internal/validator"
)

const (
	// CreatedTimeLayout is the Graph API timestamp format, e.g. 2023-05-01T12:00:00+0000.
	CreatedTimeLayout = "2006-01-02T15:04:05-0700"
	// RowTimeLayout is how timestamps appear in exported rows.
	RowTimeLayout = "2006-01-02 15:04:05"

	commenterSeparator = ", "
)

// ErrInvalidPost is returned when a post lacks a required field or carries an
// unparsable timestamp.
var ErrInvalidPost = errors.New("invalid post")

type Transformer struct {
	validator *validator.Validator
}

func New(v *validator.Validator) *Transformer {
	return &Transformer{validator: v}
}

// Transform flattens posts in order. The first invalid post aborts the whole
// batch; no rows are returned in that case.
func (t *Transformer) Transform(posts []models.RawPost) ([]models.PostRow, error) {
	rows := make([]models.PostRow, 0, len(posts))
	for i, post := range posts {
		row, err := t.ToRow(post)
		if err != nil {
			return nil, fmt.Errorf("post %d (id %q): %w", i, post.ID, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ToRow maps a single post to its exported row.
func (t *Transformer) ToRow(post models.RawPost) (models.PostRow, error) {
	if err := t.validator.ValidateStruct(post); err != nil {
		if missing := validator.MissingFields(err); len(missing) > 0 {
			return models.PostRow{}, fmt.Errorf("%w: missing %s", ErrInvalidPost, strings.Join(missing, ", "))
		}
		return models.PostRow{}, fmt.Errorf("%w: %v", ErrInvalidPost, err)
	}

	createdTime, err := FormatCreatedTime(post.CreatedTime)
	if err != nil {
		return models.PostRow{}, fmt.Errorf("%w: %v", ErrInvalidPost, err)
	}

	var comments []models.Comment
	if post.Comments != nil {
		comments = post.Comments.Data
	}
	names := make([]string, 0, len(comments))
	for _, c := range comments {
		names = append(names, c.From.Name)
	}

	return models.PostRow{
		PostID:         post.ID,
		Message:        post.Message,
		CreatedTime:    createdTime,
		AuthorName:     post.From.Name,
		AuthorID:       post.From.ID,
		ReactionsCount: *post.Reactions.Summary.TotalCount,
		CommentsCount:  len(comments),
		Commenters:     strings.Join(names, commenterSeparator),
	}, nil
}

// FormatCreatedTime converts a Graph API timestamp to RowTimeLayout in UTC.
func FormatCreatedTime(s string) (string, error) {
	ts, err := time.Parse(CreatedTimeLayout, s)
	if err != nil {
		return "", fmt.Errorf("failed to parse created_time %q: %w", s, err)
	}
	return ts.UTC().Format(RowTimeLayout), nil
}
