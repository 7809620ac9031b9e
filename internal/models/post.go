package models

import (
	"strconv"
	"time"
)

// RawPost is a single feed entry as delivered by the Graph API.
type RawPost struct {
	ID          string     `json:"id" validate:"required"`
	Message     string     `json:"message,omitempty"` // Absent for photo/link-only posts
	CreatedTime string     `json:"created_time" validate:"required"`
	From        *Author    `json:"from" validate:"required"`
	Comments    *Comments  `json:"comments,omitempty" validate:"omitempty"`
	Reactions   *Reactions `json:"reactions" validate:"required"`
}

// Author identifies the poster.
type Author struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// Comments is the nested comment edge. Data may be capped by the
// limit() modifier in the field selector.
type Comments struct {
	Data []Comment `json:"data" validate:"dive"`
}

type Comment struct {
	From    *Commenter `json:"from" validate:"required"`
	Message string     `json:"message,omitempty"`
}

// Commenter only needs a display name; the Graph API omits ids for some users.
type Commenter struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name" validate:"required"`
}

type Reactions struct {
	Summary *ReactionSummary `json:"summary" validate:"required"`
}

type ReactionSummary struct {
	TotalCount *int `json:"total_count" validate:"required"`
}

// FeedPage is one response of the paginated feed endpoint.
type FeedPage struct {
	Data   []RawPost `json:"data"`
	Paging *Paging   `json:"paging,omitempty"`
}

type Paging struct {
	Next     string   `json:"next,omitempty"`
	Previous string   `json:"previous,omitempty"`
	Cursors  *Cursors `json:"cursors,omitempty"`
}

type Cursors struct {
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// NextURL returns the next-page cursor, or "" when pagination is exhausted.
func (p *FeedPage) NextURL() string {
	if p == nil || p.Paging == nil {
		return ""
	}
	return p.Paging.Next
}

// GraphError is the error envelope returned with non-2xx responses.
type GraphError struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode,omitempty"`
		FBTraceID    string `json:"fbtrace_id,omitempty"`
	} `json:"error"`
}

// FetchResult holds the posts collected in one run, in delivery order.
type FetchResult struct {
	Posts    []RawPost
	Pages    int
	Requests int
	Failures int
	// Complete is false when the retry budget ran out before the last page.
	Complete bool
}

// PostRowHeader lists the exported column names in PostRow field order.
var PostRowHeader = []string{
	"post_id",
	"message",
	"created_time",
	"author_name",
	"author_id",
	"reactions_count",
	"comments_count",
	"commenters",
}

// PostRow is the flattened form of one RawPost.
type PostRow struct {
	PostID         string
	Message        string
	CreatedTime    string
	AuthorName     string
	AuthorID       string
	ReactionsCount int
	CommentsCount  int
	Commenters     string
}

// Record returns the row's cells in PostRowHeader order.
func (r PostRow) Record() []string {
	return []string{
		r.PostID,
		r.Message,
		r.CreatedTime,
		r.AuthorName,
		r.AuthorID,
		strconv.Itoa(r.ReactionsCount),
		strconv.Itoa(r.CommentsCount),
		r.Commenters,
	}
}

// Summary describes a finished export run.
type Summary struct {
	GroupID  string
	Fetched  int
	Exported int
	File     string
	Complete bool
	Duration time.Duration
}
