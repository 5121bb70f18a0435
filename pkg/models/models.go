package models

import (
	"time"
)

// Comment is a single Figma file comment as returned by the comments API.
// Identity is ID. ParentID links a reply to its thread ancestor; a comment
// with an empty ParentID is a thread root. Comments are immutable once
// fetched, although a later poll may observe an updated resolution state.
type Comment struct {
	ID           string     `json:"id"`
	ParentID     string     `json:"parent_id,omitempty"`
	AuthorHandle string     `json:"author_handle"`
	Text         string     `json:"text"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	// NodeID is the canvas node the comment is pinned to, when the author
	// attached it to a region rather than the file as a whole.
	NodeID string `json:"node_id,omitempty"`
}

// IsRoot reports whether the comment starts a thread.
func (c Comment) IsRoot() bool {
	return c.ParentID == ""
}

// IsResolved reports whether the thread containing the comment was resolved.
func (c Comment) IsResolved() bool {
	return c.ResolvedAt != nil
}

// ThreadMessage is a projection of a Comment used as prior-conversation input
// to the completion request. IsGenerated is inferred, not stored: a message
// that does not contain the trigger phrase is assumed to have been authored
// by this system rather than a human. That is a heuristic, not ground truth.
type ThreadMessage struct {
	AuthorHandle string `json:"author_handle"`
	Text         string `json:"text"`
	IsGenerated  bool   `json:"is_generated"`
}

// ProcessingContext aggregates everything the completion service needs to
// answer one triggering comment. It is built fresh per comment and discarded
// after the reply is posted.
type ProcessingContext struct {
	DocumentID   string          `json:"document_id"`
	DocumentName string          `json:"document_name"`
	CommentID    string          `json:"comment_id"`
	CommentText  string          `json:"comment_text"`
	NodeID       string          `json:"node_id,omitempty"`
	AuthorHandle string          `json:"author_handle"`
	RegionID     string          `json:"region_id,omitempty"`
	ImageBase64  string          `json:"image_base64,omitempty"`
	Prior        []ThreadMessage `json:"prior"`
}

// EngineStatus is a snapshot of the synchronization engine. The engine is the
// single writer and replaces the record wholesale on every update, so
// observers always see a complete, consistent state.
type EngineStatus struct {
	Active             bool       `json:"active"`
	LastCheckAt        *time.Time `json:"last_check_at,omitempty"`
	DocumentsMonitored int        `json:"documents_monitored"`
	CommentsProcessed  int        `json:"comments_processed"`
	LastError          string     `json:"last_error,omitempty"`
}

// Document identifies one monitored Figma file.
type Document struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
