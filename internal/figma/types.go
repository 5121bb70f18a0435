package figma

import (
	"time"
)

// Wire types for the Figma REST API. Only the fields the engine consumes are
// decoded.

type wireUser struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
	ImgURL string `json:"img_url"`
}

// wireClientMeta carries the pin location of a comment. Pinned comments use
// a frame offset with a node id; file-level comments carry only coordinates.
type wireClientMeta struct {
	NodeID string `json:"node_id"`
}

type wireComment struct {
	ID         string          `json:"id"`
	ParentID   string          `json:"parent_id"`
	User       wireUser        `json:"user"`
	Message    string          `json:"message"`
	CreatedAt  time.Time       `json:"created_at"`
	ResolvedAt *time.Time      `json:"resolved_at"`
	ClientMeta *wireClientMeta `json:"client_meta"`
	OrderID    string          `json:"order_id"`
}

type commentsResponse struct {
	Comments []wireComment `json:"comments"`
}

type postCommentRequest struct {
	Message   string `json:"message"`
	CommentID string `json:"comment_id,omitempty"`
}

type fileResponse struct {
	Name     string `json:"name"`
	Document *Node  `json:"document"`
}

type imagesResponse struct {
	Err    *string           `json:"err"`
	Images map[string]string `json:"images"`
}

// Node is one node of a file's document tree.
type Node struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Children []*Node `json:"children,omitempty"`
}
