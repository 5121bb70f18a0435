// Package figma is a thin client for the Figma REST API: listing file
// comments, reading document structure, exporting node images, and posting
// threaded replies.
package figma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/figsync/pkg/models"
)

const defaultBaseURL = "https://api.figma.com"

// Client is a custom HTTP client for the Figma API. Every request is
// throttled through a shared rate limiter and carries a bounded timeout so a
// hung call cannot wedge a polling cycle.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Figma API client authenticated with a personal access
// token.
func NewClient(token string) *Client {
	return NewClientWithBaseURL(token, defaultBaseURL)
}

// NewClientWithBaseURL creates a client against a non-default endpoint.
// Used by tests to point at a local server.
func NewClientWithBaseURL(token, baseURL string) *Client {
	if baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
		// Figma allows roughly two requests per second per token.
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
	}
}

// do executes an authenticated request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, requestURL string, body io.Reader, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter interrupted: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Add("X-Figma-Token", c.token)
	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// ListComments returns every comment of the file, roots and replies alike,
// in the order the API reports them.
func (c *Client) ListComments(ctx context.Context, fileKey string) ([]models.Comment, error) {
	requestURL := fmt.Sprintf("%s/v1/files/%s/comments", c.baseURL, url.PathEscape(fileKey))

	var parsed commentsResponse
	if err := c.do(ctx, http.MethodGet, requestURL, nil, &parsed); err != nil {
		return nil, err
	}

	comments := make([]models.Comment, 0, len(parsed.Comments))
	for _, wc := range parsed.Comments {
		comments = append(comments, wc.toModel())
	}

	log.Debug().Str("file", fileKey).Int("count", len(comments)).Msg("Fetched comments")
	return comments, nil
}

func (wc wireComment) toModel() models.Comment {
	comment := models.Comment{
		ID:           wc.ID,
		ParentID:     wc.ParentID,
		AuthorHandle: wc.User.Handle,
		Text:         wc.Message,
		CreatedAt:    wc.CreatedAt,
		ResolvedAt:   wc.ResolvedAt,
	}
	if wc.ClientMeta != nil {
		comment.NodeID = wc.ClientMeta.NodeID
	}
	return comment
}

// GetDocumentName returns the file's display name. Only the shallow file
// metadata is requested.
func (c *Client) GetDocumentName(ctx context.Context, fileKey string) (string, error) {
	requestURL := fmt.Sprintf("%s/v1/files/%s?depth=1", c.baseURL, url.PathEscape(fileKey))

	var parsed fileResponse
	if err := c.do(ctx, http.MethodGet, requestURL, nil, &parsed); err != nil {
		return "", err
	}
	return parsed.Name, nil
}

// GetDocumentTree returns the file's full node tree, rooted at the DOCUMENT
// node.
func (c *Client) GetDocumentTree(ctx context.Context, fileKey string) (*Node, error) {
	requestURL := fmt.Sprintf("%s/v1/files/%s", c.baseURL, url.PathEscape(fileKey))

	var parsed fileResponse
	if err := c.do(ctx, http.MethodGet, requestURL, nil, &parsed); err != nil {
		return nil, err
	}
	if parsed.Document == nil {
		return nil, fmt.Errorf("file %s has no document node", fileKey)
	}
	return parsed.Document, nil
}

// ExportImage renders a node to PNG and returns the temporary download URL.
// An empty URL means Figma could not render the node.
func (c *Client) ExportImage(ctx context.Context, fileKey, nodeID string) (string, error) {
	requestURL := fmt.Sprintf("%s/v1/images/%s?ids=%s&format=png&scale=2",
		c.baseURL, url.PathEscape(fileKey), url.QueryEscape(nodeID))

	var parsed imagesResponse
	if err := c.do(ctx, http.MethodGet, requestURL, nil, &parsed); err != nil {
		return "", err
	}
	if parsed.Err != nil {
		return "", fmt.Errorf("image export failed: %s", *parsed.Err)
	}
	return parsed.Images[nodeID], nil
}

// DownloadImage fetches the rendered image bytes from an export URL. Export
// URLs are pre-signed, so no auth header is sent.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// PostReply posts a reply anchored at the given thread root. Figma only
// accepts replies whose comment_id is a root comment.
func (c *Client) PostReply(ctx context.Context, fileKey, text, rootID string) (models.Comment, error) {
	requestURL := fmt.Sprintf("%s/v1/files/%s/comments", c.baseURL, url.PathEscape(fileKey))

	payload, err := json.Marshal(postCommentRequest{Message: text, CommentID: rootID})
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to encode comment: %w", err)
	}

	var posted wireComment
	if err := c.do(ctx, http.MethodPost, requestURL, bytes.NewReader(payload), &posted); err != nil {
		return models.Comment{}, err
	}

	log.Debug().Str("file", fileKey).Str("root", rootID).Str("id", posted.ID).Msg("Posted reply")
	return posted.toModel(), nil
}
