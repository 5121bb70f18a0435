// Package resolver turns a comment's pinned canvas node into a rendered
// snapshot of the design region around it. Replies rarely carry their own
// pin and pinned nodes are often too small to render meaningfully, so the
// resolver walks up the document tree to the nearest exportable ancestor
// before asking Figma for an image.
package resolver

import (
	"context"
	"encoding/base64"

	"github.com/rs/zerolog/log"

	"github.com/figsync/internal/figma"
)

// exportableTypes are node types Figma renders well as standalone regions.
var exportableTypes = map[string]bool{
	"FRAME":         true,
	"COMPONENT":     true,
	"COMPONENT_SET": true,
	"SECTION":       true,
}

// Resolution is the outcome of a region lookup. Zero values mean the lookup
// degraded to "no image"; the comment is still answered with text-only
// context.
type Resolution struct {
	ImageBase64 string
	NodeID      string
	RegionID    string
}

// FileAPI is the slice of the Figma client the resolver needs.
type FileAPI interface {
	GetDocumentTree(ctx context.Context, fileKey string) (*figma.Node, error)
	ExportImage(ctx context.Context, fileKey, nodeID string) (string, error)
	DownloadImage(ctx context.Context, imageURL string) ([]byte, error)
}

// Resolver resolves pinned nodes to exported region images.
type Resolver struct {
	api FileAPI
}

// New creates a Resolver over the given file API.
func New(api FileAPI) *Resolver {
	return &Resolver{api: api}
}

// Resolve finds the exportable region enclosing pinnedNodeID and returns its
// rendered image. Every failure path degrades to an empty Resolution: a
// missing pin, an unknown node, an unexportable region, or an export error
// never abort comment processing.
func (r *Resolver) Resolve(ctx context.Context, fileKey, pinnedNodeID string) Resolution {
	if pinnedNodeID == "" {
		return Resolution{}
	}

	tree, err := r.api.GetDocumentTree(ctx, fileKey)
	if err != nil {
		log.Debug().Err(err).Str("file", fileKey).Msg("Could not fetch document tree, continuing without image")
		return Resolution{}
	}

	region := findExportableRegion(tree, pinnedNodeID)
	if region == "" {
		log.Debug().Str("file", fileKey).Str("node", pinnedNodeID).Msg("No exportable region for pinned node")
		return Resolution{}
	}

	imageURL, err := r.api.ExportImage(ctx, fileKey, region)
	if err != nil || imageURL == "" {
		log.Debug().Err(err).Str("file", fileKey).Str("region", region).Msg("Image export unavailable, continuing without image")
		return Resolution{NodeID: pinnedNodeID, RegionID: region}
	}

	imageBytes, err := r.api.DownloadImage(ctx, imageURL)
	if err != nil {
		log.Debug().Err(err).Str("file", fileKey).Str("region", region).Msg("Image download failed, continuing without image")
		return Resolution{NodeID: pinnedNodeID, RegionID: region}
	}

	return Resolution{
		ImageBase64: base64.StdEncoding.EncodeToString(imageBytes),
		NodeID:      pinnedNodeID,
		RegionID:    region,
	}
}

// findExportableRegion returns the id of the region to export for the target
// node: the nearest exportable ancestor (the node itself included), falling
// back to the top-level frame that contains it. Empty when the node is not
// in the tree or nothing along its path is exportable.
func findExportableRegion(root *figma.Node, targetID string) string {
	path := findPath(root, targetID, nil)
	if path == nil {
		return ""
	}

	// Nearest exportable ancestor, walking from the node upward.
	for i := len(path) - 1; i >= 0; i-- {
		if exportableTypes[path[i].Type] {
			return path[i].ID
		}
	}

	// Fall back to the top-level child of the canvas the node sits on.
	// Path layout is DOCUMENT / CANVAS / top-level node / ...
	if len(path) >= 3 {
		return path[2].ID
	}
	return ""
}

// findPath returns the root-to-target node path, or nil when absent.
func findPath(node *figma.Node, targetID string, trail []*figma.Node) []*figma.Node {
	if node == nil {
		return nil
	}
	trail = append(trail, node)
	if node.ID == targetID {
		out := make([]*figma.Node, len(trail))
		copy(out, trail)
		return out
	}
	for _, child := range node.Children {
		if found := findPath(child, targetID, trail); found != nil {
			return found
		}
	}
	return nil
}
