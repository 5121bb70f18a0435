package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/figsync/internal/resolver"
	"github.com/figsync/pkg/models"
)

// CommentService is the slice of the remote comment API the engine consumes.
type CommentService interface {
	ListComments(ctx context.Context, fileKey string) ([]models.Comment, error)
	GetDocumentName(ctx context.Context, fileKey string) (string, error)
	PostReply(ctx context.Context, fileKey, text, rootID string) (models.Comment, error)
}

// RegionResolver resolves a pinned node to a rendered region snapshot,
// degrading to an empty resolution rather than failing.
type RegionResolver interface {
	Resolve(ctx context.Context, fileKey, pinnedNodeID string) resolver.Resolution
}

// ReplyGenerator produces the reply text for a processing context.
type ReplyGenerator interface {
	Generate(ctx context.Context, pctx models.ProcessingContext, systemPrompt string) (string, error)
}

// Processor handles one triggering comment end to end: context assembly,
// region snapshot, completion request, reply posting, ledger update.
type Processor struct {
	comments     CommentService
	regions      RegionResolver
	generator    ReplyGenerator
	ledger       Ledger
	status       *StatusBoard
	trigger      string
	systemPrompt string
}

// NewProcessor wires a Processor from its collaborators.
func NewProcessor(comments CommentService, regions RegionResolver, generator ReplyGenerator,
	ledger Ledger, status *StatusBoard, trigger, systemPrompt string) *Processor {
	return &Processor{
		comments:     comments,
		regions:      regions,
		generator:    generator,
		ledger:       ledger,
		status:       status,
		trigger:      trigger,
		systemPrompt: systemPrompt,
	}
}

// Process answers a single comment. It never fails outward: every error is
// recorded into the status and processing of the next comment continues.
// The comment is marked processed only after its reply was posted, so a
// failure anywhere before that point means a clean re-attempt next cycle.
func (p *Processor) Process(ctx context.Context, doc models.Document, comment models.Comment, all []models.Comment) {
	logger := log.With().Str("document", doc.ID).Str("comment_id", comment.ID).Logger()

	prior := BuildThreadContext(all, comment, p.trigger)

	// Replies usually lack their own pin; the thread root is both the
	// visual anchor and the only comment Figma accepts replies on.
	root := FindRoot(all, comment)
	anchor := comment
	if !comment.IsRoot() {
		anchor = root
	}

	region := p.regions.Resolve(ctx, doc.ID, anchor.NodeID)

	pctx := models.ProcessingContext{
		DocumentID:   doc.ID,
		DocumentName: doc.Name,
		CommentID:    comment.ID,
		CommentText:  comment.Text,
		NodeID:       anchor.NodeID,
		AuthorHandle: comment.AuthorHandle,
		RegionID:     region.RegionID,
		ImageBase64:  region.ImageBase64,
		Prior:        prior,
	}

	reply, err := p.generator.Generate(ctx, pctx, p.systemPrompt)
	if err != nil {
		p.recordError(logger, "completion failed", doc.ID, err)
		return
	}

	if _, err := p.comments.PostReply(ctx, doc.ID, reply, root.ID); err != nil {
		p.recordError(logger, "posting reply failed", doc.ID, err)
		return
	}

	// A ledger failure after a successful post risks one duplicate reply on
	// the next cycle. That trade-off is preferred over marking first and
	// silently losing a comment when the post fails.
	if err := p.ledger.MarkProcessed(comment.ID); err != nil {
		logger.Warn().Err(err).Msg("Reply posted but ledger update failed; comment may be answered again")
	}

	p.status.Update(func(s *models.EngineStatus) {
		s.CommentsProcessed++
	})

	logger.Info().
		Str("author", comment.AuthorHandle).
		Int("prior_messages", len(prior)).
		Bool("with_image", region.ImageBase64 != "").
		Msg("Replied to comment")
}

func (p *Processor) recordError(logger zerolog.Logger, msg, docID string, err error) {
	logger.Error().Err(err).Msg(msg)
	p.status.Update(func(s *models.EngineStatus) {
		s.LastError = fmt.Sprintf("document %s: %s: %v", docID, msg, err)
	})
}
