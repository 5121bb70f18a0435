package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/figsync/pkg/models"
)

// Runner executes one polling cycle: every monitored document is checked for
// new qualifying comments and each selected comment is processed in order.
type Runner struct {
	comments  CommentService
	processor *Processor
	ledger    Ledger
	status    *StatusBoard
	trigger   string
	documents []string
}

// NewRunner wires a Runner over its collaborators. documents holds the
// monitored file keys in configuration order.
func NewRunner(comments CommentService, processor *Processor, ledger Ledger,
	status *StatusBoard, trigger string, documents []string) *Runner {
	return &Runner{
		comments:  comments,
		processor: processor,
		ledger:    ledger,
		status:    status,
		trigger:   trigger,
		documents: documents,
	}
}

// RunCycle checks every monitored document once. Documents are isolated from
// each other: a fetch or processing failure in one is recorded and the next
// document is still checked. The status is updated at cycle start and end
// regardless of per-document outcomes.
func (r *Runner) RunCycle(ctx context.Context) {
	cycleID := uuid.NewString()[:8]
	logger := log.With().Str("cycle", cycleID).Logger()
	logger.Debug().Int("documents", len(r.documents)).Msg("Starting poll cycle")

	started := time.Now()
	r.status.Update(func(s *models.EngineStatus) {
		s.LastCheckAt = &started
		s.DocumentsMonitored = len(r.documents)
	})

	for _, docID := range r.documents {
		r.checkDocument(ctx, logger, docID)
	}

	finished := time.Now()
	r.status.Update(func(s *models.EngineStatus) {
		s.LastCheckAt = &finished
	})
	logger.Debug().Dur("duration", finished.Sub(started)).Msg("Poll cycle finished")
}

// checkDocument fetches one document's name and comments, selects the
// actionable comments, and processes them sequentially. Failures stay inside
// this document.
func (r *Runner) checkDocument(ctx context.Context, logger zerolog.Logger, docID string) {
	name, err := r.comments.GetDocumentName(ctx, docID)
	if err != nil {
		r.recordDocumentError(logger, docID, "fetching document name", err)
		return
	}

	all, err := r.comments.ListComments(ctx, docID)
	if err != nil {
		r.recordDocumentError(logger, docID, "fetching comments", err)
		return
	}

	selected := SelectComments(all, r.ledger, r.trigger)
	if len(selected) == 0 {
		logger.Debug().Str("document", docID).Int("comments", len(all)).Msg("No new triggering comments")
		return
	}

	logger.Info().Str("document", docID).Str("name", name).
		Int("selected", len(selected)).Msg("Processing triggering comments")

	doc := models.Document{ID: docID, Name: name}
	for _, comment := range selected {
		r.processor.Process(ctx, doc, comment, all)
	}
}

func (r *Runner) recordDocumentError(logger zerolog.Logger, docID, phase string, err error) {
	logger.Error().Err(err).Str("document", docID).Msgf("Skipping document for this cycle: %s failed", phase)
	r.status.Update(func(s *models.EngineStatus) {
		s.LastError = fmt.Sprintf("document %s: %s: %v", docID, phase, err)
	})
}
