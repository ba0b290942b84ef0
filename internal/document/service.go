package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"trustlessid/internal/audit"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
	"trustlessid/pkg/platform/sentinel"
	"trustlessid/pkg/requestcontext"
)

// ActivityRecorder receives document_upload activity.
type ActivityRecorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the document registry.
type Service struct {
	store    Store
	activity ActivityRecorder
	logger   *slog.Logger
}

func NewService(store Store, activity ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{store: store, activity: activity, logger: logger}
}

// Register validates the upload and records it as pending.
func (s *Service) Register(ctx context.Context, userID id.UserID, upload Upload) (Document, error) {
	if userID.IsNil() {
		return Document{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := upload.Validate(); err != nil {
		return Document{}, err
	}

	docID := upload.ID
	if docID == "" {
		docID = id.NewDocumentID()
	}
	doc := Document{
		ID:         docID,
		UserID:     userID,
		Name:       upload.Name,
		Type:       upload.Type,
		FileSize:   upload.FileSize,
		Status:     StatusPending,
		UploadedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, doc); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Document{}, dErrors.Wrap(err, dErrors.CodeConflict, "document already recorded")
		}
		return Document{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record document")
	}

	if s.activity != nil {
		err := s.activity.Emit(ctx, audit.Event{
			UserID:      userID,
			Action:      audit.ActionDocumentUpload,
			Description: fmt.Sprintf("Uploaded %s (%s)", upload.Type.Label(), upload.Name),
		})
		if err != nil {
			s.logger.WarnContext(ctx, "failed to record upload activity", "error", err)
		}
	}
	return doc, nil
}

// Resolve moves a pending document to verified or rejected. Resolving an
// already resolved document is an invalid state.
func (s *Service) Resolve(ctx context.Context, documentID id.DocumentID, status Status) (Document, error) {
	if status != StatusVerified && status != StatusRejected {
		return Document{}, dErrors.New(dErrors.CodeInvariantViolation, "documents resolve to verified or rejected")
	}
	doc, err := s.store.Update(ctx, documentID, func(d *Document) error {
		if d.Status != StatusPending {
			return sentinel.ErrInvalidState
		}
		d.Status = status
		return nil
	})
	switch {
	case err == nil:
		return doc, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return Document{}, dErrors.Wrap(err, dErrors.CodeNotFound, "document not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return Document{}, dErrors.Wrap(err, dErrors.CodeInvalidState, "document already resolved")
	default:
		return Document{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update document")
	}
}

// ListForUser returns the user's documents, newest first.
func (s *Service) ListForUser(ctx context.Context, userID id.UserID) ([]Document, error) {
	docs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}
