package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/legal-aid-service/internal/config"
	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/events"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	"github.com/spec-kit/legal-aid-service/internal/storage"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

// sniffBytes is how much of an upload is inspected to detect its type.
const sniffBytes = 3072

// DocumentService stores case documents and tracks their verification.
type DocumentService struct {
	documents repository.DocumentRepository
	cases     repository.CaseRepository
	blobs     storage.BlobStore
	allowed   []string
	maxBytes  int64
	logger    *zap.Logger
	events    publisher
	now       func() time.Time
}

// DocumentDependencies bundles collaborators.
type DocumentDependencies struct {
	DocumentRepo repository.DocumentRepository
	CaseRepo     repository.CaseRepository
	Blobs        storage.BlobStore
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// UploadInput describes an incoming file.
type UploadInput struct {
	CaseID   string
	FileName string
	Size     int64
	Content  io.Reader
}

// NewDocumentService constructs the service.
func NewDocumentService(cfg config.StorageConfig, deps DocumentDependencies) *DocumentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		documents: deps.DocumentRepo,
		cases:     deps.CaseRepo,
		blobs:     deps.Blobs,
		allowed:   cfg.AllowedMIMEs,
		maxBytes:  cfg.MaxUploadBytes(),
		logger:    logger,
		events:    newPublisher(deps.Dispatcher, logger),
		now:       time.Now,
	}
}

// Upload validates and stores a file against a case. The content type is
// detected from the bytes, not trusted from the client.
func (s *DocumentService) Upload(ctx context.Context, actor *domain.User, input UploadInput) (*domain.Document, error) {
	c, err := s.loadCase(ctx, actor, input.CaseID)
	if err != nil {
		return nil, err
	}
	if c.IsTerminal() {
		return nil, apperrors.NewConflict("case is closed", map[string]any{"status": c.Status})
	}
	if input.Size > s.maxBytes {
		return nil, tooLarge(s.maxBytes)
	}
	fileName := filepath.Base(strings.TrimSpace(input.FileName))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, apperrors.NewValidationError("file name is required", map[string]any{"file": "required"})
	}

	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(input.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewValidationError("could not read upload", map[string]any{"file": err.Error()})
	}
	head = head[:n]
	if n == 0 {
		return nil, apperrors.NewValidationError("file is empty", map[string]any{"file": "empty"})
	}
	detected := mimetype.Detect(head)
	mimeType, ok := s.allowedType(detected)
	if !ok {
		return nil, apperrors.NewValidationError("file type not allowed", map[string]any{
			"mime_type": detected.String(),
			"allowed":   s.allowed,
		})
	}

	key := "cases/" + c.ID + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
	obj, err := s.blobs.Put(ctx, key, io.MultiReader(bytes.NewReader(head), input.Content))
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, tooLarge(s.maxBytes)
		}
		return nil, apperrors.NewInternalError(err)
	}

	doc := &domain.Document{
		CaseID:     c.ID,
		UploadedBy: actor.ID,
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  obj.Size,
		StorageKey: obj.Key,
		Checksum:   obj.Checksum,
		Status:     domain.DocumentStatusPending,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), obj.Key); delErr != nil {
			s.logger.Warn("removing orphaned blob", zap.String("key", obj.Key), zap.Error(delErr))
		}
		return nil, apperrors.MapError(err)
	}
	return doc, nil
}

func (s *DocumentService) allowedType(detected *mimetype.MIME) (string, bool) {
	for _, allowed := range s.allowed {
		if detected.Is(allowed) {
			return allowed, true
		}
	}
	return "", false
}

func tooLarge(limit int64) error {
	return apperrors.NewValidationError("file too large", map[string]any{"max_bytes": limit})
}

// Get returns document metadata.
func (s *DocumentService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Document, error) {
	doc, _, err := s.load(ctx, actor, id)
	return doc, err
}

// Download opens the document content. The caller closes the reader.
func (s *DocumentService) Download(ctx context.Context, actor *domain.User, id string) (*domain.Document, io.ReadCloser, error) {
	doc, _, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("document content missing", zap.String("document_id", doc.ID), zap.String("key", doc.StorageKey))
			return nil, nil, apperrors.NewNotFound("document content", map[string]any{"document_id": id})
		}
		return nil, nil, apperrors.NewInternalError(err)
	}
	return doc, rc, nil
}

func (s *DocumentService) List(ctx context.Context, actor *domain.User, caseID string) ([]domain.Document, error) {
	c, err := s.loadCase(ctx, actor, caseID)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return docs, nil
}

// Review verifies or rejects a pending document. Rejections need a note.
func (s *DocumentService) Review(ctx context.Context, actor *domain.User, id string, status domain.DocumentStatus, note string) (*domain.Document, error) {
	if status != domain.DocumentStatusVerified && status != domain.DocumentStatusRejected {
		return nil, apperrors.NewValidationError("status must be VERIFIED or REJECTED", map[string]any{"status": status})
	}
	note = strings.TrimSpace(note)
	if status == domain.DocumentStatusRejected && note == "" {
		return nil, apperrors.NewValidationError("a note is required when rejecting", map[string]any{"note": "required"})
	}
	doc, c, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.Can(domain.PermDocumentsVerify) {
		return nil, apperrors.NewForbidden("not allowed to review documents")
	}
	if doc.Status != domain.DocumentStatusPending {
		return nil, apperrors.NewInvalidTransition("document", doc.Status, status)
	}

	now := s.now().UTC()
	doc.Status = status
	doc.ReviewNote = note
	doc.VerifiedBy = &actor.ID
	doc.VerifiedAt = &now
	if err := s.documents.Update(ctx, doc); err != nil {
		return nil, apperrors.NotFoundOr(err, "document", map[string]any{"document_id": id})
	}
	s.events.publish(ctx, events.New(events.EventDocumentReviewed, doc.ID, &actor.ID, events.DocumentReviewedPayload{
		CaseID:     c.ID,
		UploadedBy: doc.UploadedBy,
		FileName:   doc.FileName,
		Status:     doc.Status,
		Note:       note,
	}))
	return doc, nil
}

// Delete removes a document. Uploaders may delete their own pending files; admins anything.
func (s *DocumentService) Delete(ctx context.Context, actor *domain.User, id string) error {
	doc, _, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	own := doc.UploadedBy == actor.ID && doc.Status == domain.DocumentStatusPending
	if actor.Role != domain.BaseRoleAdmin && !own {
		return apperrors.NewForbidden("not allowed to delete this document")
	}
	if err := s.documents.Delete(ctx, doc.ID); err != nil {
		return apperrors.NotFoundOr(err, "document", map[string]any{"document_id": id})
	}
	if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("removing document content", zap.String("key", doc.StorageKey), zap.Error(err))
	}
	return nil
}

func (s *DocumentService) loadCase(ctx context.Context, actor *domain.User, caseID string) (*domain.Case, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "case", map[string]any{"case_id": caseID})
	}
	if !canViewCase(actor, c) {
		return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
	}
	return c, nil
}

func (s *DocumentService) load(ctx context.Context, actor *domain.User, id string) (*domain.Document, *domain.Case, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, nil, apperrors.NotFoundOr(err, "document", map[string]any{"document_id": id})
	}
	c, err := s.cases.GetByID(ctx, doc.CaseID)
	if err != nil {
		return nil, nil, apperrors.NotFoundOr(err, "case", map[string]any{"case_id": doc.CaseID})
	}
	if !canViewCase(actor, c) {
		return nil, nil, apperrors.NewNotFound("document", map[string]any{"document_id": id})
	}
	return doc, c, nil
}
