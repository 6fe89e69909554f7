package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/legal-aid-service/internal/config"
	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/storage"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

func newDocumentService(t *testing.T, maxMB int) (*DocumentService, *MockDocumentRepository, *MockCaseRepository, *storage.FileStore) {
	t.Helper()
	cfg := config.StorageConfig{MaxUploadMB: maxMB, AllowedMIMEs: []string{"application/pdf", "image/png"}}
	blobs, err := storage.NewFileStore(t.TempDir(), cfg.MaxUploadBytes())
	require.NoError(t, err)
	docs := new(MockDocumentRepository)
	cases := new(MockCaseRepository)
	svc := NewDocumentService(cfg, DocumentDependencies{DocumentRepo: docs, CaseRepo: cases, Blobs: blobs})
	return svc, docs, cases, blobs
}

func TestDocumentService_Upload(t *testing.T) {
	client := &domain.User{ID: "client-1", Role: domain.BaseRoleClient}
	c := &domain.Case{ID: "case-1", ClientID: "client-1", Status: domain.CaseStatusAssigned}

	t.Run("stores pdf with checksum", func(t *testing.T) {
		svc, docs, cases, blobs := newDocumentService(t, 1)
		cases.On("GetByID", mock.Anything, "case-1").Return(c, nil)
		docs.On("Create", mock.Anything, mock.Anything).Return(nil)

		doc, err := svc.Upload(context.Background(), client, UploadInput{
			CaseID: "case-1", FileName: "../../ID Card.PDF", Size: int64(len(pdfBytes)), Content: bytes.NewReader(pdfBytes),
		})
		require.NoError(t, err)
		assert.Equal(t, "ID Card.PDF", doc.FileName)
		assert.Equal(t, "application/pdf", doc.MimeType)
		assert.Equal(t, domain.DocumentStatusPending, doc.Status)
		assert.True(t, strings.HasPrefix(doc.StorageKey, "cases/case-1/"))
		assert.True(t, strings.HasSuffix(doc.StorageKey, ".pdf"))
		assert.Len(t, doc.Checksum, 64)

		rc, err := blobs.Open(context.Background(), doc.StorageKey)
		require.NoError(t, err)
		defer rc.Close()
		stored, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, pdfBytes, stored)
	})

	t.Run("rejects disallowed type", func(t *testing.T) {
		svc, docs, cases, _ := newDocumentService(t, 1)
		cases.On("GetByID", mock.Anything, "case-1").Return(c, nil)

		_, err := svc.Upload(context.Background(), client, UploadInput{
			CaseID: "case-1", FileName: "notes.pdf", Size: 11, Content: strings.NewReader("plain text!"),
		})
		de := apperrors.ToDomainError(err)
		assert.Equal(t, "VALIDATION_FAILED", de.Code)
		assert.Equal(t, "file type not allowed", de.Message)
		docs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects oversized declared size", func(t *testing.T) {
		svc, _, cases, _ := newDocumentService(t, 1)
		cases.On("GetByID", mock.Anything, "case-1").Return(c, nil)

		_, err := svc.Upload(context.Background(), client, UploadInput{
			CaseID: "case-1", FileName: "big.pdf", Size: 2 << 20, Content: bytes.NewReader(pdfBytes),
		})
		assert.Equal(t, "file too large", apperrors.ToDomainError(err).Message)
	})

	t.Run("rejects oversized stream", func(t *testing.T) {
		svc, _, cases, _ := newDocumentService(t, 1)
		cases.On("GetByID", mock.Anything, "case-1").Return(c, nil)
		big := append(append([]byte{}, pdfBytes...), bytes.Repeat([]byte("x"), 1<<20)...)

		_, err := svc.Upload(context.Background(), client, UploadInput{
			CaseID: "case-1", FileName: "big.pdf", Size: 10, Content: bytes.NewReader(big),
		})
		assert.Equal(t, "file too large", apperrors.ToDomainError(err).Message)
	})

	t.Run("removes blob when insert fails", func(t *testing.T) {
		svc, docs, cases, blobs := newDocumentService(t, 1)
		cases.On("GetByID", mock.Anything, "case-1").Return(c, nil)
		var key string
		docs.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			key = args.Get(1).(*domain.Document).StorageKey
		}).Return(errors.New("db down"))

		_, err := svc.Upload(context.Background(), client, UploadInput{
			CaseID: "case-1", FileName: "a.pdf", Size: int64(len(pdfBytes)), Content: bytes.NewReader(pdfBytes),
		})
		require.Error(t, err)
		_, openErr := blobs.Open(context.Background(), key)
		assert.ErrorIs(t, openErr, storage.ErrNotFound)
	})
}

func TestDocumentService_Review(t *testing.T) {
	office := "office-1"
	coordinator := &domain.User{ID: "coord", Role: domain.BaseRoleCoordinator, OfficeID: &office, Permissions: []domain.Permission{domain.PermDocumentsVerify}}
	c := &domain.Case{ID: "case-1", OfficeID: office}

	t.Run("reject requires note", func(t *testing.T) {
		svc, _, _, _ := newDocumentService(t, 1)
		_, err := svc.Review(context.Background(), coordinator, "d1", domain.DocumentStatusRejected, " ")
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("verifies pending document", func(t *testing.T) {
		svc, docs, cases, _ := newDocumentService(t, 1)
		doc := &domain.Document{ID: "d1", CaseID: "case-1", Status: domain.DocumentStatusPending}
		docs.On("GetByID", mock.Anything, "d1").Return(doc, nil)
		cases.On("GetByID", mock.Anything, "case-1").Return(c, nil)
		docs.On("Update", mock.Anything, doc).Return(nil)

		got, err := svc.Review(context.Background(), coordinator, "d1", domain.DocumentStatusVerified, "")
		require.NoError(t, err)
		assert.Equal(t, domain.DocumentStatusVerified, got.Status)
		assert.Equal(t, "coord", *got.VerifiedBy)

		_, err = svc.Review(context.Background(), coordinator, "d1", domain.DocumentStatusRejected, "late")
		assert.Equal(t, "INVALID_TRANSITION", apperrors.ToDomainError(err).Code)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	client := &domain.User{ID: "client-1", Role: domain.BaseRoleClient}
	c := &domain.Case{ID: "case-1", ClientID: "client-1"}

	svc, docs, cases, _ := newDocumentService(t, 1)
	cases.On("GetByID", mock.Anything, "case-1").Return(c, nil)
	docs.On("GetByID", mock.Anything, "verified").Return(&domain.Document{ID: "verified", CaseID: "case-1", UploadedBy: "client-1", Status: domain.DocumentStatusVerified}, nil)
	docs.On("GetByID", mock.Anything, "pending").Return(&domain.Document{ID: "pending", CaseID: "case-1", UploadedBy: "client-1", Status: domain.DocumentStatusPending, StorageKey: "cases/case-1/x.pdf"}, nil)
	docs.On("Delete", mock.Anything, "pending").Return(nil)

	err := svc.Delete(context.Background(), client, "verified")
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), client, "pending"))
	docs.AssertCalled(t, "Delete", mock.Anything, "pending")
}
