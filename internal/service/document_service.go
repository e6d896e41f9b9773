package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rfpdesk/rfp-backend/internal/access"
	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/socket"
	"github.com/rfpdesk/rfp-backend/internal/storage"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

// ============================================
// Document Service
// ============================================

// DocumentInput is the upload payload for an RFP document.
type DocumentInput struct {
	Name             string
	ContentType      string
	Size             int64
	RequiresNda      bool
	RequiresApproval bool
	Body             io.Reader
}

// DocumentView pairs a document's metadata with the requester's access
// decision. Restricted documents are listed but not downloadable.
type DocumentView struct {
	*repository.Document
	Access access.Decision `json:"access"`
}

type DocumentService interface {
	Add(ctx context.Context, req access.Requester, rfpID string, input DocumentInput) (*repository.Document, error)
	ListForRequester(ctx context.Context, req access.Requester, rfpID string) ([]*DocumentView, error)
	Download(ctx context.Context, req access.Requester, documentID string) (string, error)
	UpdateFlags(ctx context.Context, req access.Requester, documentID string, requiresNda, requiresApproval bool) (*repository.Document, error)
	Delete(ctx context.Context, req access.Requester, documentID string) error
}

type documentService struct {
	documentRepo repository.DocumentRepository
	rfpRepo      repository.RfpRepository
	evaluator    *access.Evaluator
	storage      *storage.Client
	broadcaster  *socket.Broadcaster
}

func NewDocumentService(
	documentRepo repository.DocumentRepository,
	rfpRepo repository.RfpRepository,
	evaluator *access.Evaluator,
	storageClient *storage.Client,
	broadcaster *socket.Broadcaster,
) DocumentService {
	return &documentService{
		documentRepo: documentRepo,
		rfpRepo:      rfpRepo,
		evaluator:    evaluator,
		storage:      storageClient,
		broadcaster:  broadcaster,
	}
}

func canManageDocuments(req access.Requester, rfp *repository.Rfp) bool {
	if req.Role == types.RoleAdmin || req.Role == types.RoleClientReviewer {
		return true
	}
	return !req.Anonymous() && rfp.CreatedBy == req.UserID
}

func (s *documentService) loadRfp(ctx context.Context, rfpID string) (*repository.Rfp, error) {
	rfp, err := s.rfpRepo.FindByID(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	if rfp == nil {
		return nil, ErrNotFound
	}
	return rfp, nil
}

func (s *documentService) Add(ctx context.Context, req access.Requester, rfpID string, input DocumentInput) (*repository.Document, error) {
	rfp, err := s.loadRfp(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	if !canManageDocuments(req, rfp) {
		return nil, ErrForbidden
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || input.Body == nil {
		return nil, ErrInvalidInput
	}

	key := fmt.Sprintf("rfps/%s/%d-%s", rfpID, time.Now().Unix(), uuid.New().String())
	if s.storage == nil {
		return nil, fmt.Errorf("document storage is not configured")
	}
	if err := s.storage.Upload(ctx, key, input.Body, input.ContentType); err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}

	doc := &repository.Document{
		RfpID:            rfpID,
		Name:             input.Name,
		FileKey:          key,
		RequiresNda:      input.RequiresNda,
		RequiresApproval: input.RequiresApproval,
	}
	if input.ContentType != "" {
		doc.ContentType = &input.ContentType
	}
	if input.Size > 0 {
		doc.Size = &input.Size
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	if s.broadcaster != nil && rfp.Status != types.RfpDraft {
		s.broadcaster.BroadcastDocumentAdded(rfpID, map[string]interface{}{
			"documentId": doc.ID,
			"rfpId":      rfpID,
			"name":       doc.Name,
		}, req.UserID)
	}
	return doc, nil
}

// ListForRequester returns the RFP's documents, each stamped with the
// requester's access decision. One snapshot covers the whole list, so the
// per-document check does no lookups.
func (s *documentService) ListForRequester(ctx context.Context, req access.Requester, rfpID string) ([]*DocumentView, error) {
	rfp, err := s.loadRfp(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	docs, err := s.documentRepo.FindByRfpID(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	decisions, err := s.evaluator.EvaluateAll(ctx, req, rfp, docs)
	if err != nil {
		return nil, err
	}

	views := make([]*DocumentView, 0, len(docs))
	for i, doc := range docs {
		if decisions[i].Reason == access.ReasonRfpNotVisible {
			// A hidden RFP leaks nothing, not even document names.
			return nil, ErrNotFound
		}
		views = append(views, &DocumentView{Document: doc, Access: decisions[i]})
	}
	return views, nil
}

// Download evaluates access and returns a presigned URL. The evaluator runs
// before any storage interaction; a denial never reaches S3.
func (s *documentService) Download(ctx context.Context, req access.Requester, documentID string) (string, error) {
	doc, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", ErrNotFound
	}
	rfp, err := s.loadRfp(ctx, doc.RfpID)
	if err != nil {
		return "", err
	}

	decision, err := s.evaluator.CanAccessDocument(ctx, req, rfp, doc)
	if err != nil {
		return "", err
	}
	if !decision.Allowed {
		if decision.Reason == access.ReasonRfpNotVisible {
			return "", ErrNotFound
		}
		return "", ErrAccessDenied
	}

	if s.storage == nil {
		return "", fmt.Errorf("document storage is not configured")
	}
	return s.storage.PresignDownload(ctx, doc.FileKey)
}

func (s *documentService) UpdateFlags(ctx context.Context, req access.Requester, documentID string, requiresNda, requiresApproval bool) (*repository.Document, error) {
	doc, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	rfp, err := s.loadRfp(ctx, doc.RfpID)
	if err != nil {
		return nil, err
	}
	if !canManageDocuments(req, rfp) {
		return nil, ErrForbidden
	}

	doc.RequiresNda = requiresNda
	doc.RequiresApproval = requiresApproval
	if err := s.documentRepo.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, req access.Requester, documentID string) error {
	doc, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNotFound
	}
	rfp, err := s.loadRfp(ctx, doc.RfpID)
	if err != nil {
		return err
	}
	if !canManageDocuments(req, rfp) {
		return ErrForbidden
	}

	if err := s.documentRepo.Delete(ctx, documentID); err != nil {
		return err
	}
	if s.storage != nil {
		// Metadata row is authoritative; a failed object delete only orphans
		// the blob.
		if err := s.storage.Delete(ctx, doc.FileKey); err != nil {
			log.Printf("[STORAGE] ⚠️  Failed to delete object %s: %v", doc.FileKey, err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastDocumentRemoved(doc.RfpID, documentID, req.UserID)
	}
	return nil
}
