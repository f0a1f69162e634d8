package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"legalassist-backend/internal/conversation"
)

// Service records and lists generated documents.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

// Record implements conversation.DocumentRecorder.
func (s *Service) Record(ctx context.Context, userID string, doc conversation.GeneratedDocument) error {
	if strings.TrimSpace(userID) == "" || doc.ID == "" {
		return ErrInvalidInput
	}
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	err := s.Repo.Create(ctx, Document{
		ID:           doc.ID,
		UserID:       userID,
		Kind:         string(doc.Kind),
		TemplatePath: doc.TemplatePath,
		Title:        doc.Title,
		Category:     doc.Category,
		DesignID:     doc.DesignID,
		FileURL:      doc.FileURL,
		Message:      doc.Message,
		Values:       doc.Values,
		CreatedAt:    createdAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("record document %s: %w", doc.ID, err)
	}
	return nil
}

// Get returns one document of a user.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	if userID == "" || documentID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, documentID)
}

// List returns a page of a user's documents, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

var _ conversation.DocumentRecorder = (*Service)(nil)
