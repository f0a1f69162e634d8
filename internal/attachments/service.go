package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"legalassist-backend/internal/assistant"
	"legalassist-backend/internal/conversation"
	"legalassist-backend/internal/extract"
	"legalassist-backend/internal/shared/storage/object"
	"legalassist-backend/internal/shared/telemetry"
)

const (
	DefaultMaxChars = 20000
	MaxUploadBytes  = 10 << 20
)

var ErrEmptyFile = errors.New("empty file")

// TextAnalyzer sends extracted attachment text to the assistant backend.
type TextAnalyzer interface {
	AnalyzeText(ctx context.Context, req assistant.FileAnalysisRequest) (string, error)
}

// Service stores uploaded attachments and turns them into analysis text.
type Service struct {
	Store    object.Store
	Analyzer TextAnalyzer
	MaxChars int
}

// Save stores an upload after checking it carries extractable text.
func (s *Service) Save(ctx context.Context, userID, fileName string, r io.Reader) (conversation.FileRef, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return conversation.FileRef{}, fmt.Errorf("%w: file name is required", conversation.ErrInvalidInput)
	}

	obj, err := s.Store.Save(ctx, userID, fileName, io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		if errors.Is(err, object.ErrInvalidKey) {
			return conversation.FileRef{}, fmt.Errorf("%w: %v", conversation.ErrInvalidInput, err)
		}
		return conversation.FileRef{}, fmt.Errorf("save attachment: %w", err)
	}
	var rejectErr error
	switch {
	case obj.Size == 0:
		rejectErr = fmt.Errorf("%w: %v", conversation.ErrInvalidInput, ErrEmptyFile)
	case obj.Size > MaxUploadBytes:
		rejectErr = fmt.Errorf("%w: file exceeds %d bytes", conversation.ErrInvalidInput, MaxUploadBytes)
	case !extract.Supported(obj.ContentType, fileName):
		rejectErr = fmt.Errorf("%w: unsupported file type %s", conversation.ErrInvalidInput, obj.ContentType)
	}
	if rejectErr != nil {
		s.remove(ctx, obj.Key)
		return conversation.FileRef{}, rejectErr
	}

	telemetry.Info("attachments.saved", map[string]any{
		"user_id":     userID,
		"storage_key": obj.Key,
		"mime_type":   obj.ContentType,
		"size_bytes":  obj.Size,
	})
	return conversation.FileRef{
		StorageKey: obj.Key,
		FileName:   fileName,
		MimeType:   obj.ContentType,
		SizeBytes:  obj.Size,
	}, nil
}

// AnalyzeFile extracts the attachment's text and asks the backend to analyze it.
func (s *Service) AnalyzeFile(ctx context.Context, file conversation.FileRef, language string) (string, error) {
	text, err := extract.FromStore(ctx, s.Store, file.StorageKey, file.MimeType, file.FileName)
	if err != nil {
		return "", fmt.Errorf("analyze attachment %s: %w", file.StorageKey, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("analyze attachment %s: no text found", file.StorageKey)
	}

	return s.Analyzer.AnalyzeText(ctx, assistant.FileAnalysisRequest{
		FileName:   file.FileName,
		MimeType:   file.MimeType,
		StorageKey: file.StorageKey,
		Text:       truncate(text, s.maxChars()),
		Language:   language,
	})
}

// Discard removes a stored attachment and its cached text.
func (s *Service) Discard(ctx context.Context, file conversation.FileRef) {
	if strings.TrimSpace(file.StorageKey) == "" {
		return
	}
	s.remove(ctx, file.StorageKey)
	s.remove(ctx, extract.CacheKey(file.StorageKey))
}

func (s *Service) remove(ctx context.Context, key string) {
	if err := s.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("attachments.delete_failed", map[string]any{
			"storage_key": key,
			"err":         err.Error(),
		})
	}
}

func (s *Service) maxChars() int {
	if s.MaxChars > 0 {
		return s.MaxChars
	}
	return DefaultMaxChars
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

var (
	_ conversation.Uploader     = (*Service)(nil)
	_ conversation.FileAnalyzer = (*Service)(nil)
)
