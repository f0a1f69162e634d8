package attachments

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalassist-backend/internal/assistant"
	"legalassist-backend/internal/conversation"
	"legalassist-backend/internal/shared/storage/object/local"
)

type fakeAnalyzer struct {
	last assistant.FileAnalysisRequest
	err  error
}

func (f *fakeAnalyzer) AnalyzeText(_ context.Context, req assistant.FileAnalysisRequest) (string, error) {
	f.last = req
	if f.err != nil {
		return "", f.err
	}
	return "This is a rental notice.", nil
}

func newService(t *testing.T) (*Service, *fakeAnalyzer) {
	t.Helper()
	an := &fakeAnalyzer{}
	return &Service{Store: local.New(t.TempDir()), Analyzer: an, MaxChars: 10}, an
}

func TestSaveAndAnalyze(t *testing.T) {
	svc, an := newService(t)
	ctx := context.Background()

	ref, err := svc.Save(ctx, "guest:1", "notice.txt", strings.NewReader("Vacate the premises by March."))
	require.NoError(t, err)
	assert.Equal(t, "notice.txt", ref.FileName)
	assert.NotEmpty(t, ref.StorageKey)
	assert.True(t, strings.HasPrefix(ref.MimeType, "text/plain"))

	out, err := svc.AnalyzeFile(ctx, ref, "hi")
	require.NoError(t, err)
	assert.Equal(t, "This is a rental notice.", out)
	assert.Equal(t, "Vacate the", an.last.Text)
	assert.Equal(t, "hi", an.last.Language)
	assert.Equal(t, ref.StorageKey, an.last.StorageKey)
}

func TestSaveRejectsInvalidUploads(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		fileName string
		body     string
	}{
		{name: "empty name", fileName: "  ", body: "x"},
		{name: "traversal", fileName: "../x.txt", body: "x"},
		{name: "empty body", fileName: "a.txt", body: ""},
		{name: "binary", fileName: "a.png", body: "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Save(ctx, "u1", tt.fileName, strings.NewReader(tt.body))
			assert.True(t, errors.Is(err, conversation.ErrInvalidInput), "got %v", err)
		})
	}
}

func storedFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestSaveRemovesRejectedUploads(t *testing.T) {
	dir := t.TempDir()
	svc := &Service{Store: local.New(dir), Analyzer: &fakeAnalyzer{}}
	ctx := context.Background()

	_, err := svc.Save(ctx, "u1", "a.txt", strings.NewReader(""))
	require.ErrorIs(t, err, conversation.ErrInvalidInput)
	_, err = svc.Save(ctx, "u1", "a.png", strings.NewReader("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.ErrorIs(t, err, conversation.ErrInvalidInput)

	assert.Empty(t, storedFiles(t, dir))
}

func TestDiscardRemovesObjectAndCachedText(t *testing.T) {
	dir := t.TempDir()
	svc := &Service{Store: local.New(dir), Analyzer: &fakeAnalyzer{}}
	ctx := context.Background()

	ref, err := svc.Save(ctx, "u1", "notice.txt", strings.NewReader("Pay the rent."))
	require.NoError(t, err)
	_, err = svc.AnalyzeFile(ctx, ref, "en")
	require.NoError(t, err)
	require.Len(t, storedFiles(t, dir), 2)

	svc.Discard(ctx, ref)
	assert.Empty(t, storedFiles(t, dir))
}

func TestAnalyzePropagatesBackendError(t *testing.T) {
	svc, an := newService(t)
	an.err = conversation.ErrQuotaExhausted
	ctx := context.Background()

	ref, err := svc.Save(ctx, "u1", "a.txt", strings.NewReader("some text"))
	require.NoError(t, err)

	_, err = svc.AnalyzeFile(ctx, ref, "en")
	assert.ErrorIs(t, err, conversation.ErrQuotaExhausted)
}

func TestAnalyzeMissingObject(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.AnalyzeFile(context.Background(), conversation.FileRef{StorageKey: "missing/a.txt", MimeType: "text/plain", FileName: "a.txt"}, "en")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "नम", truncate("नमस्ते", 2))
}
