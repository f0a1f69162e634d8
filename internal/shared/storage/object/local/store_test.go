package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"legalassist-backend/internal/shared/storage/object"
)

func TestSaveAndOpen(t *testing.T) {
	s := New(t.TempDir())

	obj, err := s.Save(context.Background(), "guest:abc", "lease deed.txt", strings.NewReader("hello lease"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if obj.Size != int64(len("hello lease")) {
		t.Fatalf("unexpected size %d", obj.Size)
	}
	if !strings.HasPrefix(obj.ContentType, "text/plain") {
		t.Fatalf("unexpected content type %q", obj.ContentType)
	}
	if strings.Contains(obj.Key, "guest:abc") || !strings.HasSuffix(obj.Key, "_lease deed.txt") {
		t.Fatalf("unexpected key %q", obj.Key)
	}

	rc, err := s.Open(context.Background(), obj.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "hello lease" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestRejectsTraversal(t *testing.T) {
	s := New(t.TempDir())

	if _, err := s.Open(context.Background(), "../etc/passwd"); !errors.Is(err, object.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := s.Put(context.Background(), "/abs/key", "text/plain", strings.NewReader("x")); !errors.Is(err, object.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := s.Save(context.Background(), "u1", "../x.pdf", strings.NewReader("x")); err == nil {
		t.Fatalf("expected invalid file name error")
	}
}

func TestDelete(t *testing.T) {
	s := New(t.TempDir())

	obj, err := s.Save(context.Background(), "u1", "notes.txt", strings.NewReader("draft"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete(context.Background(), obj.Key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Open(context.Background(), obj.Key); err == nil {
		t.Fatalf("expected deleted file to be gone")
	}
	if err := s.Delete(context.Background(), obj.Key); err != nil {
		t.Fatalf("deleting a missing key should succeed: %v", err)
	}
	if err := s.Delete(context.Background(), "../secret"); !errors.Is(err, object.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
