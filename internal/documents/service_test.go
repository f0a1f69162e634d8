package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"legalassist-backend/internal/conversation"
)

func TestRecordAndList(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"d1", "d2", "d3"} {
		err := svc.Record(ctx, "u1", conversation.GeneratedDocument{
			ID:           id,
			Kind:         conversation.DraftForm,
			TemplatePath: "rental/rent_agreement",
			Title:        "Rent Agreement",
			Values:       map[string]string{"n": id},
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}
	// Recording the same document twice keeps one entry.
	if err := svc.Record(ctx, "u1", conversation.GeneratedDocument{ID: "d1", CreatedAt: base}); err != nil {
		t.Fatalf("record duplicate: %v", err)
	}

	docs, err := svc.List(ctx, "u1", 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "d3" || docs[1].ID != "d2" {
		t.Fatalf("unexpected page %+v", docs)
	}
	docs, _ = svc.List(ctx, "u1", 10, 2)
	if len(docs) != 1 || docs[0].ID != "d1" {
		t.Fatalf("unexpected second page %+v", docs)
	}

	doc, err := svc.Get(ctx, "u1", "d2")
	if err != nil || doc.Values["n"] != "d2" || doc.Kind != "form" {
		t.Fatalf("unexpected get %+v err=%v", doc, err)
	}
	if _, err := svc.Get(ctx, "u2", "d2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected other users to see nothing, got %v", err)
	}
}

func TestRecordValidation(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	if err := svc.Record(context.Background(), "", conversation.GeneratedDocument{ID: "d"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := svc.Record(context.Background(), "u1", conversation.GeneratedDocument{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRecordDefaultsCreatedAt(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo, Now: func() time.Time { return now }}

	if err := svc.Record(context.Background(), "u1", conversation.GeneratedDocument{ID: "d1"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	doc, _ := repo.GetByID(context.Background(), "u1", "d1")
	if !doc.CreatedAt.Equal(now) {
		t.Fatalf("expected default created at, got %s", doc.CreatedAt)
	}
}
