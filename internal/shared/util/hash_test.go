package util

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestHashUserKey(t *testing.T) {
	id := "guest:12345"
	got := HashUserKey(id)
	if got != HashUserKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
	if HashUserKey(" guest:12345\n") != got {
		t.Fatalf("expected whitespace to be ignored")
	}
	if HashUserKey("guest:1") == HashUserKey("user:1") {
		t.Fatalf("expected guest and account ids to differ")
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: " lease.pdf ", want: "lease.pdf"},
		{in: "a/b\\c.docx", want: "a_b_c.docx"},
		{in: "rent\tagreement\x00.pdf", want: "rentagreement.pdf"},
		{in: "किरायानामा.pdf", want: "किरायानामा.pdf"},
		{in: "../secret", wantErr: true},
		{in: "   ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := SanitizeFileName(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("SanitizeFileName(%q) err = %v", tt.in, err)
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidFileName) {
			t.Fatalf("SanitizeFileName(%q) err = %v, want ErrInvalidFileName", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFileNameKeepsExtensionWhenShortening(t *testing.T) {
	got, err := SanitizeFileName(strings.Repeat("अ", 200) + ".docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := utf8.RuneCountInString(got); n != MaxFileNameRunes {
		t.Fatalf("expected %d runes, got %d", MaxFileNameRunes, n)
	}
	if !strings.HasSuffix(got, ".docx") {
		t.Fatalf("expected extension to survive, got %q", got)
	}
}

func TestRandomID(t *testing.T) {
	a, b := RandomID(), RandomID()
	if len(a) != 32 || a == b {
		t.Fatalf("unexpected ids %q %q", a, b)
	}
}
