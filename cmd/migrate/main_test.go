package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"legalassist-backend/internal/shared/config"
)

func TestStatusRequiresDatabase(t *testing.T) {
	var out bytes.Buffer
	err := status(context.Background(), config.Config{}, &out)
	if err == nil || !strings.Contains(err.Error(), "connect database") {
		t.Fatalf("expected connect error, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestRootCommandHasStatus(t *testing.T) {
	cmd, _, err := rootCmd().Find([]string{"status"})
	if err != nil || cmd.Name() != "status" {
		t.Fatalf("expected status subcommand, got %v (%v)", cmd, err)
	}
	if rootCmd().PersistentFlags().Lookup("database-url") == nil {
		t.Fatalf("expected --database-url on every subcommand")
	}
}
