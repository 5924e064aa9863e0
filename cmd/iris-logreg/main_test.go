package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"iris-logreg/internal/config"
)

func TestRootCmdTrainsAndSaves(t *testing.T) {
	out := filepath.Join(t.TempDir(), "model.pb")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--epochs", "5", "--log_interval", "2", "--output", out, "--format", "proto", "--device", "cpu"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("empty model file")
	}
}

func TestRootCmdRejectsInvalidConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--test_size", "0", "--output", filepath.Join(t.TempDir(), "m.pt")})
	if err := cmd.Execute(); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
