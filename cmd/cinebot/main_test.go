package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "cinebot dev") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestMigrateRejectsUnknownDirection(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate", "sideways"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error for an unknown direction")
	}
}

func TestLoadConfigValidates(t *testing.T) {
	t.Parallel()

	// The defaults carry no bot token, so validation must fail.
	if _, err := loadConfig(t.TempDir() + "/missing.toml"); err == nil {
		t.Fatalf("expected validation error")
	}
}
