package main

import (
	"os"
	"testing"

	"github.com/eleven-am/todosync/pkg/todosync"
)

func TestExecute(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TODOSYNC_CONFIG", "")

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	t.Run("version", func(t *testing.T) {
		os.Args = []string{"todosync", "version"}
		if err := Execute(); err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
	})

	t.Run("build info applied", func(t *testing.T) {
		gitCommit = "abc1234"
		defer func() { gitCommit = "" }()

		os.Args = []string{"todosync", "version"}
		if err := Execute(); err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if todosync.BuildInfo.GitCommit != "abc1234" {
			t.Errorf("expected commit abc1234, got %q", todosync.BuildInfo.GitCommit)
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		os.Args = []string{"todosync", "frobnicate"}
		if err := Execute(); err == nil {
			t.Error("expected error for unknown command")
		}
	})
}
