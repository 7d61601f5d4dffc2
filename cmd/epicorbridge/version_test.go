package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestVersionCommandExists(t *testing.T) {
	if versionCmd == nil {
		t.Fatal("versionCmd is nil")
	}
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Short == "" {
		t.Error("versionCmd.Short should not be empty")
	}
	if versionCmd.RunE == nil {
		t.Error("versionCmd.RunE should not be nil")
	}
}

func TestVersionInfo_String(t *testing.T) {
	info := versionInfo{
		Version:   "1.2.3",
		GitCommit: "abc123",
		BuildDate: "2026-01-02",
		GoVersion: "go1.25.0",
		Platform:  "linux/amd64",
	}

	out := info.String()
	for _, want := range []string{"Epicorbridge 1.2.3", "Git Commit: abc123", "Build Date: 2026-01-02", "OS/Arch: linux/amd64"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestVersionCommand_JSON(t *testing.T) {
	defer func() { versionFlags.output = "text" }()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version", "--output", "json"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	}()

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	var info versionInfo
	if err := json.Unmarshal(buf.Bytes(), &info); err != nil {
		t.Fatalf("failed to decode output %q: %v", buf.String(), err)
	}
	if info.Version != Version {
		t.Errorf("expected version %q, got %q", Version, info.Version)
	}
	if info.GoVersion == "" || info.Platform == "" {
		t.Errorf("expected runtime info to be filled, got %+v", info)
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	for _, path := range [][]string{
		{"run"},
		{"version"},
		{"config", "validate"},
		{"session", "check"},
		{"audit", "list"},
		{"audit", "prune"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil {
			t.Errorf("expected command %v, got error %v", path, err)
			continue
		}
		if cmd.Name() != path[len(path)-1] {
			t.Errorf("expected command %q, got %q", path[len(path)-1], cmd.Name())
		}
	}
}
