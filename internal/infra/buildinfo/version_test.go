package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func stubBuildInfo(t *testing.T, settings ...debug.BuildSetting) {
	t.Helper()
	prev := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: settings}, true
	}
	t.Cleanup(func() { readBuildInfo = prev })
}

func TestGet(t *testing.T) {
	stubBuildInfo(t)
	info := Get()

	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.Commit != Commit {
		t.Errorf("Commit = %q, want %q", info.Commit, Commit)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestGet_VCSFallback(t *testing.T) {
	stubBuildInfo(t,
		debug.BuildSetting{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		debug.BuildSetting{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
	)

	prevCommit, prevTime := Commit, BuildTime
	Commit, BuildTime = "unknown", "unknown"
	t.Cleanup(func() { Commit, BuildTime = prevCommit, prevTime })

	info := Get()
	if info.Commit != "0123456789ab" {
		t.Errorf("Commit = %q, want short revision", info.Commit)
	}
	if info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("BuildTime = %q", info.BuildTime)
	}
}

func TestGet_LdflagsWin(t *testing.T) {
	stubBuildInfo(t, debug.BuildSetting{Key: "vcs.revision", Value: "fromvcs"})

	prev := Commit
	Commit = "fromldflags"
	t.Cleanup(func() { Commit = prev })

	if got := Get().Commit; got != "fromldflags" {
		t.Errorf("Commit = %q, want ldflags value", got)
	}
}

func TestString(t *testing.T) {
	stubBuildInfo(t)

	s := String()
	expected := Version + " (" + Commit + ") built at " + BuildTime + " with " + runtime.Version()
	if s != expected {
		t.Errorf("String() = %q, want %q", s, expected)
	}
	if !strings.Contains(s, "built at") {
		t.Error("String() should mention the build time")
	}
}
