package deps

import (
	"os"
	"path/filepath"
	"testing"

	"moshpit/internal/config"
)

func TestCheckBinariesFindsStub(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "ffprobe")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	statuses := CheckBinaries([]Requirement{
		{Name: "ffprobe", Command: "ffprobe"},
		{Name: "ffmpeg", Command: "ffmpeg"},
		{Name: "unset", Command: ""},
	})
	if !statuses[0].Available {
		t.Fatalf("stubbed ffprobe reported unavailable: %+v", statuses[0])
	}
	if statuses[1].Available {
		t.Fatal("ffmpeg should be missing from the stub PATH")
	}
	if statuses[2].Detail != "command not configured" {
		t.Fatalf("detail = %q", statuses[2].Detail)
	}

	missing := Missing(statuses)
	if len(missing) != 2 {
		t.Fatalf("missing = %+v", missing)
	}
}

func TestRequirementsFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Media.FFprobeBinary = "/opt/ffprobe"
	reqs := Requirements(&cfg)
	if len(reqs) != 2 || reqs[0].Command != "/opt/ffprobe" {
		t.Fatalf("requirements = %+v", reqs)
	}
}
