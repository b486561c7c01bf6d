package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/metrics"
)

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"--preset", "fern", "--cue", "sparks@0", "--cue", "smoke@1/2", "--frames", "10"})
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}
	if o.preset != "fern" || o.frames != 10 || o.width != 640 || o.seed != 1 {
		t.Errorf("options = %+v", o)
	}
	if got := o.cues.String(); got != "sparks@0,smoke@1/2" {
		t.Errorf("cues = %q", got)
	}

	bad := [][]string{
		{"--dt", "0"},
		{"--frames", "-1"},
		{"--width", "0"},
		{"--nope"},
	}
	for _, args := range bad {
		if _, err := parseFlags(args); err == nil {
			t.Errorf("parseFlags(%v) should fail", args)
		}
	}
}

func TestNumbered(t *testing.T) {
	tests := map[string]string{
		"out.png":         "out-0030.png",
		"dir/snap.v1.png": "dir/snap.v1-0030.png",
		"noext":           "noext-0030",
	}
	for in, want := range tests {
		if got := numbered(in, 30); got != want {
			t.Errorf("numbered(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRun_WritesSnapshots(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "sparks.png")
	o := &options{preset: "sparks", frames: 30, dt: 1.0 / 60, every: 10, out: out, width: 160, height: 120, bg: "#000000", seed: 1, stats: true}

	var stdout bytes.Buffer
	if err := run(o, &stdout); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, name := range []string{"sparks.png", "sparks-0010.png", "sparks-0020.png", "sparks-0030.png"} {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("missing snapshot %s: %v", name, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", name, err)
		}
		if b := img.Bounds(); b.Dx() != 160 || b.Dy() != 120 {
			t.Errorf("%s size = %dx%d, want 160x120", name, b.Dx(), b.Dy())
		}
	}

	var stats []metrics.SystemStats
	if err := json.Unmarshal(stdout.Bytes(), &stats); err != nil {
		t.Fatalf("stats output is not JSON: %v\n%s", err, stdout.String())
	}
	if len(stats) != 1 || !strings.HasPrefix(stats[0].Name, "sparks#") {
		t.Fatalf("stats = %+v", stats)
	}
	if stats[0].Active() == 0 {
		t.Error("sparks has no active particles after 30 frames")
	}
}

func TestRun_Timeline(t *testing.T) {
	out := filepath.Join(t.TempDir(), "show.png")
	o := &options{cues: cueList{"sparks@0:40,40", "smoke@0.1"}, frames: 20, dt: 1.0 / 60, out: out, width: 80, height: 80, bg: "#101018", seed: 2}

	var stdout bytes.Buffer
	if err := run(o, &stdout); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "after 20 frames") {
		t.Errorf("summary = %q", stdout.String())
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("snapshot not written: %v", err)
	}
}

func TestRun_Errors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "x.png")

	o := &options{preset: "missing", frames: 1, dt: 0.1, out: out, width: 10, height: 10, bg: "#000000"}
	if err := run(o, &bytes.Buffer{}); !errors.Is(err, config.ErrUnknownPreset) {
		t.Errorf("unknown preset error = %v, want ErrUnknownPreset", err)
	}

	o = &options{preset: "sparks", frames: 1, dt: 0.1, out: out, width: 10, height: 10, bg: "red"}
	if err := run(o, &bytes.Buffer{}); err == nil || !strings.Contains(err.Error(), "background") {
		t.Errorf("bad background error = %v", err)
	}

	o = &options{presets: filepath.Join(t.TempDir(), "none.yaml"), frames: 1, dt: 0.1, out: out, width: 10, height: 10, bg: "#000000"}
	if err := run(o, &bytes.Buffer{}); err == nil {
		t.Error("missing preset file should fail")
	}
}
