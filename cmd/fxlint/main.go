// Package main validates particlefx preset files.
//
// Usage:
//
//	go run ./cmd/fxlint [file.yaml ...]
//
// Without arguments the built-in library is checked. Every preset is built
// once; texture paths must exist on disk. Exits 1 when any preset fails.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/embedded"
	"github.com/decker502/particlefx/pkg/render"
	"github.com/decker502/particlefx/pkg/systems"
)

func main() {
	log.SetOutput(io.Discard)
	if failed := run(os.Args[1:], os.Stdout); failed > 0 {
		os.Exit(1)
	}
}

// run checks every file and returns the number of failures.
func run(paths []string, out io.Writer) int {
	if len(paths) == 0 {
		lib, err := particle.LoadEmbedded(embedded.DefaultPresets)
		if err != nil {
			fmt.Fprintf(out, "❌ %s: %v\n", embedded.DefaultPresets, err)
			return 1
		}
		return check(embedded.DefaultPresets, lib, out)
	}

	failed := 0
	for _, path := range paths {
		lib, err := particle.LoadFile(path)
		if err != nil {
			fmt.Fprintf(out, "❌ %v\n", err)
			failed++
			continue
		}
		failed += check(path, lib, out)
	}
	return failed
}

func check(source string, lib *particle.Library, out io.Writer) int {
	fmt.Fprintf(out, "%s: %d presets\n", source, len(lib.Presets))

	opts := config.BuildOptions{LoadTexture: statTexture}
	seen := make(map[string]bool, len(lib.Presets))
	failed := 0
	for i := range lib.Presets {
		p := &lib.Presets[i]
		var err error
		switch {
		case p.Name == "":
			err = fmt.Errorf("preset #%d: name cannot be empty", i+1)
		case seen[p.Name]:
			err = fmt.Errorf("duplicate preset name %q", p.Name)
		default:
			var sys systems.System
			sys, err = config.BuildPreset(p, opts)
			if err == nil {
				sys.Dispose()
			}
		}
		seen[p.Name] = true

		if err != nil {
			fmt.Fprintf(out, "  ❌ %v\n", err)
			failed++
			continue
		}
		kind := p.Kind
		if kind == "" {
			kind = "single"
		}
		fmt.Fprintf(out, "  ✅ %s (%s)\n", p.Name, kind)
	}
	return failed
}

// statTexture 只检查纹理文件是否存在
func statTexture(path string) (render.Texture, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("texture %s is a directory", path)
	}
	return stubTexture{}, nil
}

type stubTexture struct{}

func (stubTexture) Width() int  { return 1 }
func (stubTexture) Height() int { return 1 }
func (stubTexture) Dispose()    {}
