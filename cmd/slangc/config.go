package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/slang/bind"
	"github.com/mattn/go-shellwords"
	"github.com/pelletier/go-toml/v2"
)

// preset is the on-disk TOML description of one shader: where its
// stage sources live and what parameters and textures it declares.
type preset struct {
	Name     string `toml:"name"`
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`

	// Textures are user texture names the shader samples.
	Textures []string `toml:"textures"`

	// ExtraArgs is a shell-style string of additional front end
	// flags, e.g. `-DCURVED=1 --target-env vulkan1.0`.
	ExtraArgs string `toml:"extra_args"`

	Parameters []presetParameter `toml:"parameters"`
}

type presetParameter struct {
	Name    string  `toml:"name"`
	Default float32 `toml:"default"`
	Minimum float32 `toml:"min"`
	Maximum float32 `toml:"max"`
	Step    float32 `toml:"step"`
}

// loadPreset reads and validates a preset file. Stage paths are
// resolved relative to the preset's directory.
func loadPreset(path string) (*preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p preset
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Vertex == "" || p.Fragment == "" {
		return nil, fmt.Errorf("%s: preset must name both vertex and fragment sources", path)
	}
	dir := filepath.Dir(path)
	p.Vertex = filepath.Join(dir, p.Vertex)
	p.Fragment = filepath.Join(dir, p.Fragment)
	if p.Name == "" {
		p.Name = filepath.Base(path)
	}
	return &p, nil
}

func (p *preset) parameters() []bind.Parameter {
	out := make([]bind.Parameter, len(p.Parameters))
	for i, pp := range p.Parameters {
		out[i] = bind.Parameter{
			Name:    pp.Name,
			Default: pp.Default,
			Minimum: pp.Minimum,
			Maximum: pp.Maximum,
			Step:    pp.Step,
		}
	}
	return out
}

func (p *preset) extraArgs() ([]string, error) {
	if p.ExtraArgs == "" {
		return nil, nil
	}
	args, err := shellwords.Parse(p.ExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("extra_args: %w", err)
	}
	return args, nil
}
