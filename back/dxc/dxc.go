//go:build dxil

package dxc

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/gogpu/slang/back"
	"github.com/gogpu/slang/back/cross"
	"github.com/gogpu/slang/bind"
	"github.com/gogpu/slang/spirv"
)

// DefaultBin is the dxc executable looked up on PATH.
const DefaultBin = "dxc"

func init() {
	back.Register(&Backend{bin: DefaultBin})
}

// Backend implements back.Backend for back.TargetDXIL.
type Backend struct {
	bin string
}

// New returns an engine using the given dxc executable.
func New(bin string) *Backend {
	if bin == "" {
		bin = DefaultBin
	}
	return &Backend{bin: bin}
}

func (*Backend) Target() back.Target { return back.TargetDXIL }

// Compile emits HLSL for the stage and feeds it through dxc with
// shader model 6.0 profiles. Register assignments are inherited from
// the HLSL engine unchanged since dxc preserves explicit registers.
func (b *Backend) Compile(module *spirv.Module, bindings *bind.Map, stage spirv.Stage, options *back.Options) (*back.CompiledShader, error) {
	hlslEngine, err := cross.New(back.TargetHLSL, "")
	if err != nil {
		return nil, err
	}
	if options == nil {
		options = back.DefaultOptions()
	}
	hlslOpts := *options
	if hlslOpts.HLSLModel < 60 {
		hlslOpts.HLSLModel = 60
	}
	hlsl, err := hlslEngine.Compile(module, bindings, stage, &hlslOpts)
	if err != nil {
		return nil, err
	}

	code, err := b.compileHLSL(hlsl.Code, stage)
	if err != nil {
		return nil, err
	}

	return &back.CompiledShader{
		Target:    back.TargetDXIL,
		Stage:     stage,
		Code:      code,
		Locations: hlsl.Locations,
	}, nil
}

func (b *Backend) compileHLSL(source []byte, stage spirv.Stage) ([]byte, error) {
	dir, err := os.MkdirTemp("", "dxc")
	if err != nil {
		return nil, &back.Error{Target: back.TargetDXIL, Message: "create temp dir", Err: err}
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "shader.hlsl")
	out := filepath.Join(dir, "shader.dxil")
	if err := os.WriteFile(in, source, 0o600); err != nil {
		return nil, &back.Error{Target: back.TargetDXIL, Message: "write shader source", Err: err}
	}

	profile := "vs_6_0"
	if stage == spirv.StageFragment {
		profile = "ps_6_0"
	}
	cmd := exec.Command(b.bin, "-T", profile, "-E", "main", "-Fo", out, in)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &back.Error{
			Target:  back.TargetDXIL,
			Tool:    b.bin,
			Message: "dxil compilation failed",
			Output:  stderr.String(),
			Err:     err,
		}
	}

	code, err := os.ReadFile(out)
	if err != nil {
		return nil, &back.Error{Target: back.TargetDXIL, Message: "read dxil output", Err: err}
	}
	return code, nil
}
