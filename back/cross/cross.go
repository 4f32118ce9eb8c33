// Package cross lowers SPIR-V to GLSL, HLSL and MSL source by shelling
// out to spirv-cross. The module is fed on stdin and the emitted source
// read from stdout, so no temporary files are involved.
package cross

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/gogpu/slang/back"
	"github.com/gogpu/slang/bind"
	"github.com/gogpu/slang/reflect"
	"github.com/gogpu/slang/spirv"
)

// DefaultBin is the spirv-cross executable looked up on PATH.
const DefaultBin = "spirv-cross"

func init() {
	back.Register(&Backend{target: back.TargetGLSL, bin: DefaultBin})
	back.Register(&Backend{target: back.TargetHLSL, bin: DefaultBin})
	back.Register(&Backend{target: back.TargetMSL, bin: DefaultBin})
}

// Backend implements back.Backend for one of the source targets.
type Backend struct {
	target back.Target
	bin    string
}

// New returns an engine for the given source target using the given
// spirv-cross executable. Target must be one of TargetGLSL, TargetHLSL
// or TargetMSL.
func New(target back.Target, bin string) (*Backend, error) {
	switch target {
	case back.TargetGLSL, back.TargetHLSL, back.TargetMSL:
	default:
		return nil, &back.UnsupportedTargetError{Target: target}
	}
	if bin == "" {
		bin = DefaultBin
	}
	return &Backend{target: target, bin: bin}, nil
}

func (b *Backend) Target() back.Target { return b.target }

// Compile runs spirv-cross over the module and derives the native
// location of every bound resource. spirv-cross carries the decorated
// binding number through to the target, so registers and argument
// indices follow directly from the binding map.
func (b *Backend) Compile(module *spirv.Module, bindings *bind.Map, stage spirv.Stage, options *back.Options) (*back.CompiledShader, error) {
	if options == nil {
		options = back.DefaultOptions()
	}

	args, err := b.args(bindings, options)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(b.bin, args...)
	cmd.Stdin = bytes.NewReader(module.Bytes())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &back.Error{
			Target:  b.target,
			Tool:    b.bin,
			Message: "cross compilation failed",
			Output:  stderr.String(),
			Err:     err,
		}
	}

	return &back.CompiledShader{
		Target:    b.target,
		Stage:     stage,
		Code:      stdout.Bytes(),
		Locations: b.locations(bindings, stage),
	}, nil
}

func (b *Backend) args(bindings *bind.Map, options *back.Options) ([]string, error) {
	switch b.target {
	case back.TargetGLSL:
		if err := checkGLSLStorage(bindings, options); err != nil {
			return nil, err
		}
		args := []string{"--version", strconv.Itoa(int(options.GLSLVersion))}
		if options.GLSLES {
			args = append(args, "--es")
		} else {
			args = append(args, "--no-es")
		}
		return append(args, "-"), nil
	case back.TargetHLSL:
		return []string{
			"--hlsl",
			"--shader-model", strconv.Itoa(int(options.HLSLModel)),
			"-",
		}, nil
	case back.TargetMSL:
		return []string{
			"--msl",
			"--msl-version", strconv.Itoa(int(options.MSLVersion)),
			"--msl-decoration-binding",
			"-",
		}, nil
	}
	return nil, &back.UnsupportedTargetError{Target: b.target}
}

// checkGLSLStorage rejects storage buffers on GLSL profiles that
// predate SSBO support.
func checkGLSLStorage(bindings *bind.Map, options *back.Options) error {
	min := uint16(430)
	if options.GLSLES {
		min = 310
	}
	if options.GLSLVersion >= min {
		return nil
	}
	for _, entry := range bindings.Bindings() {
		if entry.Kind == reflect.StorageBuffer {
			return &back.Error{
				Target:  back.TargetGLSL,
				Message: fmt.Sprintf("storage buffers require version %d, have %d", min, options.GLSLVersion),
			}
		}
	}
	return nil
}

func (b *Backend) locations(bindings *bind.Map, stage spirv.Stage) map[string]back.NativeLocation {
	out := make(map[string]back.NativeLocation)
	for _, entry := range bindings.Bindings() {
		loc := entry.Vertex
		if stage == spirv.StageFragment {
			loc = entry.Fragment
		}
		if loc == nil {
			continue
		}
		out[entry.Slot.String()] = b.nativeLocation(entry, loc)
	}
	return out
}

func (b *Backend) nativeLocation(entry *bind.Binding, loc *bind.Location) back.NativeLocation {
	switch b.target {
	case back.TargetHLSL:
		nl := back.NativeLocation{Kind: back.LocationRegister, Register: loc.Binding}
		switch entry.Kind {
		case reflect.SampledImage:
			nl.Class = back.RegisterT
		case reflect.StorageBuffer:
			nl.Class = back.RegisterU
		default:
			nl.Class = back.RegisterB
		}
		return nl
	case back.TargetMSL:
		nl := back.NativeLocation{Kind: back.LocationArgument}
		if entry.Kind == reflect.SampledImage {
			nl.Texture, nl.HasTexture = loc.Binding, true
			nl.Sampler, nl.HasSampler = loc.Binding, true
		} else {
			nl.Buffer, nl.HasBuffer = loc.Binding, true
		}
		return nl
	}
	return back.NativeLocation{
		Kind:    back.LocationSetBinding,
		Set:     loc.Set,
		Binding: loc.Binding,
	}
}
