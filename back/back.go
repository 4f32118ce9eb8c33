// Package back defines the output side of the compilation pipeline.
//
// A Backend turns a reflected SPIR-V pair plus its binding map into
// code for one target language. Engines register themselves at init
// time; callers select one by Target through For and never construct
// engines directly.
package back

import (
	"fmt"
	"sort"

	"github.com/gogpu/slang/bind"
	"github.com/gogpu/slang/spirv"
)

// Target is an output language.
type Target uint8

const (
	// TargetSPIRV re-emits SPIR-V with bindings renumbered into a
	// contiguous descriptor layout.
	TargetSPIRV Target = iota
	// TargetGLSL emits GLSL source, desktop or ES profile.
	TargetGLSL
	// TargetHLSL emits HLSL source for D3D11 and later.
	TargetHLSL
	// TargetMSL emits Metal Shading Language source.
	TargetMSL
	// TargetDXIL emits signed DXIL containers for D3D12.
	TargetDXIL
)

func (t Target) String() string {
	switch t {
	case TargetSPIRV:
		return "spirv"
	case TargetGLSL:
		return "glsl"
	case TargetHLSL:
		return "hlsl"
	case TargetMSL:
		return "msl"
	case TargetDXIL:
		return "dxil"
	}
	return fmt.Sprintf("Target(%d)", uint8(t))
}

// ParseTarget maps a target name as used on command lines and in
// configuration files back to its Target.
func ParseTarget(s string) (Target, bool) {
	switch s {
	case "spirv", "spv":
		return TargetSPIRV, true
	case "glsl":
		return TargetGLSL, true
	case "hlsl":
		return TargetHLSL, true
	case "msl", "metal":
		return TargetMSL, true
	case "dxil":
		return TargetDXIL, true
	}
	return 0, false
}

// RegisterClass distinguishes the HLSL register files.
type RegisterClass uint8

const (
	// RegisterB is a constant buffer register.
	RegisterB RegisterClass = iota
	// RegisterT is a shader resource view register.
	RegisterT
	// RegisterS is a sampler register.
	RegisterS
	// RegisterU is an unordered access view register.
	RegisterU
)

func (c RegisterClass) String() string {
	switch c {
	case RegisterB:
		return "b"
	case RegisterT:
		return "t"
	case RegisterS:
		return "s"
	case RegisterU:
		return "u"
	}
	return "?"
}

// LocationKind says which addressing scheme a NativeLocation uses.
type LocationKind uint8

const (
	// LocationSetBinding addresses a Vulkan descriptor.
	LocationSetBinding LocationKind = iota
	// LocationRegister addresses an HLSL register.
	LocationRegister
	// LocationArgument addresses a Metal argument buffer entry.
	LocationArgument
)

// NativeLocation is where a resource landed in the target's own
// addressing scheme.
type NativeLocation struct {
	Kind LocationKind

	// Set and Binding are valid for LocationSetBinding.
	Set     uint32
	Binding uint32

	// Class and Register are valid for LocationRegister.
	Class    RegisterClass
	Register uint32

	// Buffer, Texture and Sampler are argument buffer indices, valid
	// for LocationArgument. A slot the resource does not occupy is
	// left at its zero value with the matching Has flag unset.
	Buffer     uint32
	Texture    uint32
	Sampler    uint32
	HasBuffer  bool
	HasTexture bool
	HasSampler bool
}

func (l NativeLocation) String() string {
	switch l.Kind {
	case LocationSetBinding:
		return fmt.Sprintf("set=%d binding=%d", l.Set, l.Binding)
	case LocationRegister:
		return fmt.Sprintf("%s%d", l.Class, l.Register)
	case LocationArgument:
		s := "["
		if l.HasBuffer {
			s += fmt.Sprintf("buffer(%d)", l.Buffer)
		}
		if l.HasTexture {
			s += fmt.Sprintf("texture(%d)", l.Texture)
		}
		if l.HasSampler {
			s += fmt.Sprintf("sampler(%d)", l.Sampler)
		}
		return s + "]"
	}
	return "?"
}

// CompiledShader is one stage's output for one target.
type CompiledShader struct {
	Target Target
	Stage  spirv.Stage

	// Code is target text for source languages, binary for
	// TargetSPIRV and TargetDXIL.
	Code []byte

	// Locations maps each binding map entry, keyed by its slot name,
	// to where the resource lives in the emitted code.
	Locations map[string]NativeLocation
}

// Options carries per-target knobs. Engines ignore fields that do not
// apply to them.
type Options struct {
	// GLSLVersion is the #version directive to emit, e.g. 330 or 450.
	GLSLVersion uint16
	// GLSLES selects the ES profile for TargetGLSL.
	GLSLES bool
	// HLSLModel is the shader model times ten, e.g. 50 for 5.0.
	HLSLModel uint16
	// MSLVersion packs the Metal language version as major*10000 +
	// minor*100, matching what spirv-cross expects.
	MSLVersion uint32
}

// DefaultOptions returns the options used when the caller passes nil.
func DefaultOptions() *Options {
	return &Options{
		GLSLVersion: 450,
		HLSLModel:   50,
		MSLVersion:  20000,
	}
}

// Backend compiles one stage of a reflected shader to its target.
type Backend interface {
	// Target reports the language this engine emits.
	Target() Target

	// Compile lowers the given SPIR-V stage to the target, assigning
	// native locations guided by the binding map.
	Compile(module *spirv.Module, bindings *bind.Map, stage spirv.Stage, options *Options) (*CompiledShader, error)
}

var registry = map[Target]Backend{}

// Register installs an engine for its target, replacing any previous
// one. Engines call this from init.
func Register(b Backend) {
	registry[b.Target()] = b
}

// For returns the engine for the given target.
func For(t Target) (Backend, error) {
	b, ok := registry[t]
	if !ok {
		return nil, &UnsupportedTargetError{Target: t}
	}
	return b, nil
}

// Available lists the targets with a registered engine, in a stable
// order.
func Available() []Target {
	out := make([]Target, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
