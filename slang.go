// Package slang compiles slang-dialect GLSL shader pairs to multiple
// graphics APIs, carrying a semantic binding map alongside the code.
//
// A shader is a vertex and fragment stage compiled together. The
// pipeline is:
//  1. Compile both stages to SPIR-V through the glslang front end
//  2. Reflect the resources each stage declares
//  3. Resolve every resource against the semantic registry, producing
//     the binding map
//  4. Lower each stage to the requested target through a backend
//
// Example usage:
//
//	source := slang.ShaderSource{Vertex: vs, Fragment: fs}
//	compilation, err := slang.Reflect(source, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pair, err := compilation.Compile(back.TargetHLSL, nil)
//
// For targets emitted by external tools, see the back/cross and
// back/dxc packages; back/native needs no tooling at all.
package slang

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/gogpu/slang/back"
	"github.com/gogpu/slang/bind"
	"github.com/gogpu/slang/glslang"
	"github.com/gogpu/slang/reflect"
	"github.com/gogpu/slang/spirv"
)

// ShaderSource is one shader's inputs: both stage sources plus the
// caller-declared tunable parameters and lookup textures the stages may
// reference.
type ShaderSource struct {
	// Name identifies the shader in diagnostics and caches.
	Name string

	// Vertex and Fragment are slang-dialect GLSL source.
	Vertex   string
	Fragment string

	// Parameters are tunable floats the shader may declare as buffer
	// members.
	Parameters []bind.Parameter

	// Textures are user texture names the shader may sample.
	Textures []string
}

// CompileOptions configures the front end and reflection.
type CompileOptions struct {
	// Compiler runs the GLSL front end. Nil uses glslang.NewCompiler.
	Compiler *glslang.Compiler
}

// ShaderCompilation is a reflected shader pair, ready to be lowered to
// any number of targets.
type ShaderCompilation struct {
	Name     string
	Vertex   *spirv.Module
	Fragment *spirv.Module

	// VertexResources and FragmentResources are the per-stage
	// inventories the binding map was resolved from.
	VertexResources   []reflect.Resource
	FragmentResources []reflect.Resource

	Bindings *bind.Map

	fingerprint string
}

// CompiledPair is both stages lowered to one target.
type CompiledPair struct {
	Vertex   *back.CompiledShader
	Fragment *back.CompiledShader
	Bindings *bind.Map
}

// Reflect runs the front end and reflection over a shader pair. The
// returned compilation is immutable and usable from multiple
// goroutines.
func Reflect(source ShaderSource, opts *CompileOptions) (*ShaderCompilation, error) {
	compiler := glslang.NewCompiler()
	if opts != nil && opts.Compiler != nil {
		compiler = opts.Compiler
	}

	vertex, err := compiler.CompileStage(source.Vertex, spirv.StageVertex)
	if err != nil {
		return nil, err
	}
	fragment, err := compiler.CompileStage(source.Fragment, spirv.StageFragment)
	if err != nil {
		return nil, err
	}
	if err := glslang.ValidatePair(vertex, fragment); err != nil {
		return nil, err
	}

	return ReflectModules(source, vertex, fragment)
}

// ReflectModules reflects a pair of already-compiled SPIR-V modules.
// Use this when the front end runs elsewhere, for example when loading
// precompiled shaders from a cache.
func ReflectModules(source ShaderSource, vertex, fragment *spirv.Module) (*ShaderCompilation, error) {
	vres, err := reflect.Reflect(vertex, spirv.StageVertex)
	if err != nil {
		return nil, fmt.Errorf("vertex stage: %w", err)
	}
	fres, err := reflect.Reflect(fragment, spirv.StageFragment)
	if err != nil {
		return nil, fmt.Errorf("fragment stage: %w", err)
	}

	bindings, err := bind.Resolve(vres, fres, source.Parameters, source.Textures)
	if err != nil {
		return nil, err
	}

	return &ShaderCompilation{
		Name:              source.Name,
		Vertex:            vertex,
		Fragment:          fragment,
		VertexResources:   vres,
		FragmentResources: fres,
		Bindings:          bindings,
		fingerprint:       fingerprint(source),
	}, nil
}

// Compile lowers both stages to the given target. The options pointer
// may be nil for defaults.
func (c *ShaderCompilation) Compile(target back.Target, options *back.Options) (*CompiledPair, error) {
	engine, err := back.For(target)
	if err != nil {
		return nil, err
	}

	vertex, err := engine.Compile(c.Vertex, c.Bindings, spirv.StageVertex, options)
	if err != nil {
		return nil, err
	}
	fragment, err := engine.Compile(c.Fragment, c.Bindings, spirv.StageFragment, options)
	if err != nil {
		return nil, err
	}

	return Assemble(vertex, fragment, c.Bindings)
}

// Fingerprint is a stable content hash of the shader's sources,
// parameters and textures. Two compilations of identical inputs share
// a fingerprint regardless of compilation order or machine.
func (c *ShaderCompilation) Fingerprint() string { return c.fingerprint }

// Fingerprint is the cache key for compiling source to target: the
// compilation's content hash extended with the target token. Cached
// output is valid exactly when its stored fingerprint matches.
func Fingerprint(source ShaderSource, target back.Target) string {
	h := sha256.New()
	h.Write([]byte(fingerprint(source)))
	h.Write([]byte(target.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// Targets lists every target with a registered backend.
func Targets() []back.Target { return back.Available() }

func fingerprint(source ShaderSource) string {
	h := sha256.New()
	writeString := func(s string) {
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	writeString(source.Vertex)
	writeString(source.Fragment)
	for _, p := range source.Parameters {
		writeString(p.Name)
		var f [16]byte
		binary.LittleEndian.PutUint32(f[0:], math.Float32bits(p.Default))
		binary.LittleEndian.PutUint32(f[4:], math.Float32bits(p.Minimum))
		binary.LittleEndian.PutUint32(f[8:], math.Float32bits(p.Maximum))
		binary.LittleEndian.PutUint32(f[12:], math.Float32bits(p.Step))
		h.Write(f[:])
	}
	for _, t := range source.Textures {
		writeString(t)
	}
	return hex.EncodeToString(h.Sum(nil))
}
