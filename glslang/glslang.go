// Package glslang compiles Vulkan-flavored GLSL to SPIR-V through the
// glslangValidator reference compiler. The binary must be installed
// separately; Available reports whether it can be found.
package glslang

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gogpu/slang/spirv"
)

// DefaultBin is the reference compiler looked up on PATH.
const DefaultBin = "glslangValidator"

// Compiler shells out to glslangValidator for each stage.
type Compiler struct {
	// Bin is the executable to run.
	Bin string
	// ExtraArgs are appended to every invocation, after the built-in
	// flags and before the input file.
	ExtraArgs []string
}

// NewCompiler returns a Compiler using the default executable.
func NewCompiler() *Compiler {
	return &Compiler{Bin: DefaultBin}
}

// Available reports whether the compiler executable can be found.
func (c *Compiler) Available() bool {
	_, err := exec.LookPath(c.Bin)
	return err == nil
}

// CompileError reports a front end rejection. Diagnostic carries the
// compiler output verbatim so line and column references survive.
type CompileError struct {
	Stage      spirv.Stage
	Diagnostic string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s stage rejected:\n%s", e.Stage, strings.TrimRight(e.Diagnostic, "\n"))
}

func stageExt(stage spirv.Stage) string {
	if stage == spirv.StageFragment {
		return "frag"
	}
	return "vert"
}

// CompileStage compiles one stage's source to a parsed SPIR-V module.
// The source is written to a temporary file since glslangValidator
// derives the stage from the file extension.
func (c *Compiler) CompileStage(source string, stage spirv.Stage) (*spirv.Module, error) {
	dir, err := os.MkdirTemp("", "glslang")
	if err != nil {
		return nil, fmt.Errorf("glslang: create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "shader."+stageExt(stage))
	out := filepath.Join(dir, "shader.spv")
	if err := os.WriteFile(in, []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("glslang: write source: %w", err)
	}

	args := []string{"-V", "-o", out}
	args = append(args, c.ExtraArgs...)
	args = append(args, in)
	cmd := exec.Command(c.Bin, args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil, &CompileError{Stage: stage, Diagnostic: output.String()}
		}
		return nil, fmt.Errorf("glslang: run %s: %w", c.Bin, err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("glslang: read output: %w", err)
	}
	module, err := spirv.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("glslang: %s stage produced unreadable output: %w", stage, err)
	}
	return module, nil
}

// ValidatePair checks that a vertex and fragment module were produced
// by compatible front end runs: same SPIR-V version and a main entry
// point with the expected execution model in each.
func ValidatePair(vertex, fragment *spirv.Module) error {
	if vertex.Version() != fragment.Version() {
		return fmt.Errorf("glslang: stage version mismatch: vertex %s, fragment %s",
			vertex.Version(), fragment.Version())
	}
	if err := validateEntry(vertex, spirv.StageVertex); err != nil {
		return err
	}
	return validateEntry(fragment, spirv.StageFragment)
}

func validateEntry(m *spirv.Module, stage spirv.Stage) error {
	for _, ep := range m.EntryPoints() {
		if ep.Model == stage.ExecutionModel() && ep.Name == "main" {
			return nil
		}
	}
	return fmt.Errorf("glslang: %s module has no main entry point for its stage", stage)
}
