// Package reflect extracts the resource inventory of a compiled shader
// stage.
//
// Given a parsed SPIR-V module it walks global variables by storage
// class and produces one Resource per binding: uniform buffers, the
// push constant block, combined image samplers, and storage buffers,
// with member offsets and sizes exactly as the front-end compiler
// emitted them. Layouts are never recomputed; the module's own Offset,
// ArrayStride, and MatrixStride decorations are authoritative.
package reflect

import (
	"github.com/gogpu/slang/spirv"
)

// ResourceKind classifies a reflected binding.
type ResourceKind uint8

const (
	// UniformBuffer is a descriptor-bound uniform block.
	UniformBuffer ResourceKind = iota

	// PushConstant is the stage's push constant block.
	PushConstant

	// SampledImage is a combined image sampler.
	SampledImage

	// StorageBuffer is a read/write buffer block.
	StorageBuffer
)

// String returns the kind name.
func (k ResourceKind) String() string {
	switch k {
	case UniformBuffer:
		return "uniform buffer"
	case PushConstant:
		return "push constant"
	case SampledImage:
		return "sampled image"
	case StorageBuffer:
		return "storage buffer"
	default:
		return "unknown"
	}
}

// ScalarKind is the element kind of a member type.
type ScalarKind uint8

const (
	ScalarSint ScalarKind = iota
	ScalarUint
	ScalarFloat
	ScalarBool
)

// String returns the scalar kind name.
func (k ScalarKind) String() string {
	switch k {
	case ScalarSint:
		return "int"
	case ScalarUint:
		return "uint"
	case ScalarFloat:
		return "float"
	case ScalarBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Type is a member's element type. The type universe is closed:
// scalars, vectors, and matrices of the four scalar kinds.
type Type struct {
	// Scalar is the element kind.
	Scalar ScalarKind

	// Width is the scalar width in bytes.
	Width uint8

	// VecSize is the component count; 1 for scalars.
	VecSize uint8

	// Columns is the matrix column count; 0 for non-matrix types.
	Columns uint8
}

// Array describes a member's array shape, if any.
type Array struct {
	// Len is the declared element count. Zero when Unsized.
	Len uint32

	// Stride is the declared array stride in bytes.
	Stride uint32

	// Unsized marks a runtime-sized array. Only the last member of a
	// block may be unsized; its extent is determined by the caller.
	Unsized bool
}

// Member is one field of a reflected block.
type Member struct {
	Name   string
	Offset uint32
	Size   uint32
	Type   Type
	Array  *Array // nil for non-array members
}

// Visibility is a stage bitmask.
type Visibility uint8

const (
	VisibleVertex   Visibility = 1 << iota // vertex stage
	VisibleFragment                        // fragment stage

	VisibleBoth = VisibleVertex | VisibleFragment
)

// String returns the visibility name.
func (v Visibility) String() string {
	switch v {
	case VisibleVertex:
		return "vertex"
	case VisibleFragment:
		return "fragment"
	case VisibleBoth:
		return "vertex|fragment"
	default:
		return "none"
	}
}

// VisibilityFor returns the visibility bit for a single stage.
func VisibilityFor(stage spirv.Stage) Visibility {
	if stage == spirv.StageFragment {
		return VisibleFragment
	}
	return VisibleVertex
}

// Resource is one reflected binding.
type Resource struct {
	Kind ResourceKind

	// Name is the declared block or sampler name.
	Name string

	// Set and Binding are the decorated descriptor location.
	// Both are zero for push constant blocks.
	Set     uint32
	Binding uint32

	// Size is the block byte size: the end offset of the last member
	// rounded up to 16-byte alignment. Zero for samplers.
	Size uint32

	// Members lists block fields in ascending offset order.
	// Empty for samplers.
	Members []Member

	// Stages is the stage visibility of the binding.
	Stages Visibility
}
