package spirv

import "fmt"

// MagicNumber identifies a SPIR-V binary in its native endianness.
const MagicNumber = 0x07230203

// GeneratorID is the generator word written by ModuleBuilder.
// Zero is the unregistered generator.
const GeneratorID = 0x00000000

// Version represents a SPIR-V version.
type Version struct {
	Major uint8
	Minor uint8
}

// Common SPIR-V versions.
var (
	Version1_0 = Version{1, 0}
	Version1_3 = Version{1, 3}
	Version1_5 = Version{1, 5}
	Version1_6 = Version{1, 6}
)

// String returns the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Word returns the version encoded as a SPIR-V header word.
func (v Version) Word() uint32 {
	return (uint32(v.Major) << 16) | (uint32(v.Minor) << 8)
}

// VersionFromWord decodes a SPIR-V header version word.
func VersionFromWord(w uint32) Version {
	return Version{Major: uint8(w >> 16), Minor: uint8(w >> 8)}
}

// Stage is a shader pipeline stage.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// ExecutionModel returns the SPIR-V execution model for the stage.
func (s Stage) ExecutionModel() ExecutionModel {
	if s == StageFragment {
		return ExecutionModelFragment
	}
	return ExecutionModelVertex
}

// OpCode represents a SPIR-V opcode.
type OpCode uint16

// Opcodes used by the parser, the reflector, and the builder.
const (
	OpNop              OpCode = 0
	OpSource           OpCode = 3
	OpName             OpCode = 5
	OpMemberName       OpCode = 6
	OpExtension        OpCode = 10
	OpExtInstImport    OpCode = 11
	OpMemoryModel      OpCode = 14
	OpEntryPoint       OpCode = 15
	OpExecutionMode    OpCode = 16
	OpCapability       OpCode = 17
	OpTypeVoid         OpCode = 19
	OpTypeBool         OpCode = 20
	OpTypeInt          OpCode = 21
	OpTypeFloat        OpCode = 22
	OpTypeVector       OpCode = 23
	OpTypeMatrix       OpCode = 24
	OpTypeImage        OpCode = 25
	OpTypeSampler      OpCode = 26
	OpTypeSampledImage OpCode = 27
	OpTypeArray        OpCode = 28
	OpTypeRuntimeArray OpCode = 29
	OpTypeStruct       OpCode = 30
	OpTypePointer      OpCode = 32
	OpTypeFunction     OpCode = 33
	OpConstant         OpCode = 43
	OpFunction         OpCode = 54
	OpFunctionEnd      OpCode = 56
	OpVariable         OpCode = 59
	OpDecorate         OpCode = 71
	OpMemberDecorate   OpCode = 72
	OpLabel            OpCode = 248
	OpReturn           OpCode = 253
)

// Capability represents a SPIR-V capability.
type Capability uint32

// CapabilityShader is required for all shader stages.
const CapabilityShader Capability = 1

// ExecutionModel represents a SPIR-V execution model.
type ExecutionModel uint32

const (
	ExecutionModelVertex   ExecutionModel = 0
	ExecutionModelFragment ExecutionModel = 4
)

// String returns the execution model name.
func (m ExecutionModel) String() string {
	switch m {
	case ExecutionModelVertex:
		return "Vertex"
	case ExecutionModelFragment:
		return "Fragment"
	default:
		return fmt.Sprintf("ExecutionModel(%d)", uint32(m))
	}
}

// AddressingModel and MemoryModel words for OpMemoryModel.
const (
	AddressingModelLogical uint32 = 0
	MemoryModelGLSL450     uint32 = 1
)

// StorageClass represents a SPIR-V storage class.
type StorageClass uint32

const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassOutput          StorageClass = 3
	StorageClassFunction        StorageClass = 7
	StorageClassPushConstant    StorageClass = 9
	StorageClassStorageBuffer   StorageClass = 12
)

// String returns the storage class name.
func (c StorageClass) String() string {
	switch c {
	case StorageClassUniformConstant:
		return "UniformConstant"
	case StorageClassInput:
		return "Input"
	case StorageClassUniform:
		return "Uniform"
	case StorageClassOutput:
		return "Output"
	case StorageClassFunction:
		return "Function"
	case StorageClassPushConstant:
		return "PushConstant"
	case StorageClassStorageBuffer:
		return "StorageBuffer"
	default:
		return fmt.Sprintf("StorageClass(%d)", uint32(c))
	}
}

// Decoration represents a SPIR-V decoration.
type Decoration uint32

const (
	DecorationBlock         Decoration = 2
	DecorationBufferBlock   Decoration = 3
	DecorationRowMajor      Decoration = 4
	DecorationColMajor      Decoration = 5
	DecorationArrayStride   Decoration = 6
	DecorationMatrixStride  Decoration = 7
	DecorationBuiltIn       Decoration = 11
	DecorationLocation      Decoration = 30
	DecorationBinding       Decoration = 33
	DecorationDescriptorSet Decoration = 34
	DecorationOffset        Decoration = 35
)

// String returns the decoration name.
func (d Decoration) String() string {
	switch d {
	case DecorationBlock:
		return "Block"
	case DecorationBufferBlock:
		return "BufferBlock"
	case DecorationRowMajor:
		return "RowMajor"
	case DecorationColMajor:
		return "ColMajor"
	case DecorationArrayStride:
		return "ArrayStride"
	case DecorationMatrixStride:
		return "MatrixStride"
	case DecorationBuiltIn:
		return "BuiltIn"
	case DecorationLocation:
		return "Location"
	case DecorationBinding:
		return "Binding"
	case DecorationDescriptorSet:
		return "DescriptorSet"
	case DecorationOffset:
		return "Offset"
	default:
		return fmt.Sprintf("Decoration(%d)", uint32(d))
	}
}

// ExecutionMode words used by the builder.
const (
	ExecutionModeOriginUpperLeft uint32 = 7
)
