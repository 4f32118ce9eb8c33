package spirv

import (
	"encoding/binary"
)

// instruction is an un-encoded instruction held by ModuleBuilder.
type instruction struct {
	opcode OpCode
	words  []uint32
}

// encode prepends the word-count/opcode word.
func (i instruction) encode() []uint32 {
	out := make([]uint32, 0, len(i.words)+1)
	out = append(out, (uint32(len(i.words)+1)<<16)|uint32(i.opcode))
	return append(out, i.words...)
}

// instBuilder accumulates operand words for one instruction.
type instBuilder struct {
	words []uint32
}

func newInst() *instBuilder {
	return &instBuilder{words: make([]uint32, 0, 8)}
}

func (b *instBuilder) word(w uint32) *instBuilder {
	b.words = append(b.words, w)
	return b
}

// str appends a null-terminated string padded to a word boundary.
func (b *instBuilder) str(s string) *instBuilder {
	bytes := append([]byte(s), 0)
	for len(bytes)%4 != 0 {
		bytes = append(bytes, 0)
	}
	for i := 0; i < len(bytes); i += 4 {
		b.words = append(b.words, uint32(bytes[i])|
			uint32(bytes[i+1])<<8|
			uint32(bytes[i+2])<<16|
			uint32(bytes[i+3])<<24)
	}
	return b
}

func (b *instBuilder) build(opcode OpCode) instruction {
	return instruction{opcode: opcode, words: b.words}
}

// ModuleBuilder emits SPIR-V binaries section by section, in the order
// the SPIR-V specification requires. It is append-only: instructions
// are never patched after being added.
type ModuleBuilder struct {
	version Version

	capabilities   []instruction
	extInstImports []instruction
	memoryModel    *instruction
	entryPoints    []instruction
	executionModes []instruction
	debugNames     []instruction
	annotations    []instruction
	types          []instruction
	globalVars     []instruction
	functions      []instruction

	nextID uint32
}

// NewModuleBuilder creates a builder targeting the given SPIR-V version.
func NewModuleBuilder(version Version) *ModuleBuilder {
	return &ModuleBuilder{version: version, nextID: 1}
}

// AllocID allocates a fresh result ID.
func (b *ModuleBuilder) AllocID() uint32 {
	id := b.nextID
	b.nextID++
	return id
}

// AddCapability adds an OpCapability declaration.
func (b *ModuleBuilder) AddCapability(c Capability) {
	b.capabilities = append(b.capabilities, newInst().word(uint32(c)).build(OpCapability))
}

// SetMemoryModel sets the OpMemoryModel declaration.
func (b *ModuleBuilder) SetMemoryModel(addressing, memory uint32) {
	inst := newInst().word(addressing).word(memory).build(OpMemoryModel)
	b.memoryModel = &inst
}

// AddEntryPoint adds an OpEntryPoint with its interface variables.
func (b *ModuleBuilder) AddEntryPoint(model ExecutionModel, funcID uint32, name string, interfaces ...uint32) {
	ib := newInst().word(uint32(model)).word(funcID).str(name)
	for _, iface := range interfaces {
		ib.word(iface)
	}
	b.entryPoints = append(b.entryPoints, ib.build(OpEntryPoint))
}

// AddExecutionMode adds an OpExecutionMode for an entry point.
func (b *ModuleBuilder) AddExecutionMode(funcID uint32, mode uint32, params ...uint32) {
	ib := newInst().word(funcID).word(mode)
	for _, p := range params {
		ib.word(p)
	}
	b.executionModes = append(b.executionModes, ib.build(OpExecutionMode))
}

// AddName adds an OpName debug name.
func (b *ModuleBuilder) AddName(id uint32, name string) {
	b.debugNames = append(b.debugNames, newInst().word(id).str(name).build(OpName))
}

// AddMemberName adds an OpMemberName debug name.
func (b *ModuleBuilder) AddMemberName(structID, member uint32, name string) {
	b.debugNames = append(b.debugNames, newInst().word(structID).word(member).str(name).build(OpMemberName))
}

// AddDecorate adds an OpDecorate annotation.
func (b *ModuleBuilder) AddDecorate(id uint32, d Decoration, params ...uint32) {
	ib := newInst().word(id).word(uint32(d))
	for _, p := range params {
		ib.word(p)
	}
	b.annotations = append(b.annotations, ib.build(OpDecorate))
}

// AddMemberDecorate adds an OpMemberDecorate annotation.
func (b *ModuleBuilder) AddMemberDecorate(structID, member uint32, d Decoration, params ...uint32) {
	ib := newInst().word(structID).word(member).word(uint32(d))
	for _, p := range params {
		ib.word(p)
	}
	b.annotations = append(b.annotations, ib.build(OpMemberDecorate))
}

// AddTypeVoid adds OpTypeVoid.
func (b *ModuleBuilder) AddTypeVoid() uint32 {
	id := b.AllocID()
	b.types = append(b.types, newInst().word(id).build(OpTypeVoid))
	return id
}

// AddTypeBool adds OpTypeBool.
func (b *ModuleBuilder) AddTypeBool() uint32 {
	id := b.AllocID()
	b.types = append(b.types, newInst().word(id).build(OpTypeBool))
	return id
}

// AddTypeFloat adds OpTypeFloat with the given bit width.
func (b *ModuleBuilder) AddTypeFloat(width uint32) uint32 {
	id := b.AllocID()
	b.types = append(b.types, newInst().word(id).word(width).build(OpTypeFloat))
	return id
}

// AddTypeInt adds OpTypeInt with the given bit width and signedness.
func (b *ModuleBuilder) AddTypeInt(width uint32, signed bool) uint32 {
	id := b.AllocID()
	sign := uint32(0)
	if signed {
		sign = 1
	}
	b.types = append(b.types, newInst().word(id).word(width).word(sign).build(OpTypeInt))
	return id
}

// AddTypeVector adds OpTypeVector.
func (b *ModuleBuilder) AddTypeVector(componentType, count uint32) uint32 {
	id := b.AllocID()
	b.types = append(b.types, newInst().word(id).word(componentType).word(count).build(OpTypeVector))
	return id
}

// AddTypeMatrix adds OpTypeMatrix.
func (b *ModuleBuilder) AddTypeMatrix(columnType, columnCount uint32) uint32 {
	id := b.AllocID()
	b.types = append(b.types, newInst().word(id).word(columnType).word(columnCount).build(OpTypeMatrix))
	return id
}

// AddTypeArray adds OpTypeArray. Length is a constant ID.
func (b *ModuleBuilder) AddTypeArray(elementType, lengthID uint32) uint32 {
	id := b.AllocID()
	b.types = append(b.types, newInst().word(id).word(elementType).word(lengthID).build(OpTypeArray))
	return id
}

// AddTypeRuntimeArray adds OpTypeRuntimeArray.
func (b *ModuleBuilder) AddTypeRuntimeArray(elementType uint32) uint32 {
	id := b.AllocID()
	b.types = append(b.types, newInst().word(id).word(elementType).build(OpTypeRuntimeArray))
	return id
}

// AddTypeStruct adds OpTypeStruct.
func (b *ModuleBuilder) AddTypeStruct(memberTypes ...uint32) uint32 {
	id := b.AllocID()
	ib := newInst().word(id)
	for _, t := range memberTypes {
		ib.word(t)
	}
	b.types = append(b.types, ib.build(OpTypeStruct))
	return id
}

// AddTypePointer adds OpTypePointer.
func (b *ModuleBuilder) AddTypePointer(class StorageClass, baseType uint32) uint32 {
	id := b.AllocID()
	b.types = append(b.types, newInst().word(id).word(uint32(class)).word(baseType).build(OpTypePointer))
	return id
}

// AddTypeSampler adds OpTypeSampler.
func (b *ModuleBuilder) AddTypeSampler() uint32 {
	id := b.AllocID()
	b.types = append(b.types, newInst().word(id).build(OpTypeSampler))
	return id
}

// AddTypeImage2D adds a sampled 2D OpTypeImage over the given scalar type.
func (b *ModuleBuilder) AddTypeImage2D(sampledType uint32) uint32 {
	id := b.AllocID()
	b.types = append(b.types, newInst().
		word(id).
		word(sampledType).
		word(1). // Dim2D
		word(0). // no depth
		word(0). // not arrayed
		word(0). // single sampled
		word(1). // sampled
		word(0). // format Unknown
		build(OpTypeImage))
	return id
}

// AddTypeSampledImage adds OpTypeSampledImage.
func (b *ModuleBuilder) AddTypeSampledImage(imageType uint32) uint32 {
	id := b.AllocID()
	b.types = append(b.types, newInst().word(id).word(imageType).build(OpTypeSampledImage))
	return id
}

// AddTypeFunction adds OpTypeFunction.
func (b *ModuleBuilder) AddTypeFunction(returnType uint32, paramTypes ...uint32) uint32 {
	id := b.AllocID()
	ib := newInst().word(id).word(returnType)
	for _, t := range paramTypes {
		ib.word(t)
	}
	b.types = append(b.types, ib.build(OpTypeFunction))
	return id
}

// AddConstant adds OpConstant with raw value words.
func (b *ModuleBuilder) AddConstant(typeID uint32, values ...uint32) uint32 {
	id := b.AllocID()
	ib := newInst().word(typeID).word(id)
	for _, v := range values {
		ib.word(v)
	}
	b.types = append(b.types, ib.build(OpConstant))
	return id
}

// AddVariable adds a module-scope OpVariable.
func (b *ModuleBuilder) AddVariable(pointerType uint32, class StorageClass) uint32 {
	id := b.AllocID()
	b.globalVars = append(b.globalVars, newInst().word(pointerType).word(id).word(uint32(class)).build(OpVariable))
	return id
}

// AddFunction adds an OpFunction declaration and returns its ID.
func (b *ModuleBuilder) AddFunction(funcType, returnType uint32) uint32 {
	id := b.AllocID()
	b.functions = append(b.functions, newInst().
		word(returnType).
		word(id).
		word(0). // FunctionControlNone
		word(funcType).
		build(OpFunction))
	return id
}

// AddLabel adds an OpLabel starting a basic block.
func (b *ModuleBuilder) AddLabel() uint32 {
	id := b.AllocID()
	b.functions = append(b.functions, newInst().word(id).build(OpLabel))
	return id
}

// AddReturn adds OpReturn.
func (b *ModuleBuilder) AddReturn() {
	b.functions = append(b.functions, newInst().build(OpReturn))
}

// AddFunctionEnd adds OpFunctionEnd.
func (b *ModuleBuilder) AddFunctionEnd() {
	b.functions = append(b.functions, newInst().build(OpFunctionEnd))
}

// Build encodes the module to its binary form.
func (b *ModuleBuilder) Build() []byte {
	sections := [][]instruction{
		b.capabilities,
		b.extInstImports,
	}
	if b.memoryModel != nil {
		sections = append(sections, []instruction{*b.memoryModel})
	}
	sections = append(sections,
		b.entryPoints,
		b.executionModes,
		b.debugNames,
		b.annotations,
		b.types,
		b.globalVars,
		b.functions,
	)

	total := headerWords
	for _, sec := range sections {
		for _, inst := range sec {
			total += len(inst.words) + 1
		}
	}

	out := make([]byte, total*4)
	put := func(offset int, w uint32) {
		binary.LittleEndian.PutUint32(out[offset*4:], w)
	}
	put(0, MagicNumber)
	put(1, b.version.Word())
	put(2, GeneratorID)
	put(3, b.nextID)
	put(4, 0) // schema

	offset := headerWords
	for _, sec := range sections {
		for _, inst := range sec {
			for _, w := range inst.encode() {
				put(offset, w)
				offset++
			}
		}
	}
	return out
}
