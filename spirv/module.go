package spirv

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// headerWords is the fixed SPIR-V header size in words.
const headerWords = 5

// Instruction is one decoded SPIR-V instruction. Operands alias the
// module's word stream and must not be modified.
type Instruction struct {
	Opcode   OpCode
	Operands []uint32
}

// EntryPoint describes one OpEntryPoint declaration.
type EntryPoint struct {
	Model    ExecutionModel
	Function uint32
	Name     string
}

// Module is a parsed, immutable SPIR-V binary for one shader stage.
type Module struct {
	version      Version
	generator    uint32
	bound        uint32
	words        []uint32
	instructions []Instruction
	entryPoints  []EntryPoint
}

// Parse validates a SPIR-V binary and builds its instruction index.
// Function bodies are indexed but not interpreted.
func Parse(data []byte) (*Module, error) {
	if len(data) < headerWords*4 {
		return nil, fmt.Errorf("spirv: binary too small: %d bytes", len(data))
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("spirv: binary size %d is not word aligned", len(data))
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}

	if words[0] != MagicNumber {
		return nil, fmt.Errorf("spirv: invalid magic 0x%08X", words[0])
	}

	m := &Module{
		version:   VersionFromWord(words[1]),
		generator: words[2],
		bound:     words[3],
		words:     words,
	}

	offset := headerWords
	for offset < len(words) {
		first := words[offset]
		opcode := OpCode(first & 0xFFFF)
		wordCount := int(first >> 16)
		if wordCount == 0 || offset+wordCount > len(words) {
			return nil, fmt.Errorf("spirv: invalid word count %d at word offset %d", wordCount, offset)
		}

		inst := Instruction{
			Opcode:   opcode,
			Operands: words[offset+1 : offset+wordCount],
		}
		m.instructions = append(m.instructions, inst)

		if opcode == OpEntryPoint {
			if len(inst.Operands) < 3 {
				return nil, fmt.Errorf("spirv: malformed OpEntryPoint at word offset %d", offset)
			}
			name, _ := DecodeString(inst.Operands, 2)
			m.entryPoints = append(m.entryPoints, EntryPoint{
				Model:    ExecutionModel(inst.Operands[0]),
				Function: inst.Operands[1],
				Name:     name,
			})
		}

		offset += wordCount
	}

	return m, nil
}

// Version returns the module's declared SPIR-V version.
func (m *Module) Version() Version { return m.version }

// Generator returns the generator word from the module header.
func (m *Module) Generator() uint32 { return m.generator }

// Bound returns the ID bound from the module header.
func (m *Module) Bound() uint32 { return m.bound }

// Instructions returns the decoded instruction stream. The slice and
// its operand views are shared; callers must treat them as read-only.
func (m *Module) Instructions() []Instruction { return m.instructions }

// EntryPoints returns the module's entry point declarations.
func (m *Module) EntryPoints() []EntryPoint { return m.entryPoints }

// Words returns a copy of the module's word stream.
func (m *Module) Words() []uint32 {
	out := make([]uint32, len(m.words))
	copy(out, m.words)
	return out
}

// Bytes re-encodes the module to its binary form.
func (m *Module) Bytes() []byte {
	out := make([]byte, len(m.words)*4)
	for i, w := range m.words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

// DecodeString reads a null-terminated UTF-8 string packed into words
// starting at operand index start. It returns the string and the number
// of words it occupied.
func DecodeString(operands []uint32, start int) (string, int) {
	var sb strings.Builder
	for i := start; i < len(operands); i++ {
		w := operands[i]
		for shift := 0; shift < 32; shift += 8 {
			b := byte(w >> shift)
			if b == 0 {
				return sb.String(), i - start + 1
			}
			sb.WriteByte(b)
		}
	}
	return sb.String(), len(operands) - start
}
