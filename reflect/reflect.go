package reflect

import (
	"github.com/gogpu/slang/spirv"
)

// typeDef is one entry of the module's type section.
type typeDef struct {
	op     spirv.OpCode
	width  uint32 // scalar bit width
	signed bool
	base   uint32 // component / element / pointee type ID
	count  uint32 // vector size, matrix columns, or array length constant ID
	class  spirv.StorageClass
	member []uint32 // struct member type IDs
}

// varDef is one module-scope OpVariable.
type varDef struct {
	id     uint32
	typeID uint32
	class  spirv.StorageClass
}

// index is the per-module lookup state built in a single pass over the
// instruction stream.
type index struct {
	names       map[uint32]string
	memberNames map[uint32]map[uint32]string
	decos       map[uint32]map[spirv.Decoration][]uint32
	memberDecos map[uint32]map[uint32]map[spirv.Decoration][]uint32
	types       map[uint32]typeDef
	consts      map[uint32]uint32
	vars        []varDef
}

func buildIndex(m *spirv.Module) *index {
	idx := &index{
		names:       make(map[uint32]string),
		memberNames: make(map[uint32]map[uint32]string),
		decos:       make(map[uint32]map[spirv.Decoration][]uint32),
		memberDecos: make(map[uint32]map[uint32]map[spirv.Decoration][]uint32),
		types:       make(map[uint32]typeDef),
		consts:      make(map[uint32]uint32),
	}

	for _, inst := range m.Instructions() {
		ops := inst.Operands
		switch inst.Opcode {
		case spirv.OpName:
			if len(ops) >= 2 {
				name, _ := spirv.DecodeString(ops, 1)
				idx.names[ops[0]] = name
			}

		case spirv.OpMemberName:
			if len(ops) >= 3 {
				name, _ := spirv.DecodeString(ops, 2)
				mm := idx.memberNames[ops[0]]
				if mm == nil {
					mm = make(map[uint32]string)
					idx.memberNames[ops[0]] = mm
				}
				mm[ops[1]] = name
			}

		case spirv.OpDecorate:
			if len(ops) >= 2 {
				dm := idx.decos[ops[0]]
				if dm == nil {
					dm = make(map[spirv.Decoration][]uint32)
					idx.decos[ops[0]] = dm
				}
				dm[spirv.Decoration(ops[1])] = ops[2:]
			}

		case spirv.OpMemberDecorate:
			if len(ops) >= 3 {
				mm := idx.memberDecos[ops[0]]
				if mm == nil {
					mm = make(map[uint32]map[spirv.Decoration][]uint32)
					idx.memberDecos[ops[0]] = mm
				}
				dm := mm[ops[1]]
				if dm == nil {
					dm = make(map[spirv.Decoration][]uint32)
					mm[ops[1]] = dm
				}
				dm[spirv.Decoration(ops[2])] = ops[3:]
			}

		case spirv.OpTypeBool:
			idx.types[ops[0]] = typeDef{op: inst.Opcode, width: 32}

		case spirv.OpTypeInt:
			idx.types[ops[0]] = typeDef{op: inst.Opcode, width: ops[1], signed: ops[2] == 1}

		case spirv.OpTypeFloat:
			idx.types[ops[0]] = typeDef{op: inst.Opcode, width: ops[1]}

		case spirv.OpTypeVector, spirv.OpTypeMatrix:
			idx.types[ops[0]] = typeDef{op: inst.Opcode, base: ops[1], count: ops[2]}

		case spirv.OpTypeArray:
			idx.types[ops[0]] = typeDef{op: inst.Opcode, base: ops[1], count: ops[2]}

		case spirv.OpTypeRuntimeArray, spirv.OpTypeSampledImage:
			idx.types[ops[0]] = typeDef{op: inst.Opcode, base: ops[1]}

		case spirv.OpTypeImage, spirv.OpTypeSampler, spirv.OpTypeVoid:
			idx.types[ops[0]] = typeDef{op: inst.Opcode}

		case spirv.OpTypeStruct:
			idx.types[ops[0]] = typeDef{op: inst.Opcode, member: ops[1:]}

		case spirv.OpTypePointer:
			idx.types[ops[0]] = typeDef{op: inst.Opcode, class: spirv.StorageClass(ops[1]), base: ops[2]}

		case spirv.OpConstant:
			if len(ops) >= 3 {
				idx.consts[ops[1]] = ops[2]
			}

		case spirv.OpVariable:
			if len(ops) >= 3 {
				idx.vars = append(idx.vars, varDef{
					id:     ops[1],
					typeID: ops[0],
					class:  spirv.StorageClass(ops[2]),
				})
			}
		}
	}
	return idx
}

// Reflect walks one stage's module and produces its resource inventory
// in variable declaration order.
func Reflect(m *spirv.Module, stage spirv.Stage) ([]Resource, error) {
	idx := buildIndex(m)
	vis := VisibilityFor(stage)

	var resources []Resource
	for _, v := range idx.vars {
		var (
			res *Resource
			err error
		)
		switch v.class {
		case spirv.StorageClassUniform:
			// Pre-1.3 front ends mark SSBOs as Uniform + BufferBlock.
			kind := UniformBuffer
			if idx.hasBlockDecoration(v, spirv.DecorationBufferBlock) {
				kind = StorageBuffer
			}
			res, err = idx.reflectBlock(v, kind, vis)

		case spirv.StorageClassStorageBuffer:
			res, err = idx.reflectBlock(v, StorageBuffer, vis)

		case spirv.StorageClassPushConstant:
			res, err = idx.reflectBlock(v, PushConstant, vis)

		case spirv.StorageClassUniformConstant:
			res, err = idx.reflectSampler(v, vis)

		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		resources = append(resources, *res)
	}
	return resources, nil
}

// hasBlockDecoration reports whether the variable's pointee struct
// carries the given decoration.
func (idx *index) hasBlockDecoration(v varDef, d spirv.Decoration) bool {
	ptr, ok := idx.types[v.typeID]
	if !ok || ptr.op != spirv.OpTypePointer {
		return false
	}
	_, ok = idx.decos[ptr.base][d]
	return ok
}

// resourceName prefers the block type's declared name and falls back to
// the variable name; glslang names the block type and gives the
// variable the instance name.
func (idx *index) resourceName(v varDef, structID uint32) string {
	if name := idx.names[structID]; name != "" {
		return name
	}
	return idx.names[v.id]
}

func (idx *index) reflectBlock(v varDef, kind ResourceKind, vis Visibility) (*Resource, error) {
	ptr, ok := idx.types[v.typeID]
	if !ok || ptr.op != spirv.OpTypePointer {
		return nil, newError(ErrMalformedModule, idx.names[v.id],
			"variable %%%d has no pointer type", v.id)
	}
	st, ok := idx.types[ptr.base]
	if !ok || st.op != spirv.OpTypeStruct {
		return nil, newError(ErrMalformedModule, idx.names[v.id],
			"%s variable %%%d does not point to a struct", kind, v.id)
	}

	name := idx.resourceName(v, ptr.base)
	res := &Resource{Kind: kind, Name: name, Stages: vis}

	if kind != PushConstant {
		set, okSet := idx.decos[v.id][spirv.DecorationDescriptorSet]
		binding, okBind := idx.decos[v.id][spirv.DecorationBinding]
		if !okSet || !okBind || len(set) == 0 || len(binding) == 0 {
			return nil, newError(ErrMissingBinding, name,
				"%s has no descriptor set/binding decoration", kind)
		}
		res.Set = set[0]
		res.Binding = binding[0]
	}

	var prevOffset uint32
	for i, mt := range st.member {
		memberIdx := uint32(i)
		mname := idx.memberNames[ptr.base][memberIdx]

		offParams, okOff := idx.memberDecos[ptr.base][memberIdx][spirv.DecorationOffset]
		if !okOff || len(offParams) == 0 {
			return nil, newError(ErrMissingOffset, name,
				"member %q has no offset decoration", mname)
		}
		offset := offParams[0]
		if i > 0 && offset < prevOffset {
			return nil, newError(ErrBadLayout, name,
				"member %q offset %d precedes previous member offset %d",
				mname, offset, prevOffset)
		}
		prevOffset = offset

		typ, arr, size, err := idx.classifyMember(name, mname, mt, ptr.base, memberIdx)
		if err != nil {
			return nil, err
		}
		if arr != nil && arr.Unsized && i != len(st.member)-1 {
			return nil, newError(ErrBadLayout, name,
				"runtime array member %q is not the last block member", mname)
		}

		res.Members = append(res.Members, Member{
			Name:   mname,
			Offset: offset,
			Size:   size,
			Type:   typ,
			Array:  arr,
		})
	}

	if n := len(res.Members); n > 0 {
		last := res.Members[n-1]
		res.Size = alignUp16(last.Offset + last.Size)
	}
	return res, nil
}

func (idx *index) reflectSampler(v varDef, vis Visibility) (*Resource, error) {
	name := idx.names[v.id]

	ptr, ok := idx.types[v.typeID]
	if !ok || ptr.op != spirv.OpTypePointer {
		return nil, newError(ErrMalformedModule, name,
			"variable %%%d has no pointer type", v.id)
	}
	inner, ok := idx.types[ptr.base]
	if !ok {
		return nil, newError(ErrMalformedModule, name,
			"variable %%%d points to unknown type %%%d", v.id, ptr.base)
	}
	if inner.op != spirv.OpTypeSampledImage {
		return nil, newError(ErrUnclassifiableType, name,
			"unsupported handle type op %d, only combined image samplers are supported", inner.op)
	}

	set, okSet := idx.decos[v.id][spirv.DecorationDescriptorSet]
	binding, okBind := idx.decos[v.id][spirv.DecorationBinding]
	if !okSet || !okBind || len(set) == 0 || len(binding) == 0 {
		return nil, newError(ErrMissingBinding, name,
			"sampled image has no descriptor set/binding decoration")
	}

	return &Resource{
		Kind:    SampledImage,
		Name:    name,
		Set:     set[0],
		Binding: binding[0],
		Stages:  vis,
	}, nil
}

// classifyMember resolves a member type into the closed
// scalar/vector/matrix set, unwrapping at most one level of array.
func (idx *index) classifyMember(block, member string, typeID, structID, memberIdx uint32) (Type, *Array, uint32, error) {
	td, ok := idx.types[typeID]
	if !ok {
		return Type{}, nil, 0, newError(ErrMalformedModule, block,
			"member %q references unknown type %%%d", member, typeID)
	}

	switch td.op {
	case spirv.OpTypeArray, spirv.OpTypeRuntimeArray:
		elem, _, _, err := idx.classifyMember(block, member, td.base, structID, memberIdx)
		if err != nil {
			return Type{}, nil, 0, err
		}
		strideParams, okStride := idx.decos[typeID][spirv.DecorationArrayStride]
		if !okStride || len(strideParams) == 0 {
			return Type{}, nil, 0, newError(ErrMalformedModule, block,
				"array member %q has no ArrayStride decoration", member)
		}
		arr := &Array{Stride: strideParams[0]}
		if td.op == spirv.OpTypeRuntimeArray {
			arr.Unsized = true
			return elem, arr, 0, nil
		}
		length, okLen := idx.consts[td.count]
		if !okLen {
			return Type{}, nil, 0, newError(ErrMalformedModule, block,
				"array member %q has non-constant length", member)
		}
		arr.Len = length
		return elem, arr, arr.Stride * length, nil

	case spirv.OpTypeMatrix:
		col, ok := idx.types[td.base]
		if !ok || col.op != spirv.OpTypeVector {
			return Type{}, nil, 0, newError(ErrMalformedModule, block,
				"matrix member %q has non-vector column type", member)
		}
		scalar, err := idx.classifyScalar(block, member, col.base)
		if err != nil {
			return Type{}, nil, 0, err
		}
		stride := alignUp16(col.count * (scalar.width / 8))
		if params, ok := idx.memberDecos[structID][memberIdx][spirv.DecorationMatrixStride]; ok && len(params) > 0 {
			stride = params[0]
		}
		t := Type{
			Scalar:  scalarKindOf(scalar),
			Width:   uint8(scalar.width / 8),
			VecSize: uint8(col.count),
			Columns: uint8(td.count),
		}
		return t, nil, stride * td.count, nil

	case spirv.OpTypeVector:
		scalar, err := idx.classifyScalar(block, member, td.base)
		if err != nil {
			return Type{}, nil, 0, err
		}
		t := Type{
			Scalar:  scalarKindOf(scalar),
			Width:   uint8(scalar.width / 8),
			VecSize: uint8(td.count),
		}
		return t, nil, td.count * (scalar.width / 8), nil

	case spirv.OpTypeInt, spirv.OpTypeFloat, spirv.OpTypeBool:
		t := Type{
			Scalar:  scalarKindOf(td),
			Width:   uint8(td.width / 8),
			VecSize: 1,
		}
		return t, nil, td.width / 8, nil

	default:
		return Type{}, nil, 0, newError(ErrUnclassifiableType, block,
			"member %q has unsupported type op %d", member, td.op)
	}
}

// classifyScalar resolves a scalar component type.
func (idx *index) classifyScalar(block, member string, typeID uint32) (typeDef, error) {
	td, ok := idx.types[typeID]
	if !ok {
		return typeDef{}, newError(ErrMalformedModule, block,
			"member %q references unknown scalar type %%%d", member, typeID)
	}
	switch td.op {
	case spirv.OpTypeInt, spirv.OpTypeFloat, spirv.OpTypeBool:
		return td, nil
	default:
		return typeDef{}, newError(ErrUnclassifiableType, block,
			"member %q has non-scalar component type op %d", member, td.op)
	}
}

func scalarKindOf(td typeDef) ScalarKind {
	switch td.op {
	case spirv.OpTypeFloat:
		return ScalarFloat
	case spirv.OpTypeBool:
		return ScalarBool
	default:
		if td.signed {
			return ScalarSint
		}
		return ScalarUint
	}
}

func alignUp16(v uint32) uint32 {
	return (v + 15) &^ 15
}
