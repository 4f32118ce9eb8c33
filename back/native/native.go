// Package native re-emits SPIR-V with all descriptors folded into set
// zero and renumbered contiguously. It rewrites decoration words in
// place on a copy of the input and needs no external tooling.
package native

import (
	"encoding/binary"
	"sort"

	"github.com/gogpu/slang/back"
	"github.com/gogpu/slang/bind"
	"github.com/gogpu/slang/spirv"
)

func init() {
	back.Register(&Backend{})
}

// Backend implements back.Backend for back.TargetSPIRV.
type Backend struct{}

func (*Backend) Target() back.Target { return back.TargetSPIRV }

// descriptor tracks one variable's set and binding decoration words.
type descriptor struct {
	id          uint32
	set         uint32
	binding     uint32
	setWord     int
	bindingWord int
}

// Compile renumbers every descriptor into set 0 with bindings assigned
// in ascending (set, binding) order of the input. The output is
// byte-identical when applied to its own result.
func (b *Backend) Compile(module *spirv.Module, bindings *bind.Map, stage spirv.Stage, options *back.Options) (*back.CompiledShader, error) {
	words := module.Words()

	descs, err := collectDescriptors(words)
	if err != nil {
		return nil, err
	}

	sort.Slice(descs, func(i, j int) bool {
		if descs[i].set != descs[j].set {
			return descs[i].set < descs[j].set
		}
		return descs[i].binding < descs[j].binding
	})

	remap := make(map[[2]uint32]uint32, len(descs))
	for i := range descs {
		d := &descs[i]
		remap[[2]uint32{d.set, d.binding}] = uint32(i)
		words[d.setWord] = 0
		words[d.bindingWord] = uint32(i)
	}

	locations, err := stageLocations(bindings, stage, remap)
	if err != nil {
		return nil, err
	}

	return &back.CompiledShader{
		Target:    back.TargetSPIRV,
		Stage:     stage,
		Code:      encodeWords(words),
		Locations: locations,
	}, nil
}

// collectDescriptors scans the annotation instructions for variables
// carrying both a DescriptorSet and a Binding decoration.
func collectDescriptors(words []uint32) ([]descriptor, error) {
	byID := make(map[uint32]*descriptor)
	var order []uint32

	i := 5
	for i < len(words) {
		wc := int(words[i] >> 16)
		op := spirv.OpCode(words[i] & 0xffff)
		if wc == 0 || i+wc > len(words) {
			return nil, &back.Error{
				Target:  back.TargetSPIRV,
				Message: "truncated instruction stream",
			}
		}
		if op == spirv.OpDecorate && wc == 4 {
			id, deco, val := words[i+1], spirv.Decoration(words[i+2]), words[i+3]
			d := byID[id]
			if d == nil && (deco == spirv.DecorationDescriptorSet || deco == spirv.DecorationBinding) {
				d = &descriptor{id: id, setWord: -1, bindingWord: -1}
				byID[id] = d
				order = append(order, id)
			}
			switch deco {
			case spirv.DecorationDescriptorSet:
				d.set = val
				d.setWord = i + 3
			case spirv.DecorationBinding:
				d.binding = val
				d.bindingWord = i + 3
			}
		}
		i += wc
	}

	out := make([]descriptor, 0, len(order))
	for _, id := range order {
		d := byID[id]
		if d.setWord < 0 || d.bindingWord < 0 {
			return nil, &back.Error{
				Target:  back.TargetSPIRV,
				Message: "descriptor decorated with only one of set and binding",
			}
		}
		out = append(out, *d)
	}
	return out, nil
}

// stageLocations resolves each binding map entry visible in this stage
// to its renumbered descriptor.
func stageLocations(bindings *bind.Map, stage spirv.Stage, remap map[[2]uint32]uint32) (map[string]back.NativeLocation, error) {
	out := make(map[string]back.NativeLocation)
	for _, b := range bindings.Bindings() {
		loc := b.Vertex
		if stage == spirv.StageFragment {
			loc = b.Fragment
		}
		if loc == nil {
			continue
		}
		newBinding, ok := remap[[2]uint32{loc.Set, loc.Binding}]
		if !ok {
			return nil, &back.Error{
				Target:  back.TargetSPIRV,
				Message: "binding map references a descriptor absent from the module",
			}
		}
		out[b.Slot.String()] = back.NativeLocation{
			Kind:    back.LocationSetBinding,
			Set:     0,
			Binding: newBinding,
		}
	}
	return out, nil
}

func encodeWords(words []uint32) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}
